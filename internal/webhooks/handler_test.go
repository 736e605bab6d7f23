package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dexday077/kep-orders/internal/orders"
	"github.com/dexday077/kep-orders/internal/payments"
)

type MockPaymentStore struct{ mock.Mock }

func (m *MockPaymentStore) FindByProviderRef(ctx context.Context, provider, ref string) (payments.Payment, error) {
	args := m.Called(ctx, provider, ref)
	return args.Get(0).(payments.Payment), args.Error(1)
}
func (m *MockPaymentStore) MarkSucceeded(ctx context.Context, id string, method payments.MethodDetails) error {
	return m.Called(ctx, id, method).Error(0)
}
func (m *MockPaymentStore) MarkFailed(ctx context.Context, id, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type MockOrderStore struct{ mock.Mock }

func (m *MockOrderStore) TransitionStatus(ctx context.Context, tenantID, orderID string, to orders.Status) error {
	return m.Called(ctx, tenantID, orderID, to).Error(0)
}

type MockReservationStore struct{ mock.Mock }

func (m *MockReservationStore) ReleaseAll(ctx context.Context, tenantID, orderID string) error {
	return m.Called(ctx, tenantID, orderID).Error(0)
}

type MockDeadLetterStore struct{ mock.Mock }

func (m *MockDeadLetterStore) Record(ctx context.Context, provider, eventID, eventType, ref, reason string, body []byte) error {
	return m.Called(ctx, provider, eventID, eventType, ref, reason, body).Error(0)
}
func (m *MockDeadLetterStore) RecordChargeback(ctx context.Context, provider, eventID, ref, orderID string, body []byte) error {
	return m.Called(ctx, provider, eventID, ref, orderID, body).Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) PaymentSucceeded(tenantID, customerID, orderID string, amount float64) {
	m.Called(tenantID, customerID, orderID, amount)
}
func (m *MockNotifier) PaymentFailed(tenantID, customerID, orderID, reason string) {
	m.Called(tenantID, customerID, orderID, reason)
}
func (m *MockNotifier) Chargeback(tenantID, orderID, provider string) {
	m.Called(tenantID, orderID, provider)
}

type fixture struct {
	h        *Handler
	pays     *MockPaymentStore
	ords     *MockOrderStore
	resv     *MockReservationStore
	dead     *MockDeadLetterStore
	notifier *MockNotifier
	router   *chi.Mux
}

const testSecret = "iyz_secret"

func newFixture() *fixture {
	f := &fixture{
		pays:     new(MockPaymentStore),
		ords:     new(MockOrderStore),
		resv:     new(MockReservationStore),
		dead:     new(MockDeadLetterStore),
		notifier: new(MockNotifier),
	}
	f.h = &Handler{
		Payments:     f.pays,
		Orders:       f.ords,
		Reservations: f.resv,
		DeadLetters:  f.dead,
		Notify:       f.notifier,
		Secrets:      map[string]string{"iyzico": testSecret, "stripe": "whsec", "paytr": "ptr"},
	}
	f.router = chi.NewRouter()
	f.h.Register(f.router)
	return f
}

func (f *fixture) deliver(t *testing.T, provider, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment/"+provider, strings.NewReader(body))
	if sign {
		req.Header.Set(SignatureHeader(provider), base64Header(f.h.Secrets[provider], []byte(body)))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func pendingPayment() payments.Payment {
	return payments.Payment{
		ID:         "pay-1",
		OrderID:    "order-1",
		TenantID:   "t1",
		CustomerID: "cust-1",
		Provider:   "iyzico",
		Amount:     200,
		Currency:   "TRY",
		Status:     payments.StatusPending,
	}
}

func TestWebhook_UnknownProvider(t *testing.T) {
	f := newFixture()
	w := f.deliver(t, "paypal", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_MissingSignature(t *testing.T) {
	f := newFixture()
	w := f.deliver(t, "iyzico", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	f := newFixture()
	body := `{"iyziEventType":"PAYMENT_SUCCESS","paymentId":"iyz-1"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment/iyzico", strings.NewReader(body))
	req.Header.Set(SignatureHeader("iyzico"), base64Header("wrong-secret", []byte(body)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_EmptySecretRejected(t *testing.T) {
	f := newFixture()
	f.h.Secrets["paytr"] = ""

	// Signed with the empty string the handler would otherwise fall back to.
	body := `{"notification_id":"n-1","merchant_oid":"oid-1","status":"success"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment/paytr", strings.NewReader(body))
	req.Header.Set(SignatureHeader("paytr"), base64Header("", []byte(body)))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	f.pays.AssertNotCalled(t, "FindByProviderRef", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_IgnoredEventType(t *testing.T) {
	f := newFixture()
	w := f.deliver(t, "iyzico", `{"iyziEventType":"SUBSCRIPTION_RENEWED"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	f.pays.AssertNotCalled(t, "FindByProviderRef", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_UnmatchedEventIsDeadLettered(t *testing.T) {
	f := newFixture()
	f.pays.On("FindByProviderRef", mock.Anything, "iyzico", "iyz-404").
		Return(payments.Payment{}, payments.ErrNotFound)
	f.dead.On("Record", mock.Anything, "iyzico", mock.Anything, EventSucceeded, "iyz-404",
		"no matching payment", mock.Anything).Return(nil)

	w := f.deliver(t, "iyzico", `{"iyziEventType":"PAYMENT_SUCCESS","paymentId":"iyz-404"}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])

	f.dead.AssertExpectations(t)
	f.pays.AssertNotCalled(t, "MarkSucceeded", mock.Anything, mock.Anything, mock.Anything)
	f.ords.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_PaymentSucceeded(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.pays.On("FindByProviderRef", mock.Anything, "iyzico", "iyz-1").Return(pay, nil)
	f.pays.On("MarkSucceeded", mock.Anything, "pay-1",
		payments.MethodDetails{Brand: "VISA", Last4: "4242"}).Return(nil)
	f.ords.On("TransitionStatus", mock.Anything, "t1", "order-1", orders.StatusConfirmed).Return(nil)
	f.notifier.On("PaymentSucceeded", "t1", "cust-1", "order-1", 200.0).Return()

	body := `{"iyziEventType":"PAYMENT_SUCCESS","paymentId":"iyz-1","cardAssociation":"VISA","lastFourDigits":"4242"}`
	w := f.deliver(t, "iyzico", body, true)

	assert.Equal(t, http.StatusOK, w.Code)
	f.pays.AssertExpectations(t)
	f.ords.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestWebhook_PaymentFailedReleasesStock(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.pays.On("FindByProviderRef", mock.Anything, "iyzico", "iyz-2").Return(pay, nil)
	f.pays.On("MarkFailed", mock.Anything, "pay-1", "insufficient funds").Return(nil)
	f.ords.On("TransitionStatus", mock.Anything, "t1", "order-1", orders.StatusCancelled).Return(nil)
	f.resv.On("ReleaseAll", mock.Anything, "t1", "order-1").Return(nil)
	f.notifier.On("PaymentFailed", "t1", "cust-1", "order-1", "insufficient funds").Return()

	body := `{"iyziEventType":"PAYMENT_FAILURE","paymentId":"iyz-2","errorMessage":"insufficient funds"}`
	w := f.deliver(t, "iyzico", body, true)

	assert.Equal(t, http.StatusOK, w.Code)
	f.pays.AssertExpectations(t)
	f.ords.AssertExpectations(t)
	f.resv.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestWebhook_ChargebackIsInformational(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.pays.On("FindByProviderRef", mock.Anything, "iyzico", "iyz-3").Return(pay, nil)
	f.dead.On("RecordChargeback", mock.Anything, "iyzico", mock.Anything, "iyz-3", "order-1",
		mock.Anything).Return(nil)
	f.notifier.On("Chargeback", "t1", "order-1", "iyzico").Return()

	w := f.deliver(t, "iyzico", `{"iyziEventType":"CHARGEBACK","paymentId":"iyz-3"}`, true)

	assert.Equal(t, http.StatusOK, w.Code)
	f.dead.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.pays.AssertNotCalled(t, "MarkSucceeded", mock.Anything, mock.Anything, mock.Anything)
	f.pays.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
	f.ords.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_MarkSucceededFailure(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.pays.On("FindByProviderRef", mock.Anything, "iyzico", "iyz-1").Return(pay, nil)
	f.pays.On("MarkSucceeded", mock.Anything, "pay-1", payments.MethodDetails{}).
		Return(assert.AnError)

	w := f.deliver(t, "iyzico", `{"iyziEventType":"PAYMENT_SUCCESS","paymentId":"iyz-1"}`, true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp["error"])
}
