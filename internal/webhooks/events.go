package webhooks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dexday077/kep-orders/internal/payments"
)

// ErrIgnoredEvent marks provider event types we receive but do not act on
// (e.g. stripe's payment_intent.created). The delivery is acknowledged.
var ErrIgnoredEvent = errors.New("event type not handled")

const (
	EventSucceeded  = "succeeded"
	EventFailed     = "failed"
	EventChargeback = "chargeback"
)

// Event is the provider-independent shape the handler dispatches on.
type Event struct {
	ID                string
	Provider          string
	Type              string // succeeded | failed | chargeback
	ProviderPaymentID string
	Reason            string
	Method            payments.MethodDetails
}

func ParseEvent(provider string, body []byte) (Event, error) {
	switch provider {
	case "stripe":
		return parseStripe(body)
	case "iyzico":
		return parseIyzico(body)
	case "paytr":
		return parsePaytr(body)
	default:
		return Event{}, fmt.Errorf("unknown provider %q", provider)
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string `json:"id"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
			PaymentMethodDetails *struct {
				Card *struct {
					Brand string `json:"brand"`
					Last4 string `json:"last4"`
				} `json:"card"`
			} `json:"payment_method_details"`
		} `json:"object"`
	} `json:"data"`
}

func parseStripe(body []byte) (Event, error) {
	var se stripeEvent
	if err := json.Unmarshal(body, &se); err != nil {
		return Event{}, fmt.Errorf("decode stripe event: %w", err)
	}
	ev := Event{ID: se.ID, Provider: "stripe", ProviderPaymentID: se.Data.Object.ID}

	switch se.Type {
	case "payment_intent.succeeded":
		ev.Type = EventSucceeded
		if pmd := se.Data.Object.PaymentMethodDetails; pmd != nil && pmd.Card != nil {
			ev.Method = payments.MethodDetails{Brand: pmd.Card.Brand, Last4: pmd.Card.Last4}
		}
	case "payment_intent.payment_failed":
		ev.Type = EventFailed
		if se.Data.Object.LastPaymentError != nil {
			ev.Reason = se.Data.Object.LastPaymentError.Message
		}
	case "charge.dispute.created":
		ev.Type = EventChargeback
	default:
		return Event{}, ErrIgnoredEvent
	}
	return ev, nil
}

type iyzicoEvent struct {
	IyziEventType     string `json:"iyziEventType"` // PAYMENT_SUCCESS | PAYMENT_FAILURE | CHARGEBACK
	IyziReferenceCode string `json:"iyziReferenceCode"`
	PaymentID         string `json:"paymentId"`
	ErrorMessage      string `json:"errorMessage"`
	CardAssociation   string `json:"cardAssociation"`
	LastFourDigits    string `json:"lastFourDigits"`
}

func parseIyzico(body []byte) (Event, error) {
	var ie iyzicoEvent
	if err := json.Unmarshal(body, &ie); err != nil {
		return Event{}, fmt.Errorf("decode iyzico event: %w", err)
	}
	ev := Event{ID: ie.IyziReferenceCode, Provider: "iyzico", ProviderPaymentID: ie.PaymentID}

	switch ie.IyziEventType {
	case "PAYMENT_SUCCESS":
		ev.Type = EventSucceeded
		ev.Method = payments.MethodDetails{Brand: ie.CardAssociation, Last4: ie.LastFourDigits}
	case "PAYMENT_FAILURE":
		ev.Type = EventFailed
		ev.Reason = ie.ErrorMessage
	case "CHARGEBACK":
		ev.Type = EventChargeback
	default:
		return Event{}, ErrIgnoredEvent
	}
	return ev, nil
}

type paytrEvent struct {
	NotificationID  string `json:"notification_id"`
	MerchantOID     string `json:"merchant_oid"`
	Status          string `json:"status"` // success | failed | chargeback
	FailedReasonMsg string `json:"failed_reason_msg"`
}

func parsePaytr(body []byte) (Event, error) {
	var pe paytrEvent
	if err := json.Unmarshal(body, &pe); err != nil {
		return Event{}, fmt.Errorf("decode paytr event: %w", err)
	}
	ev := Event{ID: pe.NotificationID, Provider: "paytr", ProviderPaymentID: pe.MerchantOID}

	switch pe.Status {
	case "success":
		ev.Type = EventSucceeded
	case "failed":
		ev.Type = EventFailed
		ev.Reason = pe.FailedReasonMsg
	case "chargeback":
		ev.Type = EventChargeback
	default:
		return Event{}, ErrIgnoredEvent
	}
	return ev, nil
}
