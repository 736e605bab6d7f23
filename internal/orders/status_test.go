package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusStockReserved},
		{StatusPending, StatusCancelled},
		{StatusStockReserved, StatusConfirmed},
		{StatusStockReserved, StatusCancelled},
		{StatusConfirmed, StatusPreparing},
		{StatusConfirmed, StatusCancelled},
		{StatusPreparing, StatusDelivering},
		{StatusDelivering, StatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCompleted},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusConfirmed},
		{StatusCancelled, StatusPending},
		{StatusDelivering, StatusCancelled},
		{StatusConfirmed, StatusStockReserved},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be forbidden", tc.from, tc.to)
	}
}

func TestErrorMessages(t *testing.T) {
	nf := &NotFoundError{ProductID: "ghost"}
	assert.Equal(t, "product ghost not found or not accessible", nf.Error())

	is := &InsufficientStockError{ProductID: "p1", Title: "Kahve Makinesi", Available: 1, Requested: 2}
	assert.Contains(t, is.Error(), "Insufficient stock for product")
	assert.Contains(t, is.Error(), "Kahve Makinesi")
	assert.Contains(t, is.Error(), "available 1")
	assert.Contains(t, is.Error(), "requested 2")

	te := &TransitionError{OrderID: "o1", From: StatusCompleted, To: StatusCancelled}
	assert.Contains(t, te.Error(), "illegal status transition")
}
