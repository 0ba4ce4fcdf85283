package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Граф статусов содержит ровно четыре ребра; остальные пары запрещены.
func TestOrderStatusTransitions(t *testing.T) {
	statuses := []OrderStatus{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled}

	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusCompleted}: true,
		{OrderStatusPending, OrderStatusCancelled}: true,
		{OrderStatusCompleted, OrderStatusPending}: true,
		{OrderStatusCancelled, OrderStatusPending}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			got := from.CanTransitionTo(to)
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equal(t, want, got, "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusCompleted.Valid())
	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestNewOrderStartsPending(t *testing.T) {
	order := NewOrder(1001, "ivan", CartItems{"Elf Bar": 2}, 2000, "55.75, 37.62", "-")
	assert.Equal(t, OrderStatusPending, order.Status)
}

func TestCartSnapshotIsIndependent(t *testing.T) {
	cart := NewCart(1001)
	cart.Put("Elf Bar", 2)

	snapshot := cart.Snapshot()
	cart.Put("Elf Bar", 5)

	assert.Equal(t, 2, snapshot["Elf Bar"])
}
