package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, s.Valid(), "%s should be valid", s)
	}
	assert.False(t, Status("SHIPPING").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		// Transitions to the current status are never allowed.
		{StatusPending, StatusPending, false},
		{StatusDelivered, StatusDelivered, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := &InvalidTransitionError{From: StatusPending, To: StatusDelivered}
	assert.Equal(t,
		"cannot transition order from PENDING to DELIVERED: allowed transitions: PROCESSING, CANCELLED",
		err.Error())
}

func TestInvalidTransitionError_TerminalStatesRenderNone(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		err := &InvalidTransitionError{From: terminal, To: StatusPending}
		require.Contains(t, err.Error(), "allowed transitions: none")
	}
}
