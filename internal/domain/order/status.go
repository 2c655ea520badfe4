package order

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the full state machine. DELIVERED and CANCELLED are
// terminal. No state lists itself, so a transition to the current status is
// always rejected.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// AllowedTargets returns the statuses reachable from s.
func (s Status) AllowedTargets() []Status {
	return transitions[s]
}

// CanTransitionTo reports whether target is reachable from s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// InvalidTransitionError names a rejected transition and the allowed set for
// the current status.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := e.From.AllowedTargets()
	rendered := "none"
	if len(allowed) > 0 {
		names := make([]string, len(allowed))
		for i, t := range allowed {
			names[i] = string(t)
		}
		rendered = strings.Join(names, ", ")
	}
	return fmt.Sprintf("cannot transition order from %s to %s: allowed transitions: %s",
		e.From, e.To, rendered)
}
