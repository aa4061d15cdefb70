// README: Order aggregate with its two independent status tracks.
package order

import (
	"time"

	"laborhub/internal/types"
)

// Status is the job-progress lifecycle of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusEvaluated  Status = "evaluated"
	StatusCanceled   Status = "canceled"
	StatusDisputed   Status = "disputed"
)

// AllowedTransitions represents the order state flow as code. Evaluated,
// canceled, and disputed are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCanceled},
	StatusAccepted:   {StatusInProgress, StatusCanceled},
	StatusInProgress: {StatusCompleted, StatusCanceled, StatusDisputed},
	StatusCompleted:  {StatusEvaluated, StatusDisputed},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// DispatchStatus is the assignment-progress lifecycle, independent of but
// constrained by Status: only a pending order can be newly dispatched.
type DispatchStatus string

const (
	DispatchUnassigned    DispatchStatus = "unassigned"
	DispatchPendingAccept DispatchStatus = "pending_accept"
	DispatchAssigned      DispatchStatus = "assigned"
	DispatchRejected      DispatchStatus = "rejected"
	DispatchTimeout       DispatchStatus = "timeout"
)

// Rejected and timed-out orders can be reopened for another dispatch
// attempt; assigned is terminal for this track.
var allowedDispatchTransitions = map[DispatchStatus][]DispatchStatus{
	DispatchUnassigned:    {DispatchPendingAccept, DispatchAssigned},
	DispatchPendingAccept: {DispatchAssigned, DispatchRejected, DispatchTimeout},
	DispatchRejected:      {DispatchUnassigned},
	DispatchTimeout:       {DispatchUnassigned},
}

func CanDispatchTransition(from, to DispatchStatus) bool {
	next, ok := allowedDispatchTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID              types.ID
	EmployerID      types.ID
	WorkerID        *types.ID
	Title           string
	ServiceCategory string
	RequiredSkills  []string
	Location        types.Point
	Address         string
	Pay             types.Money
	Status          Status
	DispatchStatus  DispatchStatus
	CreatedAt       time.Time
	AcceptedAt      *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CanceledAt      *time.Time
	CancelReason    *string
}
