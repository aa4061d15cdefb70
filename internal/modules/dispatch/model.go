// README: Dispatch attempt records and their lifecycle.
package dispatch

import (
	"time"

	"laborhub/internal/types"
)

// Type classifies how the dispatch was initiated.
type Type string

const (
	TypeManual       Type = "manual"
	TypeSystemAuto   Type = "system_auto"
	TypeWorkerAccept Type = "worker_accept"
)

// Status is the lifecycle of one dispatch attempt. Pending is the only
// non-terminal state; a record that has reached a terminal state is never
// mutated again — a new attempt produces a new record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// SentinelScore is recorded for manual and worker-initiated dispatches,
// which bypass the scoring engine.
const SentinelScore = 100

var terminalStatuses = map[Status]bool{
	StatusAccepted: true,
	StatusRejected: true,
	StatusCanceled: true,
	StatusExpired:  true,
}

// CanResolve reports whether a record may move from from to to.
func CanResolve(from, to Status) bool {
	return from == StatusPending && terminalStatuses[to]
}

// Record is one dispatch attempt. Multiple records may exist per order over
// time, preserving the full audit history.
type Record struct {
	ID             types.ID
	OrderID        types.ID
	WorkerID       types.ID
	Type           Type
	Status         Status
	PriorityScore  float64
	Distance       float64 // meters at dispatch time
	AcceptDeadline time.Time
	RejectReason   *string
	DispatchedAt   time.Time
}

// Result is the typed outcome of a dispatch request. A false Success with a
// message is a normal outcome (no suitable worker), not an error.
type Result struct {
	Success  bool
	WorkerID types.ID
	Message  string
}
