// README: Dispatch orchestrator — auto/manual dispatch, worker responses, expiry sweeping.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"laborhub/internal/geo"
	"laborhub/internal/modules/matching"
	"laborhub/internal/modules/order"
	"laborhub/internal/modules/worker"
	"laborhub/internal/types"
)

var (
	ErrUnauthorized   = errors.New("not allowed for this order")
	ErrInvalidState   = errors.New("order is not dispatchable")
	ErrNoPending      = errors.New("no pending dispatch for this order")
	ErrDeadlinePassed = errors.New("accept deadline has passed")
	ErrConflict       = errors.New("dispatch state conflict")
)

// Matcher abstracts the matching engine.
type Matcher interface {
	MatchWorkers(ctx context.Context, orderLoc types.Point, category string, requiredSkills []string, employerID types.ID, o *matching.Overrides) ([]matching.Candidate, error)
}

// OrderStore is the slice of the order store the orchestrator needs. The
// conditional updates are the store's atomic guard against concurrent
// dispatch attempts.
type OrderStore interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	UpdateDispatchStatus(ctx context.Context, id types.ID, from, to order.DispatchStatus) (bool, error)
	AssignWorker(ctx context.Context, id, workerID types.ID, fromDispatch order.DispatchStatus) (bool, error)
}

// RecordStore persists dispatch attempts.
type RecordStore interface {
	Create(ctx context.Context, r *Record) error
	PendingByOrder(ctx context.Context, orderID types.ID) (*Record, error)
	Resolve(ctx context.Context, id types.ID, to Status, reason *string) (bool, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]Record, error)
	ListByOrder(ctx context.Context, orderID types.ID) ([]Record, error)
}

// WorkerSource looks up a single worker profile (manual dispatch and
// self-accept need the worker's position for the record's distance field).
type WorkerSource interface {
	Get(ctx context.Context, userID types.ID) (*worker.Profile, error)
}

// Notifier publishes dispatch lifecycle events. Failures never block
// dispatch; they are logged and swallowed.
type Notifier interface {
	DispatchCreated(ctx context.Context, orderID, workerID types.ID, score float64) error
	DispatchAccepted(ctx context.Context, orderID, workerID types.ID) error
	DispatchRejected(ctx context.Context, orderID, workerID types.ID, reason string) error
}

type Config struct {
	AcceptWindow   time.Duration
	AutoLimit      int // candidates fetched for auto dispatch
	CandidateLimit int // candidates returned for manual selection
}

func DefaultServiceConfig() Config {
	return Config{
		AcceptWindow:   5 * time.Minute,
		AutoLimit:      5,
		CandidateLimit: 20,
	}
}

type Service struct {
	orders  OrderStore
	records RecordStore
	matcher Matcher
	workers WorkerSource
	notify  Notifier
	log     *zap.Logger
	cfg     Config
}

func NewService(orders OrderStore, records RecordStore, matcher Matcher, workers WorkerSource, notify Notifier, log *zap.Logger, cfg Config) *Service {
	if cfg.AcceptWindow <= 0 {
		cfg.AcceptWindow = 5 * time.Minute
	}
	if cfg.AutoLimit <= 0 {
		cfg.AutoLimit = 5
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		orders:  orders,
		records: records,
		matcher: matcher,
		workers: workers,
		notify:  notify,
		log:     log,
		cfg:     cfg,
	}
}

// AutoDispatch matches the order and offers it to the best candidate. The
// order's dispatch status is flipped unassigned → pending_accept through a
// conditional update before the record is written, so concurrent calls
// produce exactly one record; the loser gets ErrInvalidState.
func (s *Service) AutoDispatch(ctx context.Context, orderID, actorID types.ID) (Result, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Result{}, err
	}
	if o.EmployerID != actorID {
		return Result{}, ErrUnauthorized
	}
	if o.Status != order.StatusPending || o.DispatchStatus != order.DispatchUnassigned {
		return Result{}, ErrInvalidState
	}

	limit := s.cfg.AutoLimit
	candidates, err := s.matcher.MatchWorkers(ctx, o.Location, o.ServiceCategory, o.RequiredSkills, o.EmployerID, &matching.Overrides{Limit: &limit})
	if err != nil {
		s.log.Error("matching failed", zap.String("order_id", string(orderID)), zap.Error(err))
		return Result{Message: "dispatch failed"}, fmt.Errorf("match workers: %w", err)
	}
	if len(candidates) == 0 {
		return Result{Message: "no suitable worker available"}, nil
	}
	best := candidates[0]

	ok, err := s.orders.UpdateDispatchStatus(ctx, orderID, order.DispatchUnassigned, order.DispatchPendingAccept)
	if err != nil {
		s.log.Error("dispatch status update failed", zap.String("order_id", string(orderID)), zap.Error(err))
		return Result{Message: "dispatch failed"}, fmt.Errorf("update dispatch status: %w", err)
	}
	if !ok {
		return Result{}, ErrInvalidState
	}

	now := time.Now()
	rec := &Record{
		ID:             types.ID(uuid.NewString()),
		OrderID:        orderID,
		WorkerID:       best.WorkerID,
		Type:           TypeSystemAuto,
		Status:         StatusPending,
		PriorityScore:  best.Score,
		Distance:       best.Distance,
		AcceptDeadline: now.Add(s.cfg.AcceptWindow),
		DispatchedAt:   now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		// Release the order so a later attempt can dispatch it again.
		_, _ = s.orders.UpdateDispatchStatus(ctx, orderID, order.DispatchPendingAccept, order.DispatchUnassigned)
		s.log.Error("dispatch record create failed", zap.String("order_id", string(orderID)), zap.Error(err))
		return Result{Message: "dispatch failed"}, fmt.Errorf("create dispatch record: %w", err)
	}

	s.log.Info("auto dispatch",
		zap.String("order_id", string(orderID)),
		zap.String("worker_id", string(best.WorkerID)),
		zap.Float64("score", best.Score),
		zap.Float64("distance_m", best.Distance),
		zap.Strings("reasons", best.Reasons),
	)
	s.publishCreated(ctx, orderID, best.WorkerID, best.Score)

	return Result{
		Success:  true,
		WorkerID: best.WorkerID,
		Message:  "dispatched to " + best.Name,
	}, nil
}

// ManualDispatch offers the order to a worker chosen by the employer from
// the candidate list. Same atomic guard as AutoDispatch; the record carries
// the sentinel score.
func (s *Service) ManualDispatch(ctx context.Context, orderID, workerID, actorID types.ID) (Result, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Result{}, err
	}
	if o.EmployerID != actorID {
		return Result{}, ErrUnauthorized
	}
	if o.Status != order.StatusPending || o.DispatchStatus != order.DispatchUnassigned {
		return Result{}, ErrInvalidState
	}

	p, err := s.workers.Get(ctx, workerID)
	if err != nil {
		return Result{}, err
	}
	if !p.Available() {
		return Result{Message: "worker is not available"}, nil
	}
	distance := 0.0
	if p.LastLocation != nil {
		distance = geo.Distance(o.Location, *p.LastLocation)
	}

	ok, err := s.orders.UpdateDispatchStatus(ctx, orderID, order.DispatchUnassigned, order.DispatchPendingAccept)
	if err != nil {
		s.log.Error("dispatch status update failed", zap.String("order_id", string(orderID)), zap.Error(err))
		return Result{Message: "dispatch failed"}, fmt.Errorf("update dispatch status: %w", err)
	}
	if !ok {
		return Result{}, ErrInvalidState
	}

	now := time.Now()
	rec := &Record{
		ID:             types.ID(uuid.NewString()),
		OrderID:        orderID,
		WorkerID:       workerID,
		Type:           TypeManual,
		Status:         StatusPending,
		PriorityScore:  SentinelScore,
		Distance:       distance,
		AcceptDeadline: now.Add(s.cfg.AcceptWindow),
		DispatchedAt:   now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		_, _ = s.orders.UpdateDispatchStatus(ctx, orderID, order.DispatchPendingAccept, order.DispatchUnassigned)
		s.log.Error("dispatch record create failed", zap.String("order_id", string(orderID)), zap.Error(err))
		return Result{Message: "dispatch failed"}, fmt.Errorf("create dispatch record: %w", err)
	}

	s.log.Info("manual dispatch",
		zap.String("order_id", string(orderID)),
		zap.String("worker_id", string(workerID)),
		zap.Float64("distance_m", distance),
	)
	s.publishCreated(ctx, orderID, workerID, SentinelScore)

	return Result{Success: true, WorkerID: workerID, Message: "dispatched to " + p.Name}, nil
}

// CandidatesForOrder returns the ranked candidate list for manual selection.
// A missing order yields an empty list, not an error.
func (s *Service) CandidatesForOrder(ctx context.Context, orderID, actorID types.ID) ([]matching.Candidate, error) {
	o, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, order.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if o.EmployerID != actorID {
		return nil, ErrUnauthorized
	}

	limit := s.cfg.CandidateLimit
	return s.matcher.MatchWorkers(ctx, o.Location, o.ServiceCategory, o.RequiredSkills, o.EmployerID, &matching.Overrides{Limit: &limit})
}

// Accept confirms a dispatch for the worker. With a pending record the
// targeted worker must respond before the deadline; without one, a worker
// may claim an open, undispatched order directly (self-accept), which
// produces an already-accepted record.
func (s *Service) Accept(ctx context.Context, orderID, workerID types.ID) error {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	rec, err := s.records.PendingByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if rec == nil {
		return s.selfAccept(ctx, o, workerID)
	}

	if rec.WorkerID != workerID {
		return ErrUnauthorized
	}
	if time.Now().After(rec.AcceptDeadline) {
		// Late response: resolve the attempt as expired rather than
		// waiting for the sweeper, then report the miss.
		if ok, _ := s.records.Resolve(ctx, rec.ID, StatusExpired, nil); ok {
			_, _ = s.orders.UpdateDispatchStatus(ctx, orderID, order.DispatchPendingAccept, order.DispatchTimeout)
		}
		return ErrDeadlinePassed
	}

	ok, err := s.orders.AssignWorker(ctx, orderID, workerID, order.DispatchPendingAccept)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if ok, err := s.records.Resolve(ctx, rec.ID, StatusAccepted, nil); err != nil {
		return err
	} else if !ok {
		return ErrConflict
	}

	s.log.Info("dispatch accepted",
		zap.String("order_id", string(orderID)),
		zap.String("worker_id", string(workerID)),
	)
	if s.notify != nil {
		if err := s.notify.DispatchAccepted(ctx, orderID, workerID); err != nil {
			s.log.Warn("notify accepted failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) selfAccept(ctx context.Context, o *order.Order, workerID types.ID) error {
	if o.Status != order.StatusPending || o.DispatchStatus != order.DispatchUnassigned {
		return ErrInvalidState
	}

	distance := 0.0
	if p, err := s.workers.Get(ctx, workerID); err == nil && p.LastLocation != nil {
		distance = geo.Distance(o.Location, *p.LastLocation)
	}

	ok, err := s.orders.AssignWorker(ctx, o.ID, workerID, order.DispatchUnassigned)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}

	now := time.Now()
	rec := &Record{
		ID:             types.ID(uuid.NewString()),
		OrderID:        o.ID,
		WorkerID:       workerID,
		Type:           TypeWorkerAccept,
		Status:         StatusAccepted,
		PriorityScore:  SentinelScore,
		Distance:       distance,
		AcceptDeadline: now,
		DispatchedAt:   now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		// The assignment already happened; the attempt just lacks its
		// audit row. Log loudly instead of unwinding a live assignment.
		s.log.Error("self-accept record create failed", zap.String("order_id", string(o.ID)), zap.Error(err))
		return nil
	}

	s.log.Info("worker self-accept",
		zap.String("order_id", string(o.ID)),
		zap.String("worker_id", string(workerID)),
	)
	if s.notify != nil {
		if err := s.notify.DispatchAccepted(ctx, o.ID, workerID); err != nil {
			s.log.Warn("notify accepted failed", zap.Error(err))
		}
	}
	return nil
}

// Reject declines a pending dispatch, optionally with a reason. The order's
// dispatch status moves to rejected; the employer may reopen it for another
// attempt.
func (s *Service) Reject(ctx context.Context, orderID, workerID types.ID, reason string) error {
	rec, err := s.records.PendingByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNoPending
	}
	if rec.WorkerID != workerID {
		return ErrUnauthorized
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	ok, err := s.records.Resolve(ctx, rec.ID, StatusRejected, reasonPtr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_, _ = s.orders.UpdateDispatchStatus(ctx, orderID, order.DispatchPendingAccept, order.DispatchRejected)

	s.log.Info("dispatch rejected",
		zap.String("order_id", string(orderID)),
		zap.String("worker_id", string(workerID)),
		zap.String("reason", reason),
	)
	if s.notify != nil {
		if err := s.notify.DispatchRejected(ctx, orderID, workerID, reason); err != nil {
			s.log.Warn("notify rejected failed", zap.Error(err))
		}
	}
	return nil
}

// Reopen returns a rejected or timed-out order to the dispatchable pool.
func (s *Service) Reopen(ctx context.Context, orderID, actorID types.ID) error {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.EmployerID != actorID {
		return ErrUnauthorized
	}
	if !order.CanDispatchTransition(o.DispatchStatus, order.DispatchUnassigned) {
		return ErrInvalidState
	}
	ok, err := s.orders.UpdateDispatchStatus(ctx, orderID, o.DispatchStatus, order.DispatchUnassigned)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// CancelPending is the compensating action for order cancellation: the
// order's pending dispatch record, if any, moves to canceled. Safe to call
// when nothing is pending.
func (s *Service) CancelPending(ctx context.Context, orderID types.ID) error {
	rec, err := s.records.PendingByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if _, err := s.records.Resolve(ctx, rec.ID, StatusCanceled, nil); err != nil {
		return err
	}
	s.log.Info("dispatch canceled with order", zap.String("order_id", string(orderID)))
	return nil
}

// History returns all dispatch attempts for an order, newest first.
func (s *Service) History(ctx context.Context, orderID, actorID types.ID) ([]Record, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.EmployerID != actorID {
		return nil, ErrUnauthorized
	}
	return s.records.ListByOrder(ctx, orderID)
}

const sweepBatchSize = 100

// RunExpirySweeper periodically expires pending dispatches whose accept
// deadline has elapsed. Run as a background goroutine.
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *Service) sweepExpired(ctx context.Context) {
	records, err := s.records.ListExpiredPending(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		s.log.Error("expiry sweep query failed", zap.Error(err))
		return
	}
	for _, rec := range records {
		ok, err := s.records.Resolve(ctx, rec.ID, StatusExpired, nil)
		if err != nil {
			s.log.Error("expire record failed", zap.String("record_id", string(rec.ID)), zap.Error(err))
			continue
		}
		if !ok {
			continue // resolved concurrently
		}
		_, _ = s.orders.UpdateDispatchStatus(ctx, rec.OrderID, order.DispatchPendingAccept, order.DispatchTimeout)
		s.log.Info("dispatch expired",
			zap.String("order_id", string(rec.OrderID)),
			zap.String("worker_id", string(rec.WorkerID)),
		)
	}
}

func (s *Service) publishCreated(ctx context.Context, orderID, workerID types.ID, score float64) {
	if s.notify == nil {
		return
	}
	if err := s.notify.DispatchCreated(ctx, orderID, workerID, score); err != nil {
		s.log.Warn("notify created failed", zap.Error(err))
	}
}
