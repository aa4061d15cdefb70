// README: Order service implements job-lifecycle transitions and persistence.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"laborhub/internal/types"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("order state conflict")
	ErrUnauthorized = errors.New("not allowed for this order")
	ErrBadRequest   = errors.New("bad request")
)

// Geocoder resolves a coordinate into a display address. Optional.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
}

// DispatchCanceler is the compensating hook into the dispatch module: when
// an order is canceled, its pending dispatch record (if any) must be
// canceled too.
type DispatchCanceler interface {
	CancelPending(ctx context.Context, orderID types.ID) error
}

type Service struct {
	store    *Store
	geocoder Geocoder
	dispatch DispatchCanceler
}

func NewService(store *Store, geocoder Geocoder) *Service {
	return &Service{store: store, geocoder: geocoder}
}

// SetDispatchCanceler wires the dispatch module in after construction; the
// two services reference each other, so one side is attached late.
func (s *Service) SetDispatchCanceler(d DispatchCanceler) {
	s.dispatch = d
}

type CreateCommand struct {
	EmployerID      types.ID
	Title           string
	ServiceCategory string
	RequiredSkills  []string
	Location        types.Point
	Pay             types.Money
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.EmployerID == "" || strings.TrimSpace(cmd.Title) == "" || strings.TrimSpace(cmd.ServiceCategory) == "" {
		return "", ErrBadRequest
	}

	address := ""
	if s.geocoder != nil {
		if a, err := s.geocoder.ReverseGeocode(ctx, cmd.Location); err == nil {
			address = a
		}
	}

	o := &Order{
		ID:              types.ID(uuid.NewString()),
		EmployerID:      cmd.EmployerID,
		Title:           strings.TrimSpace(cmd.Title),
		ServiceCategory: strings.TrimSpace(cmd.ServiceCategory),
		RequiredSkills:  cmd.RequiredSkills,
		Location:        cmd.Location,
		Address:         address,
		Pay:             cmd.Pay,
		Status:          StatusPending,
		DispatchStatus:  DispatchUnassigned,
		CreatedAt:       time.Now(),
	}
	if err := s.store.Create(ctx, o); err != nil {
		return "", err
	}
	return o.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByEmployer(ctx context.Context, employerID types.ID, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListByEmployer(ctx, employerID, limit)
}

func (s *Service) ListOpenUnassigned(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListOpenUnassigned(ctx, limit)
}

type StartCommand struct {
	OrderID  types.ID
	WorkerID types.ID
}

// Start moves an accepted order into in_progress; only the assigned worker
// may do so.
func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.WorkerID == nil || *o.WorkerID != cmd.WorkerID {
		return ErrUnauthorized
	}
	if !CanTransition(o.Status, StatusInProgress) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusInProgress, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

type CompleteCommand struct {
	OrderID  types.ID
	WorkerID types.ID
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.WorkerID == nil || *o.WorkerID != cmd.WorkerID {
		return ErrUnauthorized
	}
	if !CanTransition(o.Status, StatusCompleted) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusCompleted, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

type CancelCommand struct {
	OrderID types.ID
	ActorID types.ID
	Reason  string
}

// Cancel terminates an order. Allowed for the owning employer or the
// assigned worker. A pending dispatch attempt, if any, is canceled as a
// compensating action.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if !s.mayCancel(o, cmd.ActorID) {
		return ErrUnauthorized
	}
	if !CanTransition(o.Status, StatusCanceled) {
		return ErrInvalidState
	}

	var reason *string
	if r := strings.TrimSpace(cmd.Reason); r != "" {
		reason = &r
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusCanceled, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	if s.dispatch != nil {
		if err := s.dispatch.CancelPending(ctx, o.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) mayCancel(o *Order, actor types.ID) bool {
	if o.EmployerID == actor {
		return true
	}
	return o.WorkerID != nil && *o.WorkerID == actor
}
