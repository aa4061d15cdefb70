package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"laborhub/internal/modules/matching"
)

// Concurrent dispatch attempts on the same order must produce exactly one
// pending record; losers observe an invalid-state error. Run with -race.
func TestAutoDispatch_ConcurrentSingleRecord(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := NewService(orders, records, matcher, nil, nil, zap.NewNop(), DefaultServiceConfig())

	const attempts = 8
	results := make([]Result, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.AutoDispatch(context.Background(), "order-1", "employer-1")
		}(i)
	}
	wg.Wait()

	var wins int
	for i := 0; i < attempts; i++ {
		if errs[i] == nil && results[i].Success {
			wins++
			continue
		}
		if !errors.Is(errs[i], ErrInvalidState) {
			t.Errorf("attempt %d: err = %v, want ErrInvalidState", i, errs[i])
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	if got := len(records.all()); got != 1 {
		t.Fatalf("records = %d, want exactly 1", got)
	}
}

// Accept racing against the expiry sweep must settle the record in exactly
// one terminal state.
func TestAcceptVsSweep_SingleTerminalState(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := NewService(orders, records, matcher, nil, nil, zap.NewNop(), DefaultServiceConfig())

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = svc.Accept(ctx, "order-1", "worker-1")
	}()
	go func() {
		defer wg.Done()
		svc.sweepExpired(ctx)
	}()
	wg.Wait()

	rec := records.all()[0]
	if rec.Status == StatusPending {
		t.Fatal("record left pending")
	}
	if rec.Status != StatusAccepted && rec.Status != StatusExpired {
		t.Fatalf("record status = %s, want accepted or expired", rec.Status)
	}
}
