package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"laborhub/internal/modules/matching"
	"laborhub/internal/modules/order"
	"laborhub/internal/modules/worker"
	"laborhub/internal/types"
)

type fakeOrders struct {
	mu     sync.Mutex
	orders map[types.ID]*order.Order
}

func newFakeOrders(orders ...*order.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[types.ID]*order.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Get(_ context.Context, id types.ID) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) UpdateDispatchStatus(_ context.Context, id types.ID, from, to order.DispatchStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.DispatchStatus != from {
		return false, nil
	}
	o.DispatchStatus = to
	return true, nil
}

func (f *fakeOrders) AssignWorker(_ context.Context, id, workerID types.ID, fromDispatch order.DispatchStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != order.StatusPending || o.DispatchStatus != fromDispatch {
		return false, nil
	}
	o.Status = order.StatusAccepted
	o.DispatchStatus = order.DispatchAssigned
	o.WorkerID = &workerID
	return true, nil
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[types.ID]*Record
	fail    bool
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: make(map[types.ID]*Record)}
}

func (f *fakeRecords) Create(_ context.Context, r *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("insert failed")
	}
	cp := *r
	f.records[r.ID] = &cp
	return nil
}

func (f *fakeRecords) PendingByOrder(_ context.Context, orderID types.ID) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.OrderID == orderID && r.Status == StatusPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRecords) Resolve(_ context.Context, id types.ID, to Status, reason *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.Status != StatusPending {
		return false, nil
	}
	r.Status = to
	r.RejectReason = reason
	return true, nil
}

func (f *fakeRecords) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, r := range f.records {
		if r.Status == StatusPending && r.AcceptDeadline.Before(now) {
			out = append(out, *r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRecords) ListByOrder(_ context.Context, orderID types.ID) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, r := range f.records {
		if r.OrderID == orderID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRecords) all() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, r := range f.records {
		out = append(out, *r)
	}
	return out
}

type fakeMatcher struct {
	candidates []matching.Candidate
	err        error
}

func (f *fakeMatcher) MatchWorkers(context.Context, types.Point, string, []string, types.ID, *matching.Overrides) ([]matching.Candidate, error) {
	return f.candidates, f.err
}

type fakeWorkers struct {
	profiles map[types.ID]*worker.Profile
}

func (f *fakeWorkers) Get(_ context.Context, id types.ID) (*worker.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, worker.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeNotify struct {
	mu       sync.Mutex
	created  int
	accepted int
	rejected int
	err      error
}

func (f *fakeNotify) DispatchCreated(context.Context, types.ID, types.ID, float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return f.err
}

func (f *fakeNotify) DispatchAccepted(context.Context, types.ID, types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted++
	return f.err
}

func (f *fakeNotify) DispatchRejected(context.Context, types.ID, types.ID, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected++
	return f.err
}

func testOrder() *order.Order {
	return &order.Order{
		ID:              "order-1",
		EmployerID:      "employer-1",
		Title:           "Fix the sink",
		ServiceCategory: "plumbing",
		Location:        types.Point{Lat: 31.23, Lng: 121.47},
		Status:          order.StatusPending,
		DispatchStatus:  order.DispatchUnassigned,
		CreatedAt:       time.Now(),
	}
}

func testCandidate(id types.ID, score float64) matching.Candidate {
	return matching.Candidate{
		WorkerID: id,
		Name:     "Worker " + string(id),
		Distance: 500,
		Rating:   4.8,
		Score:    score,
	}
}

func newTestService(orders *fakeOrders, records *fakeRecords, m Matcher, w WorkerSource, n Notifier) *Service {
	return NewService(orders, records, m, w, n, zap.NewNop(), DefaultServiceConfig())
}

func TestAutoDispatch_Success(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{
		testCandidate("worker-1", 92.5),
		testCandidate("worker-2", 80.0),
	}}
	notify := &fakeNotify{}
	svc := newTestService(orders, records, matcher, nil, notify)

	res, err := svc.AutoDispatch(context.Background(), "order-1", "employer-1")
	if err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.WorkerID != "worker-1" {
		t.Errorf("worker = %s, want worker-1 (top candidate)", res.WorkerID)
	}

	o, _ := orders.Get(context.Background(), "order-1")
	if o.DispatchStatus != order.DispatchPendingAccept {
		t.Errorf("dispatch status = %s, want pending_accept", o.DispatchStatus)
	}

	all := records.all()
	if len(all) != 1 {
		t.Fatalf("records = %d, want 1", len(all))
	}
	rec := all[0]
	if rec.Type != TypeSystemAuto || rec.Status != StatusPending {
		t.Errorf("record type/status = %s/%s", rec.Type, rec.Status)
	}
	if rec.PriorityScore != 92.5 {
		t.Errorf("priority score = %v, want 92.5", rec.PriorityScore)
	}
	if deadline := rec.AcceptDeadline.Sub(rec.DispatchedAt); deadline != 5*time.Minute {
		t.Errorf("accept window = %v, want 5m", deadline)
	}
	if notify.created != 1 {
		t.Errorf("created notifications = %d, want 1", notify.created)
	}
}

func TestAutoDispatch_NoCandidates(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	svc := newTestService(orders, records, &fakeMatcher{}, nil, nil)

	res, err := svc.AutoDispatch(context.Background(), "order-1", "employer-1")
	if err != nil {
		t.Fatalf("empty candidate list must not be an error, got %v", err)
	}
	if res.Success {
		t.Fatal("expected typed failure result")
	}
	if res.Message == "" {
		t.Error("failure result should carry a message")
	}

	o, _ := orders.Get(context.Background(), "order-1")
	if o.DispatchStatus != order.DispatchUnassigned {
		t.Errorf("order must stay unassigned, got %s", o.DispatchStatus)
	}
	if len(records.all()) != 0 {
		t.Error("no record should be written when nothing matched")
	}
}

func TestAutoDispatch_Authorization(t *testing.T) {
	orders := newFakeOrders(testOrder())
	svc := newTestService(orders, newFakeRecords(), &fakeMatcher{}, nil, nil)

	if _, err := svc.AutoDispatch(context.Background(), "order-1", "someone-else"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.AutoDispatch(context.Background(), "missing", "employer-1"); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("err = %v, want order.ErrNotFound", err)
	}
}

func TestAutoDispatch_InvalidStates(t *testing.T) {
	ctx := context.Background()

	accepted := testOrder()
	accepted.Status = order.StatusAccepted
	accepted.DispatchStatus = order.DispatchAssigned

	pendingAccept := testOrder()
	pendingAccept.ID = "order-2"
	pendingAccept.DispatchStatus = order.DispatchPendingAccept

	orders := newFakeOrders(accepted, pendingAccept)
	svc := newTestService(orders, newFakeRecords(), &fakeMatcher{}, nil, nil)

	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("assigned order: err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.AutoDispatch(ctx, "order-2", "employer-1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pending-accept order: err = %v, want ErrInvalidState", err)
	}
}

func TestAutoDispatch_RecordFailureReleasesOrder(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	records.fail = true
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := newTestService(orders, records, matcher, nil, nil)

	if _, err := svc.AutoDispatch(context.Background(), "order-1", "employer-1"); err == nil {
		t.Fatal("expected error from record insert")
	}
	o, _ := orders.Get(context.Background(), "order-1")
	if o.DispatchStatus != order.DispatchUnassigned {
		t.Errorf("order must be released after insert failure, got %s", o.DispatchStatus)
	}
}

func TestManualDispatch_SentinelScore(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	loc := types.Point{Lat: 31.235, Lng: 121.47}
	workers := &fakeWorkers{profiles: map[types.ID]*worker.Profile{
		"worker-1": {
			UserID:        "worker-1",
			Name:          "Wang",
			OnlineStatus:  worker.StatusOnline,
			AccountStatus: worker.AccountActive,
			LastLocation:  &loc,
		},
	}}
	svc := newTestService(orders, records, &fakeMatcher{}, workers, nil)

	res, err := svc.ManualDispatch(context.Background(), "order-1", "worker-1", "employer-1")
	if err != nil {
		t.Fatalf("ManualDispatch: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	all := records.all()
	if len(all) != 1 {
		t.Fatalf("records = %d, want 1", len(all))
	}
	if all[0].Type != TypeManual {
		t.Errorf("type = %s, want manual", all[0].Type)
	}
	if all[0].PriorityScore != SentinelScore {
		t.Errorf("priority score = %v, want sentinel %v", all[0].PriorityScore, float64(SentinelScore))
	}
	if all[0].Distance <= 0 {
		t.Errorf("distance = %v, want > 0", all[0].Distance)
	}
}

func TestManualDispatch_UnavailableWorker(t *testing.T) {
	orders := newFakeOrders(testOrder())
	workers := &fakeWorkers{profiles: map[types.ID]*worker.Profile{
		"worker-1": {
			UserID:        "worker-1",
			OnlineStatus:  worker.StatusOffline,
			AccountStatus: worker.AccountActive,
		},
	}}
	svc := newTestService(orders, newFakeRecords(), &fakeMatcher{}, workers, nil)

	res, err := svc.ManualDispatch(context.Background(), "order-1", "worker-1", "employer-1")
	if err != nil {
		t.Fatalf("ManualDispatch: %v", err)
	}
	if res.Success {
		t.Fatal("offline worker must not be dispatched")
	}

	o, _ := orders.Get(context.Background(), "order-1")
	if o.DispatchStatus != order.DispatchUnassigned {
		t.Errorf("order must stay unassigned, got %s", o.DispatchStatus)
	}
}

func TestAccept_TargetedWorker(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	notify := &fakeNotify{}
	svc := newTestService(orders, records, matcher, nil, notify)

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}

	if err := svc.Accept(ctx, "order-1", "worker-1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	o, _ := orders.Get(ctx, "order-1")
	if o.Status != order.StatusAccepted || o.DispatchStatus != order.DispatchAssigned {
		t.Errorf("order status = %s/%s, want accepted/assigned", o.Status, o.DispatchStatus)
	}
	if o.WorkerID == nil || *o.WorkerID != "worker-1" {
		t.Errorf("worker not assigned: %v", o.WorkerID)
	}

	rec := records.all()[0]
	if rec.Status != StatusAccepted {
		t.Errorf("record status = %s, want accepted", rec.Status)
	}
	if notify.accepted != 1 {
		t.Errorf("accepted notifications = %d, want 1", notify.accepted)
	}
}

func TestAccept_WrongWorker(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := newTestService(orders, records, matcher, nil, nil)

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}
	if err := svc.Accept(ctx, "order-1", "worker-2"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestAccept_AfterDeadline(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := newTestService(orders, records, matcher, nil, nil)

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}

	// Backdate the deadline.
	records.mu.Lock()
	for _, r := range records.records {
		r.AcceptDeadline = time.Now().Add(-time.Second)
	}
	records.mu.Unlock()

	if err := svc.Accept(ctx, "order-1", "worker-1"); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("err = %v, want ErrDeadlinePassed", err)
	}

	rec := records.all()[0]
	if rec.Status != StatusExpired {
		t.Errorf("record status = %s, want expired", rec.Status)
	}
	o, _ := orders.Get(ctx, "order-1")
	if o.DispatchStatus != order.DispatchTimeout {
		t.Errorf("dispatch status = %s, want timeout", o.DispatchStatus)
	}
}

func TestAccept_SelfAccept(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	workers := &fakeWorkers{profiles: map[types.ID]*worker.Profile{
		"worker-9": {
			UserID:        "worker-9",
			OnlineStatus:  worker.StatusOnline,
			AccountStatus: worker.AccountActive,
		},
	}}
	svc := newTestService(orders, records, &fakeMatcher{}, workers, nil)

	ctx := context.Background()
	if err := svc.Accept(ctx, "order-1", "worker-9"); err != nil {
		t.Fatalf("self-accept: %v", err)
	}

	o, _ := orders.Get(ctx, "order-1")
	if o.Status != order.StatusAccepted || o.WorkerID == nil || *o.WorkerID != "worker-9" {
		t.Fatalf("order not assigned: %+v", o)
	}

	all := records.all()
	if len(all) != 1 {
		t.Fatalf("records = %d, want 1", len(all))
	}
	if all[0].Type != TypeWorkerAccept || all[0].Status != StatusAccepted {
		t.Errorf("record = %s/%s, want worker_accept/accepted", all[0].Type, all[0].Status)
	}
	if all[0].PriorityScore != SentinelScore {
		t.Errorf("priority score = %v, want sentinel", all[0].PriorityScore)
	}
}

func TestReject_AllowsReopen(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	notify := &fakeNotify{}
	svc := newTestService(orders, records, matcher, nil, notify)

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}
	if err := svc.Reject(ctx, "order-1", "worker-1", "too far"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	rec := records.all()[0]
	if rec.Status != StatusRejected {
		t.Errorf("record status = %s, want rejected", rec.Status)
	}
	if rec.RejectReason == nil || *rec.RejectReason != "too far" {
		t.Errorf("reject reason = %v", rec.RejectReason)
	}
	o, _ := orders.Get(ctx, "order-1")
	if o.DispatchStatus != order.DispatchRejected {
		t.Errorf("dispatch status = %s, want rejected", o.DispatchStatus)
	}
	if notify.rejected != 1 {
		t.Errorf("rejected notifications = %d, want 1", notify.rejected)
	}

	if err := svc.Reopen(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	o, _ = orders.Get(ctx, "order-1")
	if o.DispatchStatus != order.DispatchUnassigned {
		t.Errorf("dispatch status after reopen = %s, want unassigned", o.DispatchStatus)
	}

	// The order can be dispatched again after reopening.
	res, err := svc.AutoDispatch(ctx, "order-1", "employer-1")
	if err != nil || !res.Success {
		t.Fatalf("re-dispatch after reopen: res=%+v err=%v", res, err)
	}
}

func TestReject_NoPending(t *testing.T) {
	orders := newFakeOrders(testOrder())
	svc := newTestService(orders, newFakeRecords(), &fakeMatcher{}, nil, nil)

	if err := svc.Reject(context.Background(), "order-1", "worker-1", ""); !errors.Is(err, ErrNoPending) {
		t.Errorf("err = %v, want ErrNoPending", err)
	}
}

func TestCancelPending(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := newTestService(orders, records, matcher, nil, nil)

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}
	if err := svc.CancelPending(ctx, "order-1"); err != nil {
		t.Fatalf("CancelPending: %v", err)
	}
	if rec := records.all()[0]; rec.Status != StatusCanceled {
		t.Errorf("record status = %s, want canceled", rec.Status)
	}

	// Idempotent when nothing is pending.
	if err := svc.CancelPending(ctx, "order-1"); err != nil {
		t.Errorf("CancelPending with nothing pending: %v", err)
	}
}

func TestExpirySweep(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := newTestService(orders, records, matcher, nil, nil)

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}

	records.mu.Lock()
	for _, r := range records.records {
		r.AcceptDeadline = time.Now().Add(-time.Minute)
	}
	records.mu.Unlock()

	svc.sweepExpired(ctx)

	if rec := records.all()[0]; rec.Status != StatusExpired {
		t.Errorf("record status = %s, want expired", rec.Status)
	}
	o, _ := orders.Get(ctx, "order-1")
	if o.DispatchStatus != order.DispatchTimeout {
		t.Errorf("dispatch status = %s, want timeout", o.DispatchStatus)
	}

	// Expired is terminal, so a second sweep is a no-op.
	svc.sweepExpired(ctx)
	if rec := records.all()[0]; rec.Status != StatusExpired {
		t.Errorf("record status after second sweep = %s", rec.Status)
	}
}

func TestCandidatesForOrder_MissingOrderIsEmpty(t *testing.T) {
	orders := newFakeOrders()
	svc := newTestService(orders, newFakeRecords(), &fakeMatcher{}, nil, nil)

	got, err := svc.CandidatesForOrder(context.Background(), "nope", "employer-1")
	if err != nil {
		t.Fatalf("missing order must not error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("candidates = %d, want 0", len(got))
	}
}

func TestHistory_OwnerOnly(t *testing.T) {
	orders := newFakeOrders(testOrder())
	records := newFakeRecords()
	matcher := &fakeMatcher{candidates: []matching.Candidate{testCandidate("worker-1", 90)}}
	svc := newTestService(orders, records, matcher, nil, nil)

	ctx := context.Background()
	if _, err := svc.AutoDispatch(ctx, "order-1", "employer-1"); err != nil {
		t.Fatalf("AutoDispatch: %v", err)
	}

	got, err := svc.History(ctx, "order-1", "employer-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("history = %d records, want 1", len(got))
	}

	if _, err := svc.History(ctx, "order-1", "intruder"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}
