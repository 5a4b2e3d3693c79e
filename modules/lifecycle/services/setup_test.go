package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/velora-hq/velora-hcm/modules/core/domain/aggregates/user"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/rehireflag"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/termination"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/entities/notification"
	"github.com/velora-hq/velora-hcm/pkg/composables"
)

// fakeTx satisfies pgx.Tx so transactional wrappers join it instead of
// opening a pool transaction. All stores are mocked; no method runs.
type fakeTx struct{}

func (fakeTx) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(context.Context) error          { return nil }
func (fakeTx) Rollback(context.Context) error        { return nil }
func (fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (fakeTx) Conn() *pgx.Conn                                         { return nil }

func testContext(t *testing.T, tenantID uuid.UUID) context.Context {
	t.Helper()
	ctx := composables.WithTx(context.Background(), fakeTx{})
	return composables.WithTenantID(ctx, tenantID)
}

func contextWithCancel(t *testing.T, tenantID uuid.UUID) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(testContext(t, tenantID))
	return ctx, cancel
}

// mockRequestRepo emulates the store's compare-and-set semantics so
// conflict and idempotency paths behave like the real repository.
type mockRequestRepo struct {
	mu        sync.Mutex
	requests  map[uuid.UUID]*changerequest.ChangeRequest
	decisions []*changerequest.DecisionEntry
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: map[uuid.UUID]*changerequest.ChangeRequest{}}
}

func (m *mockRequestRepo) Create(_ context.Context, req *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.requests[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, changerequest.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *mockRequestRepo) GetPaginated(_ context.Context, params *changerequest.FindParams) ([]*changerequest.ChangeRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*changerequest.ChangeRequest
	for _, req := range m.requests {
		if params != nil && params.Kind != "" && req.Kind != params.Kind {
			continue
		}
		if params != nil && params.Status != "" && req.Status != params.Status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (m *mockRequestRepo) UpdatePayload(_ context.Context, id uuid.UUID, status changerequest.Status, payload json.RawMessage, effectiveDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != status {
		return changerequest.ErrStatusConflict
	}
	req.Payload = payload
	req.EffectiveDate = effectiveDate
	return nil
}

func (m *mockRequestRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to changerequest.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != from {
		return changerequest.ErrStatusConflict
	}
	req.Status = to
	return nil
}

func (m *mockRequestRepo) MarkApplied(_ context.Context, id uuid.UUID, status changerequest.Status, appliedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return changerequest.ErrNotFound
	}
	if req.Applied {
		return changerequest.ErrAlreadyApplied
	}
	if req.Status != status {
		return changerequest.ErrStatusConflict
	}
	req.Applied = true
	at := appliedAt
	req.AppliedAt = &at
	return nil
}

func (m *mockRequestRepo) AppendDecision(_ context.Context, entry *changerequest.DecisionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.decisions = append(m.decisions, &cp)
	return nil
}

func (m *mockRequestRepo) ListDecisions(_ context.Context, requestID uuid.UUID) ([]*changerequest.DecisionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*changerequest.DecisionEntry
	for _, d := range m.decisions {
		if d.RequestID == requestID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) ListDue(_ context.Context, asOf time.Time, limit int) ([]*changerequest.ChangeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*changerequest.ChangeRequest
	for _, req := range m.requests {
		if req.Applied || req.Status != changerequest.ApplicableStatus(req.Kind) {
			continue
		}
		if req.EffectiveDate.After(asOf) {
			continue
		}
		cp := *req
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockRequestRepo) decisionsFor(requestID uuid.UUID) []*changerequest.DecisionEntry {
	out, _ := m.ListDecisions(context.Background(), requestID)
	return out
}

type mockEmployeeRepo struct {
	byID    map[uuid.UUID]*employee.Employee
	updated []*employee.Employee
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{byID: map[uuid.UUID]*employee.Employee{}}
}

func (m *mockEmployeeRepo) add(e *employee.Employee) { m.byID[e.ID()] = e }

func (m *mockEmployeeRepo) GetPaginated(_ context.Context, _ *employee.FindParams) ([]*employee.Employee, int64, error) {
	return nil, 0, nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id uuid.UUID) (*employee.Employee, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, employee.ErrNotFound
	}
	return e, nil
}

func (m *mockEmployeeRepo) GetByPernr(_ context.Context, _ string) (*employee.Employee, error) {
	return nil, employee.ErrNotFound
}

func (m *mockEmployeeRepo) Create(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	m.add(e)
	return e, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, e *employee.Employee) error {
	m.updated = append(m.updated, e)
	m.byID[e.ID()] = e
	return nil
}

type mockTerminationRepo struct {
	latest map[uuid.UUID]*termination.Record
}

func newMockTerminationRepo() *mockTerminationRepo {
	return &mockTerminationRepo{latest: map[uuid.UUID]*termination.Record{}}
}

func (m *mockTerminationRepo) Latest(_ context.Context, subjectID uuid.UUID) (*termination.Record, error) {
	rec, ok := m.latest[subjectID]
	if !ok {
		return nil, termination.ErrNoRecord
	}
	return rec, nil
}

func (m *mockTerminationRepo) Record(_ context.Context, rec *termination.Record) (*termination.Record, error) {
	m.latest[rec.SubjectID] = rec
	return rec, nil
}

type mockRehireFlagRepo struct {
	flags map[uuid.UUID]*rehireflag.Flag
}

func newMockRehireFlagRepo() *mockRehireFlagRepo {
	return &mockRehireFlagRepo{flags: map[uuid.UUID]*rehireflag.Flag{}}
}

func (m *mockRehireFlagRepo) ActiveExists(_ context.Context, subjectID uuid.UUID, asOf time.Time) (bool, error) {
	f, ok := m.flags[subjectID]
	return ok && f.ActiveAt(asOf), nil
}

func (m *mockRehireFlagRepo) Raise(_ context.Context, f *rehireflag.Flag) (*rehireflag.Flag, error) {
	m.flags[f.SubjectID] = f
	return f, nil
}

func (m *mockRehireFlagRepo) Expire(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, f := range m.flags {
		if f.ID == id {
			f.ExpiresAt = &at
		}
	}
	return nil
}

type stubRoles struct {
	roles map[uuid.UUID][]user.Role
}

func (s *stubRoles) ResolveRoles(_ context.Context, actorID uuid.UUID) ([]user.Role, error) {
	roles, ok := s.roles[actorID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return roles, nil
}

type spyAudit struct {
	mu      sync.Mutex
	records []AuditRecord
}

func (s *spyAudit) Record(_ context.Context, rec AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *spyAudit) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.Action
	}
	return out
}

type spyNotifier struct {
	mu   sync.Mutex
	sent []notification.Category
}

func (s *spyNotifier) Notify(_ context.Context, _ uuid.UUID, _, _ string, category notification.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, category)
}
