package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/velora-hcm/modules/hrm/domain/aggregates/employee"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/rehireflag"
	"github.com/velora-hq/velora-hcm/modules/hrm/domain/entities/termination"
	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
)

type eligibilityFixture struct {
	svc          *EligibilityService
	employees    *mockEmployeeRepo
	flags        *mockRehireFlagRepo
	terminations *mockTerminationRepo
	tenantID     uuid.UUID
	now          time.Time
}

func newEligibilityFixture(t *testing.T) *eligibilityFixture {
	t.Helper()
	f := &eligibilityFixture{
		employees:    newMockEmployeeRepo(),
		flags:        newMockRehireFlagRepo(),
		terminations: newMockTerminationRepo(),
		tenantID:     uuid.New(),
		now:          time.Date(2026, 8, 1, 15, 30, 0, 0, time.UTC),
	}
	f.svc = NewEligibilityService(f.employees, f.flags, f.terminations, 90)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *eligibilityFixture) subject(t *testing.T) *employee.Employee {
	t.Helper()
	e := employee.New(f.tenantID, "50001", "Ines", "Duarte", "ines@example.com")
	f.employees.add(e)
	return e
}

func (f *eligibilityFixture) terminated(subjectID uuid.UUID, daysAgo int, typ termination.Type) {
	lwd := f.now.AddDate(0, 0, -daysAgo)
	f.terminations.latest[subjectID] = &termination.Record{
		ID:             uuid.New(),
		TenantID:       f.tenantID,
		SubjectID:      subjectID,
		Type:           typ,
		LastWorkingDay: &lwd,
		RecordedAt:     lwd,
	}
}

func TestEligibility_UnknownSubject(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)

	v, err := f.svc.Evaluate(ctx, uuid.New())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictNeedsReview, v.Status)
	require.Equal(t, changerequest.ReasonUnknownSubject, v.ReasonCode)
}

func TestEligibility_ActiveFlagBeatsHistory(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	// Clean termination history 200 days back does not matter while a
	// no-expiry flag is active.
	f.terminated(subject.ID(), 200, termination.TypeOther)
	_, err := f.flags.Raise(ctx, &rehireflag.Flag{
		ID:        uuid.New(),
		TenantID:  f.tenantID,
		SubjectID: subject.ID(),
		Reason:    "misconduct",
	})
	require.NoError(t, err)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictIneligible, v.Status)
	require.Equal(t, changerequest.ReasonDoNotRehireFlag, v.ReasonCode)
}

func TestEligibility_ExpiredFlagIsIgnored(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	f.terminated(subject.ID(), 200, termination.TypeOther)
	expired := f.now.AddDate(0, 0, -10)
	_, err := f.flags.Raise(ctx, &rehireflag.Flag{
		ID:        uuid.New(),
		TenantID:  f.tenantID,
		SubjectID: subject.ID(),
		ExpiresAt: &expired,
	})
	require.NoError(t, err)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictEligible, v.Status)
}

func TestEligibility_NoTerminationRecord(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictNeedsReview, v.Status)
	require.Equal(t, changerequest.ReasonNoTerminationRecord, v.ReasonCode)
}

func TestEligibility_CoolOff(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	f.terminated(subject.ID(), 30, termination.TypeOther)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictNeedsReview, v.Status)
	require.Equal(t, changerequest.ReasonCoolOff, v.ReasonCode)
}

func TestEligibility_CoolOffBeatsCause(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	// Inside the cool-off window the verdict is needs_review even when
	// the termination was for cause; the cause rule runs later.
	f.terminated(subject.ID(), 30, termination.TypeCause)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictNeedsReview, v.Status)
	require.Equal(t, changerequest.ReasonCoolOff, v.ReasonCode)
}

func TestEligibility_MissingLastWorkingDayFailsCoolOff(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	f.terminations.latest[subject.ID()] = &termination.Record{
		ID:         uuid.New(),
		TenantID:   f.tenantID,
		SubjectID:  subject.ID(),
		Type:       termination.TypeOther,
		RecordedAt: f.now.AddDate(0, 0, -400),
	}

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictNeedsReview, v.Status)
	require.Equal(t, changerequest.ReasonCoolOff, v.ReasonCode)
}

func TestEligibility_TerminatedForCause(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	f.terminated(subject.ID(), 200, termination.TypeCause)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictIneligible, v.Status)
	require.Equal(t, changerequest.ReasonTerminatedForCause, v.ReasonCode)
}

func TestEligibility_Eligible(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	f.terminated(subject.ID(), 200, termination.TypeOther)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictEligible, v.Status)
	require.Empty(t, v.ReasonCode)
}

func TestEligibility_Deterministic(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	f.terminated(subject.ID(), 45, termination.TypeOther)

	first, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.svc.Evaluate(ctx, subject.ID())
		require.NoError(t, err)
		require.Equal(t, first.Status, again.Status)
		require.Equal(t, first.ReasonCode, again.ReasonCode)
	}
}

func TestEligibility_ExactCoolOffBoundary(t *testing.T) {
	f := newEligibilityFixture(t)
	ctx := testContext(t, f.tenantID)
	subject := f.subject(t)
	// Exactly 90 elapsed days satisfies a 90-day cool-off.
	f.terminated(subject.ID(), 90, termination.TypeOther)

	v, err := f.svc.Evaluate(ctx, subject.ID())
	require.NoError(t, err)
	require.Equal(t, changerequest.VerdictEligible, v.Status)
}
