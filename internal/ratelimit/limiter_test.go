package ratelimit

import (
	"context"
	"testing"
	"time"

	"fleetia-access/internal/audit"
	auditdomain "fleetia-access/internal/audit/domain"
	"fleetia-access/internal/ratelimit/domain"
)

// fakeRecordRepo implements the rate-limit repository over a map.
type fakeRecordRepo struct {
	m map[string]*domain.Record
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{m: make(map[string]*domain.Record)}
}

func key(identifier, attemptType string) string { return identifier + "/" + attemptType }

func (f *fakeRecordRepo) Get(ctx context.Context, identifier, attemptType string) (*domain.Record, error) {
	r, ok := f.m[key(identifier, attemptType)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecordRepo) Create(ctx context.Context, r *domain.Record) error {
	cp := *r
	f.m[key(r.Identifier, r.AttemptType)] = &cp
	return nil
}

func (f *fakeRecordRepo) Update(ctx context.Context, r *domain.Record) error {
	cp := *r
	f.m[key(r.Identifier, r.AttemptType)] = &cp
	return nil
}

func (f *fakeRecordRepo) Delete(ctx context.Context, identifier, attemptType string) error {
	delete(f.m, key(identifier, attemptType))
	return nil
}

// fakeRecorder captures audit entries.
type fakeRecorder struct {
	entries []audit.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, e audit.Entry) {
	f.entries = append(f.entries, e)
}

func testLimiter(repo *fakeRecordRepo, rec audit.Recorder, now *time.Time) *Limiter {
	l := NewLimiter(repo, rec)
	l.nowF = func() time.Time { return *now }
	return l
}

func TestCheck_FirstAttemptCreatesAndAdmits(t *testing.T) {
	repo := newFakeRecordRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLimiter(repo, nil, &now)

	res, err := l.Check(context.Background(), "driver-7", AttemptLogin, LoginPolicy)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Allowed || res.Attempts != 1 || res.Remaining != 4 {
		t.Errorf("result = %+v, want allowed attempt 1 of 5", res)
	}
}

func TestCheck_IncrementsUntilLock(t *testing.T) {
	repo := newFakeRecordRepo()
	rec := &fakeRecorder{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLimiter(repo, rec, &now)
	ctx := context.Background()

	for i := 1; i < LoginPolicy.MaxAttempts; i++ {
		res, err := l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
		if err != nil {
			t.Fatalf("Check %d: %v", i, err)
		}
		if !res.Allowed || res.Attempts != i {
			t.Fatalf("attempt %d: result = %+v", i, res)
		}
	}

	// The triggering call locks for exactly now + lockout.
	res, err := l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Allowed {
		t.Fatal("attempt at max should be denied")
	}
	if res.LockedUntil == nil || !res.LockedUntil.Equal(now.Add(LoginPolicy.Lockout)) {
		t.Errorf("locked_until = %v, want %v", res.LockedUntil, now.Add(LoginPolicy.Lockout))
	}
	if len(rec.entries) != 1 || rec.entries[0].EventType != auditdomain.EventRateLimitExceeded {
		t.Fatalf("entries = %+v, want one rate_limit_exceeded", rec.entries)
	}
	if rec.entries[0].Severity != auditdomain.SeverityMedium {
		t.Errorf("severity = %q, want medium for credential lockout", rec.entries[0].Severity)
	}
}

func TestCheck_DeniedWhileLocked(t *testing.T) {
	repo := newFakeRecordRepo()
	rec := &fakeRecorder{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLimiter(repo, rec, &now)
	ctx := context.Background()

	for i := 0; i < LoginPolicy.MaxAttempts; i++ {
		l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	}
	now = now.Add(5 * time.Minute) // still inside the 15m lockout

	res, _ := l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	if res.Allowed {
		t.Fatal("locked identifier should be denied")
	}
	if res.LockedUntil == nil {
		t.Fatal("result should report the lock")
	}
	if len(rec.entries) != 2 {
		t.Errorf("lock rejection should emit an event, got %d entries", len(rec.entries))
	}
}

func TestCheck_ExpiredLockResetsWindow(t *testing.T) {
	repo := newFakeRecordRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLimiter(repo, nil, &now)
	ctx := context.Background()

	for i := 0; i < LoginPolicy.MaxAttempts; i++ {
		l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	}
	now = now.Add(LoginPolicy.Lockout + time.Second)

	res, err := l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Allowed || res.Attempts != 1 {
		t.Errorf("post-lockout result = %+v, want fresh window count 1", res)
	}
	stored, _ := repo.Get(ctx, "driver-7", AttemptLogin)
	if stored.LockedUntil != nil {
		t.Error("lock should be cleared after expiry")
	}
}

func TestCheck_WindowElapsesWithoutLock(t *testing.T) {
	repo := newFakeRecordRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLimiter(repo, nil, &now)
	ctx := context.Background()

	l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	now = now.Add(LoginPolicy.Window + time.Minute)

	res, _ := l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	if !res.Allowed || res.Attempts != 1 {
		t.Errorf("result after elapsed window = %+v, want count 1", res)
	}
}

func TestCheck_GlobalPolicyScenario(t *testing.T) {
	// 101st call for ip1_global within the window is denied with a high event.
	repo := newFakeRecordRepo()
	rec := &fakeRecorder{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLimiter(repo, rec, &now)
	ctx := context.Background()

	for i := 1; i < GlobalAPIPolicy.MaxAttempts; i++ {
		res, err := l.Check(ctx, "ip1_global", AttemptAPIRequest, GlobalAPIPolicy)
		if err != nil || !res.Allowed {
			t.Fatalf("call %d: res=%+v err=%v", i, res, err)
		}
	}
	res, _ := l.Check(ctx, "ip1_global", AttemptAPIRequest, GlobalAPIPolicy)
	if res.Allowed {
		t.Fatal("100th call should trip the lock")
	}
	res, _ = l.Check(ctx, "ip1_global", AttemptAPIRequest, GlobalAPIPolicy)
	if res.Allowed {
		t.Fatal("101st call within the window should be denied")
	}
	if len(rec.entries) == 0 || rec.entries[0].Severity != auditdomain.SeverityHigh {
		t.Fatalf("global throttle should emit high-severity events, got %+v", rec.entries)
	}
}

func TestReset_Idempotent(t *testing.T) {
	repo := newFakeRecordRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLimiter(repo, nil, &now)
	ctx := context.Background()

	l.Check(ctx, "driver-7", AttemptLogin, LoginPolicy)
	if err := l.Reset(ctx, "driver-7", AttemptLogin); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := l.Reset(ctx, "driver-7", AttemptLogin); err != nil {
		t.Fatalf("second Reset: %v", err)
	}
	stored, _ := repo.Get(ctx, "driver-7", AttemptLogin)
	if stored != nil {
		t.Error("record should be gone after reset")
	}
}

func TestPolicyFor(t *testing.T) {
	if PolicyFor(AttemptAdminLogin).MaxAttempts != 3 {
		t.Error("admin_login should map to the admin policy")
	}
	if PolicyFor(AttemptAPIRequest).MaxAttempts != 100 {
		t.Error("api_request should map to the global policy")
	}
	if PolicyFor("password_reset").MaxAttempts != 5 {
		t.Error("unknown attempt types should get the login policy")
	}
}
