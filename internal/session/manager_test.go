package session

import (
	"context"
	"testing"
	"time"

	"fleetia-access/internal/security"
	"fleetia-access/internal/session/domain"
)

// fakeSessionRepo implements the session repository over maps.
type fakeSessionRepo struct {
	byID map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	for _, s := range f.byID {
		if s.SessionToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	for _, s := range f.byID {
		if s.RefreshToken == refreshToken {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range f.byID {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	for id, s := range f.byID {
		if s.SessionToken == token {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessionRepo) UpdateLastActivity(ctx context.Context, id string, at time.Time) error {
	if s, ok := f.byID[id]; ok {
		s.LastActivityAt = at
	}
	return nil
}

func (f *fakeSessionRepo) UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error {
	if s, ok := f.byID[id]; ok {
		s.AccessToken = accessToken
		t := expiresAt
		s.AccessTokenExpiresAt = &t
	}
	return nil
}

func testManager(repo *fakeSessionRepo, now *time.Time) *Manager {
	m := NewManager(repo, 24*time.Hour)
	m.nowF = func() time.Time { return *now }
	return m
}

func driverInput() CreateInput {
	return CreateInput{
		Subject: security.Subject{
			UserID:   "user-1",
			FullName: "Ana Rivera",
			Email:    "ana@example.com",
			Role:     "driver",
			UserType: "driver",
			DriverID: "drv-9",
		},
		SourceAddress: "10.0.0.1",
		ClientAgent:   "Mozilla/5.0 (Windows NT 10.0)",
		Locale:        "en-US",
	}
}

func TestCreate_StoresSnapshotAndFingerprint(t *testing.T) {
	repo := newFakeSessionRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testManager(repo, &now)

	s, err := m.Create(context.Background(), driverInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.SessionToken == "" || len(s.SessionToken) != 64 {
		t.Errorf("session token = %q, want 64-char opaque token", s.SessionToken)
	}
	want := security.DeriveFingerprint("10.0.0.1", "Mozilla/5.0 (Windows NT 10.0)", "en-US")
	if s.Fingerprint != want {
		t.Errorf("fingerprint = %q, want derived value", s.Fingerprint)
	}
	if !s.ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("expires_at = %v, want now+24h", s.ExpiresAt)
	}
	if s.UserID != "user-1" || s.DriverID != "drv-9" {
		t.Errorf("subject snapshot = %q/%q", s.UserID, s.DriverID)
	}
}

func TestValidate_DistinctFailureCauses(t *testing.T) {
	repo := newFakeSessionRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testManager(repo, &now)
	ctx := context.Background()

	if _, err := m.Validate(ctx, ""); err != ErrNoToken {
		t.Errorf("empty token: err = %v, want ErrNoToken", err)
	}
	if _, err := m.Validate(ctx, "bogus"); err != ErrInvalidSession {
		t.Errorf("unknown token: err = %v, want ErrInvalidSession", err)
	}

	s, _ := m.Create(ctx, driverInput())
	if _, err := m.Validate(ctx, s.SessionToken); err != nil {
		t.Errorf("live session: err = %v", err)
	}

	now = now.Add(25 * time.Hour)
	if _, err := m.Validate(ctx, s.SessionToken); err != ErrSessionExpired {
		t.Errorf("expired session: err = %v, want ErrSessionExpired", err)
	}
	// Eager deletion: the row is gone, so the next lookup is invalid, not expired.
	if _, err := m.Validate(ctx, s.SessionToken); err != ErrInvalidSession {
		t.Errorf("after eager delete: err = %v, want ErrInvalidSession", err)
	}
}

func TestHeartbeat_CoalescesWrites(t *testing.T) {
	repo := newFakeSessionRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testManager(repo, &now)
	ctx := context.Background()

	s, _ := m.Create(ctx, driverInput())
	created := s.LastActivityAt

	now = now.Add(2 * time.Minute)
	if err := m.Heartbeat(ctx, s); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	stored, _ := repo.GetByID(ctx, s.ID)
	if !stored.LastActivityAt.Equal(created) {
		t.Error("heartbeat within 5m should not write")
	}

	now = now.Add(4 * time.Minute) // 6m since stored value
	if err := m.Heartbeat(ctx, s); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	stored, _ = repo.GetByID(ctx, s.ID)
	if !stored.LastActivityAt.Equal(now) {
		t.Errorf("stale heartbeat should persist: stored = %v, want %v", stored.LastActivityAt, now)
	}
}

func TestListActive_FlagsExpiredAndClassifiesDevices(t *testing.T) {
	repo := newFakeSessionRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := testManager(repo, &now)
	ctx := context.Background()

	live, _ := m.Create(ctx, driverInput())

	in := driverInput()
	in.ClientAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile/15E148"
	stale, _ := m.Create(ctx, in)
	// Force the second row past expiry.
	repo.byID[stale.ID].ExpiresAt = now.Add(-time.Hour)

	list, err := m.ListActive(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d rows, want 2 (expired rows must not be hidden)", len(list))
	}
	byID := map[string]*domain.ActiveSession{list[0].ID: list[0], list[1].ID: list[1]}
	if byID[live.ID].IsExpired {
		t.Error("live session flagged expired")
	}
	if !byID[stale.ID].IsExpired {
		t.Error("expired session not flagged")
	}
	if byID[live.ID].DeviceCategory != DeviceDesktop {
		t.Errorf("desktop agent classified as %q", byID[live.ID].DeviceCategory)
	}
	if byID[stale.ID].DeviceCategory != DeviceMobile {
		t.Errorf("iPhone agent classified as %q", byID[stale.ID].DeviceCategory)
	}
}

func TestResolvePortal(t *testing.T) {
	cases := []struct {
		role, userType string
		want           domain.Portal
	}{
		{"admin", "staff", domain.PortalAdmin},
		{"admin", "driver", domain.PortalAdmin}, // admin role wins; never two portals
		{"user", "driver", domain.PortalDriver},
		{"user", "student", domain.PortalStudent},
		{"user", "", domain.PortalUnknown},
		{"", "", domain.PortalUnknown},
	}
	for _, c := range cases {
		if got := ResolvePortal(c.role, c.userType); got != c.want {
			t.Errorf("ResolvePortal(%q, %q) = %q, want %q", c.role, c.userType, got, c.want)
		}
	}
}

func TestClassifyAgent(t *testing.T) {
	cases := map[string]string{
		"":                                    DeviceUnknown,
		"Mozilla/5.0 (iPad; CPU OS 16_0)":     DeviceTablet,
		"Mozilla/5.0 (Linux; Android 14)":     DeviceMobile,
		"Mozilla/5.0 (Macintosh; Intel)":      DeviceDesktop,
		"Mozilla/5.0 (X11; Linux x86_64)":     DeviceDesktop,
		"SomeBot/1.0":                         DeviceUnknown,
		"Mozilla/5.0 (Android; Tablet; rv:1)": DeviceTablet,
	}
	for agent, want := range cases {
		if got := ClassifyAgent(agent); got != want {
			t.Errorf("ClassifyAgent(%q) = %q, want %q", agent, got, want)
		}
	}
}
