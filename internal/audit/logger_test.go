package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleetia-access/internal/alert"
	"fleetia-access/internal/audit/domain"
)

// mockEventRepo implements the audit repository interface for tests.
type mockEventRepo struct {
	events    []*domain.SecurityEvent
	createErr error
}

func (m *mockEventRepo) Create(ctx context.Context, e *domain.SecurityEvent) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockEventRepo) ListRecent(ctx context.Context, limit int32) ([]*domain.SecurityEvent, error) {
	return m.events, nil
}

// mockEmitter records notifications and signals each emit.
type mockEmitter struct {
	mu      sync.Mutex
	emitted []*alert.Notification
	done    chan struct{}
}

func newMockEmitter() *mockEmitter {
	return &mockEmitter{done: make(chan struct{}, 8)}
}

func (m *mockEmitter) Emit(ctx context.Context, n *alert.Notification) error {
	m.mu.Lock()
	m.emitted = append(m.emitted, n)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *mockEmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.emitted)
}

func testMeta(ctx context.Context) (string, string) {
	return "192.168.1.1", "Mozilla/5.0"
}

func TestLogger_Record_Success(t *testing.T) {
	repo := &mockEventRepo{}
	logger := NewLogger(repo, testMeta, nil)

	logger.Record(context.Background(), Entry{
		EventType: domain.EventLogin,
		Severity:  domain.SeverityLow,
		Success:   true,
		UserID:    "user-1",
		Email:     "ana@example.com",
		Details:   map[string]any{"portal": "driver"},
	})

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	e := repo.events[0]
	if e.EventType != domain.EventLogin {
		t.Errorf("event_type = %q, want %q", e.EventType, domain.EventLogin)
	}
	if e.SourceAddress != "192.168.1.1" {
		t.Errorf("source_address = %q, want enriched value", e.SourceAddress)
	}
	if e.ClientAgent != "Mozilla/5.0" {
		t.Errorf("client_agent = %q, want enriched value", e.ClientAgent)
	}
	if !e.Success {
		t.Error("success should be true")
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Error("id and created_at should be set")
	}
}

func TestLogger_Record_NilMetaRecordsUnknown(t *testing.T) {
	repo := &mockEventRepo{}
	logger := NewLogger(repo, nil, nil)

	logger.Record(context.Background(), Entry{EventType: "x"})

	if repo.events[0].SourceAddress != "unknown" || repo.events[0].ClientAgent != "unknown" {
		t.Errorf("meta = %q/%q, want unknown/unknown",
			repo.events[0].SourceAddress, repo.events[0].ClientAgent)
	}
}

func TestLogger_Record_InvalidSeverityDefaultsLow(t *testing.T) {
	repo := &mockEventRepo{}
	logger := NewLogger(repo, testMeta, nil)

	logger.Record(context.Background(), Entry{EventType: "x", Severity: "shouting"})

	if repo.events[0].Severity != domain.SeverityLow {
		t.Errorf("severity = %q, want low", repo.events[0].Severity)
	}
}

func TestLogger_Record_SwallowsRepoError(t *testing.T) {
	repo := &mockEventRepo{createErr: errors.New("store down")}
	logger := NewLogger(repo, testMeta, nil)

	// Must not panic or propagate.
	logger.Record(context.Background(), Entry{EventType: "x"})
}

func TestLogger_Record_HighSeverityEmitsNotification(t *testing.T) {
	repo := &mockEventRepo{}
	emitter := newMockEmitter()
	logger := NewLogger(repo, testMeta, emitter)

	logger.Record(context.Background(), Entry{
		EventType: domain.EventSuspiciousActivity,
		Severity:  domain.SeverityHigh,
		UserID:    "user-1",
	})

	select {
	case <-emitter.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected async notification for high severity")
	}
	if emitter.count() != 1 {
		t.Fatalf("emitted = %d, want 1", emitter.count())
	}
}

func TestLogger_Record_LowSeverityDoesNotEmit(t *testing.T) {
	repo := &mockEventRepo{}
	emitter := newMockEmitter()
	logger := NewLogger(repo, testMeta, emitter)

	logger.Record(context.Background(), Entry{EventType: domain.EventLogin, Severity: domain.SeverityLow})
	logger.Record(context.Background(), Entry{EventType: "x", Severity: domain.SeverityMedium})

	select {
	case <-emitter.done:
		t.Fatal("low/medium severity should not notify")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSeverityHelpers(t *testing.T) {
	if !domain.SeverityCritical.Notifiable() || !domain.SeverityHigh.Notifiable() {
		t.Error("high and critical should be notifiable")
	}
	if domain.SeverityLow.Notifiable() || domain.SeverityMedium.Notifiable() {
		t.Error("low and medium should not be notifiable")
	}
	if domain.Severity("nope").Valid() {
		t.Error("unknown severity should be invalid")
	}
}
