package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

type activityRepoMock struct {
	mu        sync.Mutex
	entries   []domain.ActivityLog
	insertErr error
	listErr   error
	// blockCh, when set, makes Insert wait until the channel is closed.
	blockCh chan struct{}
}

func (m *activityRepoMock) Insert(_ context.Context, entry domain.ActivityLog) error {
	if m.blockCh != nil {
		<-m.blockCh
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *activityRepoMock) List(_ context.Context, filter port.ActivityLogFilter) ([]domain.ActivityLog, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ActivityLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		entry := m.entries[i]
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}
		if filter.Resource != "" && entry.Resource != filter.Resource {
			continue
		}
		if filter.Action != "" && string(entry.Action) != filter.Action {
			continue
		}
		out = append(out, entry)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *activityRepoMock) ListByResource(_ context.Context, resource, resourceID string) ([]domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ActivityLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		entry := m.entries[i]
		if entry.Resource != resource {
			continue
		}
		if entry.ResourceID == nil || *entry.ResourceID != resourceID {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (m *activityRepoMock) stored() []domain.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ActivityLog, len(m.entries))
	copy(out, m.entries)
	return out
}

type publisherMock struct {
	mu         sync.Mutex
	activity   []domain.ActivityRecordedEvent
	received   []domain.WebhookReceivedEvent
	statuses   []domain.WebhookStatusChangedEvent
	publishErr error
}

func (m *publisherMock) PublishActivityRecorded(_ context.Context, event domain.ActivityRecordedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.activity = append(m.activity, event)
	return nil
}

func (m *publisherMock) PublishWebhookReceived(_ context.Context, event domain.WebhookReceivedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.received = append(m.received, event)
	return nil
}

func (m *publisherMock) PublishWebhookStatusChanged(_ context.Context, event domain.WebhookStatusChangedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.statuses = append(m.statuses, event)
	return nil
}

func (m *publisherMock) activityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activity)
}

func drainRecorder(t *testing.T, recorder *ActivityRecorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := recorder.Close(ctx); err != nil {
		t.Fatalf("drain recorder: %v", err)
	}
}

func TestActivityRecorder_RecordsExactlyOneEntry(t *testing.T) {
	repo := &activityRepoMock{}
	recorder := NewActivityRecorder(repo, nil, zaptest.NewLogger(t), RecorderOptions{QueueSize: 8})

	recorder.LogCreate(agentSession(), "customers", "cust-1", map[string]any{"name": "Ada"})
	drainRecorder(t, recorder)

	entries := repo.stored()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Action != domain.ActionCreate {
		t.Errorf("expected create action, got %s", entry.Action)
	}
	if entry.Resource != "customers" {
		t.Errorf("expected customers resource, got %s", entry.Resource)
	}
	if entry.ResourceID == nil || *entry.ResourceID != "cust-1" {
		t.Errorf("expected resource id cust-1, got %v", entry.ResourceID)
	}
	if entry.UserID != "user-7" || entry.UserEmail != "agent@example.com" {
		t.Errorf("expected session identity on the entry, got %s/%s", entry.UserID, entry.UserEmail)
	}
	if entry.ID == "" {
		t.Error("expected a generated log id")
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected a populated timestamp")
	}
}

func TestActivityRecorder_UpdateDiffShape(t *testing.T) {
	repo := &activityRepoMock{}
	recorder := NewActivityRecorder(repo, nil, zaptest.NewLogger(t), RecorderOptions{QueueSize: 8})

	recorder.LogUpdate(managerSession(), "customers", "cust-9",
		map[string]any{"status": "active"},
		map[string]any{"status": "pending", "name": "Ada"},
	)
	drainRecorder(t, recorder)

	entries := repo.stored()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}

	details := entries[0].Details
	fields, ok := details["fields"].([]string)
	if !ok || len(fields) != 1 || fields[0] != "status" {
		t.Errorf("expected fields [status], got %v", details["fields"])
	}

	changes, ok := details["changes"].(map[string]any)
	if !ok || changes["status"] != "active" {
		t.Errorf("expected changes.status=active, got %v", details["changes"])
	}

	metadata := entries[0].Metadata
	previous, ok := metadata["previousData"].(map[string]any)
	if !ok || previous["status"] != "pending" {
		t.Errorf("expected previousData snapshot, got %v", metadata)
	}
}

func TestActivityRecorder_LoginCapturesUserAgent(t *testing.T) {
	repo := &activityRepoMock{}
	recorder := NewActivityRecorder(repo, nil, zaptest.NewLogger(t), RecorderOptions{QueueSize: 8})

	recorder.LogLogin(agentSession(), "Mozilla/5.0 test-agent")
	drainRecorder(t, recorder)

	entries := repo.stored()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Action != domain.ActionLogin {
		t.Errorf("expected login action, got %s", entries[0].Action)
	}
	if entries[0].Details["userAgent"] != "Mozilla/5.0 test-agent" {
		t.Errorf("expected user agent in details, got %v", entries[0].Details)
	}
	if entries[0].ResourceID != nil {
		t.Error("expected no resource id on login entries")
	}
}

func TestActivityRecorder_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	block := make(chan struct{})
	repo := &activityRepoMock{blockCh: block}
	recorder := NewActivityRecorder(repo, nil, zaptest.NewLogger(t), RecorderOptions{QueueSize: 1})

	// With a queue of one and the drain goroutine blocked in Insert, at
	// most two entries can be in flight; the rest must be dropped.
	for i := 0; i < 5; i++ {
		recorder.LogLogout(agentSession())
	}

	if recorder.Dropped() < 3 {
		t.Errorf("expected at least 3 dropped entries, got %d", recorder.Dropped())
	}

	close(block)
	drainRecorder(t, recorder)

	if len(repo.stored()) > 2 {
		t.Errorf("expected at most 2 stored entries, got %d", len(repo.stored()))
	}
}

func TestActivityRecorder_MirrorsEntriesToPublisher(t *testing.T) {
	repo := &activityRepoMock{}
	publisher := &publisherMock{}
	recorder := NewActivityRecorder(repo, publisher, zaptest.NewLogger(t), RecorderOptions{QueueSize: 8})

	recorder.LogExport(adminSession(), "customers", 42)
	recorder.LogImport(adminSession(), "customers", 7)
	drainRecorder(t, recorder)

	if publisher.activityCount() != 2 {
		t.Errorf("expected 2 published events, got %d", publisher.activityCount())
	}
}

func TestActivityRecorder_PublishFailureDoesNotLoseEntries(t *testing.T) {
	repo := &activityRepoMock{}
	publisher := &publisherMock{publishErr: errors.New("broker down")}
	recorder := NewActivityRecorder(repo, publisher, zaptest.NewLogger(t), RecorderOptions{QueueSize: 8})

	recorder.LogView(adminSession(), "customers", "cust-1")
	drainRecorder(t, recorder)

	if len(repo.stored()) != 1 {
		t.Fatalf("expected stored entry despite publish failure, got %d", len(repo.stored()))
	}
}

func TestActivityRecorder_RecordAfterCloseDropsQuietly(t *testing.T) {
	repo := &activityRepoMock{}
	recorder := NewActivityRecorder(repo, nil, zaptest.NewLogger(t), RecorderOptions{QueueSize: 8})

	recorder.LogView(agentSession(), "customers", "cust-1")
	drainRecorder(t, recorder)

	// A late caller must get a silent drop, not a panic.
	recorder.LogView(agentSession(), "customers", "cust-2")

	if len(repo.stored()) != 1 {
		t.Errorf("expected only the pre-close entry stored, got %d", len(repo.stored()))
	}
	if recorder.Dropped() != 1 {
		t.Errorf("expected the post-close entry counted as dropped, got %d", recorder.Dropped())
	}
}

func TestActivityRecorder_InsertFailureNeverPropagates(t *testing.T) {
	repo := &activityRepoMock{insertErr: errors.New("db down")}
	recorder := NewActivityRecorder(repo, nil, zaptest.NewLogger(t), RecorderOptions{QueueSize: 8})

	// Record must stay fire-and-forget even when the store is broken.
	recorder.LogDelete(adminSession(), "customers", "cust-1", map[string]any{"name": "Ada"})
	drainRecorder(t, recorder)

	if len(repo.stored()) != 0 {
		t.Errorf("expected no stored entries, got %d", len(repo.stored()))
	}
}
