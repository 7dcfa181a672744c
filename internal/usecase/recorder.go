package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

// ActivityRecorder is the best-effort audit sink. Record never blocks and
// never fails the triggering operation: entries flow through a bounded
// queue drained by a single background goroutine, and queue-full drops are
// counted and logged instead of propagated.
type ActivityRecorder struct {
	repo      port.ActivityLogRepository
	publisher port.EventPublisher
	logger    *zap.Logger
	queue     chan domain.ActivityLog
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	closed  bool
	dropped int64
}

// RecorderOptions tunes the recorder queue.
type RecorderOptions struct {
	QueueSize int
}

// NewActivityRecorder builds a recorder and starts its drain goroutine.
func NewActivityRecorder(repo port.ActivityLogRepository, publisher port.EventPublisher, logger *zap.Logger, opts RecorderOptions) *ActivityRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := opts.QueueSize
	if size <= 0 {
		size = 256
	}

	r := &ActivityRecorder{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		queue:     make(chan domain.ActivityLog, size),
		done:      make(chan struct{}),
	}

	go r.drain()

	return r
}

func (r *ActivityRecorder) drain() {
	defer close(r.done)
	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Insert(ctx, entry); err != nil {
			r.logger.Error("audit write failed",
				zap.String("log_id", entry.ID),
				zap.String("action", string(entry.Action)),
				zap.String("resource", entry.Resource),
				zap.Error(err),
			)
			cancel()
			continue
		}

		if r.publisher != nil {
			if err := r.publisher.PublishActivityRecorded(ctx, domain.ActivityRecordedEvent{
				LogID:      entry.ID,
				UserID:     entry.UserID,
				Action:     entry.Action,
				Resource:   entry.Resource,
				ResourceID: entry.ResourceID,
				RecordedAt: entry.Timestamp,
			}); err != nil {
				r.logger.Warn("audit event publish failed", zap.Error(err))
			}
		}
		cancel()
	}
}

// Close stops accepting entries and waits for the queue to drain, up to
// the context deadline.
func (r *ActivityRecorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.queue)
	})

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit queue drain: %w", ctx.Err())
	}
}

// Dropped reports how many entries were discarded because the queue was
// full.
func (r *ActivityRecorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Record enqueues an audit entry. Fire-and-forget: a full queue or a
// closed recorder drops the entry with a log line, never an error.
func (r *ActivityRecorder) Record(session domain.Session, action domain.ActionType, resource string, resourceID *string, details, metadata map[string]any) {
	entry := domain.ActivityLog{
		ID:         newLogID(),
		UserID:     session.UserID,
		UserEmail:  session.Email,
		UserName:   session.Name,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		Metadata:   metadata,
		Timestamp:  time.Now().UTC(),
	}

	// The lock covers the send attempt so a concurrent Close cannot
	// close the queue between the flag check and the send.
	r.mu.Lock()
	if r.closed {
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		r.logger.Warn("audit recorder closed, dropping entry",
			zap.String("action", string(action)),
			zap.String("resource", resource),
			zap.Int64("dropped_total", dropped),
		)
		return
	}

	select {
	case r.queue <- entry:
		r.mu.Unlock()
	default:
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		r.logger.Warn("audit queue full, dropping entry",
			zap.String("action", string(action)),
			zap.String("resource", resource),
			zap.Int64("dropped_total", dropped),
		)
	}
}

// LogCreate records creation of a resource record.
func (r *ActivityRecorder) LogCreate(session domain.Session, resource, resourceID string, data map[string]any) {
	r.Record(session, domain.ActionCreate, resource, &resourceID, map[string]any{"data": data}, nil)
}

// LogUpdate records a partial update: the submitted changes, the list of
// changed field names, and the previous record when available.
func (r *ActivityRecorder) LogUpdate(session domain.Session, resource, resourceID string, changes, previous map[string]any) {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := map[string]any{
		"changes": changes,
		"fields":  fields,
	}

	var metadata map[string]any
	if previous != nil {
		metadata = map[string]any{"previousData": previous}
	}

	r.Record(session, domain.ActionUpdate, resource, &resourceID, details, metadata)
}

// LogDelete records deletion, keeping a snapshot of the removed record
// when one could be fetched beforehand.
func (r *ActivityRecorder) LogDelete(session domain.Session, resource, resourceID string, deleted map[string]any) {
	var details map[string]any
	if deleted != nil {
		details = map[string]any{"deletedData": deleted}
	}
	r.Record(session, domain.ActionDelete, resource, &resourceID, details, nil)
}

// LogView records a read of a single record.
func (r *ActivityRecorder) LogView(session domain.Session, resource, resourceID string) {
	r.Record(session, domain.ActionView, resource, &resourceID, nil, nil)
}

// LogLogin records a sign-in with the client's user agent.
func (r *ActivityRecorder) LogLogin(session domain.Session, userAgent string) {
	r.Record(session, domain.ActionLogin, "auth", nil, map[string]any{
		"userAgent": userAgent,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil)
}

// LogLogout records a sign-out.
func (r *ActivityRecorder) LogLogout(session domain.Session) {
	r.Record(session, domain.ActionLogout, "auth", nil, nil, nil)
}

// LogExport records a data export of a resource collection.
func (r *ActivityRecorder) LogExport(session domain.Session, resource string, count int) {
	r.Record(session, domain.ActionExport, resource, nil, map[string]any{"count": count}, nil)
}

// LogImport records a data import into a resource collection.
func (r *ActivityRecorder) LogImport(session domain.Session, resource string, count int) {
	r.Record(session, domain.ActionImport, resource, nil, map[string]any{"count": count}, nil)
}

// LogSync records an external synchronization run.
func (r *ActivityRecorder) LogSync(session domain.Session, resource, source string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	details["source"] = source
	r.Record(session, domain.ActionSync, resource, nil, details, nil)
}

// LogStatusChange records a status transition on a record.
func (r *ActivityRecorder) LogStatusChange(session domain.Session, resource, resourceID, from, to string) {
	r.Record(session, domain.ActionStatusChange, resource, &resourceID, map[string]any{
		"from": from,
		"to":   to,
	}, nil)
}

func newLogID() string {
	return fmt.Sprintf("log-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
