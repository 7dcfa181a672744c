package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

func TestActivityLogRepository_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewActivityLogRepository(mock)

	resourceID := "cust-1"
	entry := domain.ActivityLog{
		ID:         "log-1",
		UserID:     "user-7",
		UserEmail:  "agent@example.com",
		UserName:   "Agent Seven",
		Action:     domain.ActionCreate,
		Resource:   "customers",
		ResourceID: &resourceID,
		Details:    map[string]any{"data": map[string]any{"name": "Ada"}},
		Timestamp:  time.Now().UTC(),
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		t.Fatalf("marshal details: %v", err)
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}

	mock.ExpectExec(`INSERT INTO admin\.activity_logs`).
		WithArgs(
			entry.ID,
			entry.UserID,
			entry.UserEmail,
			entry.UserName,
			string(entry.Action),
			entry.Resource,
			entry.ResourceID,
			details,
			metadata,
			entry.Timestamp,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivityLogRepository_ListWithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewActivityLogRepository(mock)

	ts := time.Now().UTC()
	details, _ := json.Marshal(map[string]any{"count": 5})

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "user_email", "user_name", "action", "resource", "resource_id", "details", "metadata", "ts",
	}).AddRow(
		"log-1", "user-7", "agent@example.com", "Agent Seven", "export", "customers", nil, details, []byte(nil), ts,
	)

	mock.ExpectQuery(`SELECT .+ FROM admin\.activity_logs WHERE user_id = \$1 AND resource = \$2 ORDER BY ts DESC LIMIT 10`).
		WithArgs("user-7", "customers").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), port.ActivityLogFilter{
		UserID:   "user-7",
		Resource: "customers",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Action != domain.ActionExport {
		t.Errorf("expected export action, got %s", entries[0].Action)
	}
	if entries[0].ResourceID != nil {
		t.Errorf("expected nil resource id, got %v", entries[0].ResourceID)
	}
	if entries[0].Details["count"] != float64(5) {
		t.Errorf("expected decoded details, got %v", entries[0].Details)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivityLogRepository_ListByResource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewActivityLogRepository(mock)

	ts := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "user_id", "user_email", "user_name", "action", "resource", "resource_id", "details", "metadata", "ts",
	}).
		AddRow("log-2", "mgr-1", "manager@example.com", "Manager One", "update", "customers", "cust-1", []byte(nil), []byte(nil), ts).
		AddRow("log-1", "user-7", "agent@example.com", "Agent Seven", "create", "customers", "cust-1", []byte(nil), []byte(nil), ts.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM admin\.activity_logs WHERE`).
		WithArgs("customers", "cust-1").
		WillReturnRows(rows)

	entries, err := repo.ListByResource(context.Background(), "customers", "cust-1")
	if err != nil {
		t.Fatalf("ListByResource returned error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "log-2" {
		t.Errorf("expected newest first, got %s", entries[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
