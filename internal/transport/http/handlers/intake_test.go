package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/repository"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

type intakeDeliveryStore struct {
	created   []domain.WebhookDelivery
	createErr error
}

func (s *intakeDeliveryStore) Create(_ context.Context, delivery domain.WebhookDelivery) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, delivery)
	return nil
}

func (s *intakeDeliveryStore) GetByID(context.Context, string) (*domain.WebhookDelivery, error) {
	return nil, repository.ErrNotFound
}

func (s *intakeDeliveryStore) Update(context.Context, domain.WebhookDelivery) error {
	return nil
}

func (s *intakeDeliveryStore) List(context.Context, port.WebhookFilter) ([]domain.WebhookDelivery, error) {
	return nil, nil
}

type intakeConfigStore struct {
	configs map[string]domain.WebhookEventConfig
}

func (s *intakeConfigStore) GetBySourceEvent(_ context.Context, source, event string) (*domain.WebhookEventConfig, error) {
	cfg, ok := s.configs[source+"/"+event]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cfg, nil
}

func (s *intakeConfigStore) List(context.Context) ([]domain.WebhookEventConfig, error) {
	out := make([]domain.WebhookEventConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, cfg)
	}
	return out, nil
}

func newIntakeRouter(deliveries *intakeDeliveryStore, configs *intakeConfigStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracker := usecase.NewWebhookTracker(deliveries, configs, nil, nil, 3)
	handler := NewIntakeHandler(tracker, nil)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/hooks"))
	return router
}

func TestIntakeHandler_AcceptsKnownEvent(t *testing.T) {
	deliveries := &intakeDeliveryStore{}
	configs := &intakeConfigStore{configs: map[string]domain.WebhookEventConfig{
		"stripe/payment.succeeded": {ID: "cfg-1", Source: "stripe", Event: "payment.succeeded", Enabled: true},
	}}
	router := newIntakeRouter(deliveries, configs)

	body := `{"amount": 4200, "currency": "usd"}`
	req := httptest.NewRequest(http.MethodPost, "/hooks/stripe/payment.succeeded", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer sk_live_secret")
	req.Header.Set("Cookie", "session=abc")
	req.Header.Set("X-Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	var resp IntakeAcceptedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" {
		t.Error("expected a delivery id in the response")
	}
	if resp.Status != string(domain.DeliveryPending) {
		t.Errorf("status = %q, want %q", resp.Status, domain.DeliveryPending)
	}

	if len(deliveries.created) != 1 {
		t.Fatalf("stored %d deliveries, want 1", len(deliveries.created))
	}
	stored := deliveries.created[0]
	if stored.Payload["currency"] != "usd" {
		t.Errorf("payload currency = %v, want usd", stored.Payload["currency"])
	}
	if _, ok := stored.Headers["Authorization"]; ok {
		t.Error("Authorization header must not be persisted")
	}
	if _, ok := stored.Headers["Cookie"]; ok {
		t.Error("Cookie header must not be persisted")
	}
	if stored.Headers["X-Stripe-Signature"] != "t=1,v1=deadbeef" {
		t.Errorf("signature header = %v, want preserved", stored.Headers["X-Stripe-Signature"])
	}
}

func TestIntakeHandler_EmptyBodyIsAccepted(t *testing.T) {
	deliveries := &intakeDeliveryStore{}
	configs := &intakeConfigStore{configs: map[string]domain.WebhookEventConfig{
		"crm/ping": {ID: "cfg-2", Source: "crm", Event: "ping", Enabled: true},
	}}
	router := newIntakeRouter(deliveries, configs)

	req := httptest.NewRequest(http.MethodPost, "/hooks/crm/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if len(deliveries.created) != 1 {
		t.Fatalf("stored %d deliveries, want 1", len(deliveries.created))
	}
}

func TestIntakeHandler_Rejections(t *testing.T) {
	configs := &intakeConfigStore{configs: map[string]domain.WebhookEventConfig{
		"stripe/payment.succeeded": {ID: "cfg-1", Source: "stripe", Event: "payment.succeeded", Enabled: true},
		"stripe/charge.disputed":   {ID: "cfg-3", Source: "stripe", Event: "charge.disputed", Enabled: false},
	}}

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "unknown event",
			path:       "/hooks/stripe/unknown.event",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "disabled event",
			path:       "/hooks/stripe/charge.disputed",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid JSON payload",
			path:       "/hooks/stripe/payment.succeeded",
			body:       `{"broken":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deliveries := &intakeDeliveryStore{}
			router := newIntakeRouter(deliveries, configs)

			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(http.MethodPost, tt.path, body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(deliveries.created) != 0 {
				t.Errorf("stored %d deliveries, want 0", len(deliveries.created))
			}
		})
	}
}

func TestIntakeHandler_StoreFailureReturns5xx(t *testing.T) {
	deliveries := &intakeDeliveryStore{createErr: errors.New("connection refused")}
	configs := &intakeConfigStore{configs: map[string]domain.WebhookEventConfig{
		"stripe/payment.succeeded": {ID: "cfg-1", Source: "stripe", Event: "payment.succeeded", Enabled: true},
	}}
	router := newIntakeRouter(deliveries, configs)

	req := httptest.NewRequest(http.MethodPost, "/hooks/stripe/payment.succeeded", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
