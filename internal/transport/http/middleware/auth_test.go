package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims sessionClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func sessionRouter(captured *domain.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireSession(testSecret), func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		*captured = session
		c.Status(http.StatusOK)
	})
	return r
}

func validClaims() sessionClaims {
	return sessionClaims{
		Email: "agent@example.com",
		Name:  "Agent Seven",
		Role:  "agent",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestRequireSession_ValidToken(t *testing.T) {
	var session domain.Session
	router := sessionRouter(&session)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), testSecret))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if session.UserID != "user-7" || session.Role != "agent" {
		t.Errorf("unexpected session %+v", session)
	}
	if session.Email != "agent@example.com" || session.Name != "Agent Seven" {
		t.Errorf("expected profile claims carried over, got %+v", session)
	}
}

func TestRequireSession_Rejections(t *testing.T) {
	var session domain.Session
	router := sessionRouter(&session)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noSubject := validClaims()
	noSubject.Subject = ""

	noRole := validClaims()
	noRole.Role = ""

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc123"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "wrong secret", header: "Bearer " + signToken(t, validClaims(), "other-secret")},
		{name: "expired token", header: "Bearer " + signToken(t, expired, testSecret)},
		{name: "missing subject", header: "Bearer " + signToken(t, noSubject, testSecret)},
		{name: "missing role", header: "Bearer " + signToken(t, noRole, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}
