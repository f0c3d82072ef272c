package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/metrics"
	"github.com/felixgeelhaar/gemora/internal/portal"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	s, err := New(Config{
		Secret:     []byte("test-secret"),
		Seed:       true,
		BcryptCost: bcrypt.MinCost,
	}, opts...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server, email, password string) authResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/auth/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body messageBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	admin := login(t, s, SeedAdminEmail, SeedAdminPassword)
	assert.Equal(t, roleAdmin, admin.Role)
	assert.NotEmpty(t, admin.Token)
	assert.Equal(t, SeedAdminEmail, admin.User.Email)

	user := login(t, s, SeedUserEmail, SeedUserPassword)
	assert.Equal(t, roleUser, user.Role)

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", `{"email":"admin@gemora.lk","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", message(t, rec))

	rec = do(t, s, http.MethodPost, "/api/auth/login", "", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	user := login(t, s, SeedUserEmail, SeedUserPassword)

	expired, err := (&tokenIssuer{key: []byte("test-secret"), ttl: -time.Minute}).issue(1, roleAdmin, 0)
	require.NoError(t, err)
	forged, err := (&tokenIssuer{key: []byte("other-secret"), ttl: time.Hour}).issue(1, roleAdmin, 0)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Role:             roleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		target string
		want   int
	}{
		{"missing token", "", "/api/users/profile", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", "/api/users/profile", http.StatusUnauthorized},
		{"expired token", expired, "/api/users/profile", http.StatusUnauthorized},
		{"foreign signature", forged, "/api/users/profile", http.StatusUnauthorized},
		{"alg none", unsigned, "/api/users/profile", http.StatusUnauthorized},
		{"user on profile", user.Token, "/api/users/profile", http.StatusOK},
		{"user on admin route", user.Token, "/api/admin/users", http.StatusForbidden},
		{"user on tickets", user.Token, "/api/tickets/admin", http.StatusForbidden},
		{"user on search", user.Token, "/api/users/search?q=a", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, tt.token, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want != http.StatusOK {
				assert.NotEmpty(t, message(t, rec))
			}
		})
	}
}

func TestRevocation(t *testing.T) {
	s := newTestServer(t)
	user := login(t, s, SeedUserEmail, SeedUserPassword)

	id, ok := s.UserID(SeedUserEmail)
	require.True(t, ok)
	require.True(t, s.Revoke(id))

	rec := do(t, s, http.MethodGet, "/api/users/profile", user.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Session has been revoked", message(t, rec))

	assert.False(t, s.Revoke(9999))
}

func TestChangePasswordRevokesTokens(t *testing.T) {
	s := newTestServer(t)
	user := login(t, s, SeedUserEmail, SeedUserPassword)

	rec := do(t, s, http.MethodPost, "/api/users/change-password", user.Token,
		`{"currentPassword":"wrong","newPassword":"secret9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", message(t, rec))

	rec = do(t, s, http.MethodPost, "/api/users/change-password", user.Token,
		`{"currentPassword":"user123","newPassword":"secret9"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/users/profile", user.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	fresh := login(t, s, SeedUserEmail, "secret9")
	rec = do(t, s, http.MethodGet, "/api/users/profile", fresh.Token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeletedUserTokenRejected(t *testing.T) {
	s := newTestServer(t)
	admin := login(t, s, SeedAdminEmail, SeedAdminPassword)
	user := login(t, s, SeedUserEmail, SeedUserPassword)

	rec := do(t, s, http.MethodDelete, "/api/admin/users/"+itoa(user.User.ID), admin.Token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/users/profile", user.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/admin/users/"+itoa(admin.User.ID), admin.Token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/admin/users/9999", admin.Token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGemModeration(t *testing.T) {
	s := newTestServer(t)
	admin := login(t, s, SeedAdminEmail, SeedAdminPassword)

	rec := do(t, s, http.MethodGet, "/api/admin/gems/pending", admin.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []portal.Gem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 2)

	rec = do(t, s, http.MethodPut, "/api/admin/gems/"+itoa(pending[0].ID)+"/approve", admin.Token, "{}")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/admin/gems/"+itoa(pending[0].ID)+"/reject?reason=late", admin.Token, "{}")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/admin/gems/"+itoa(pending[1].ID)+"/reject?reason=No+certificate", admin.Token, "{}")
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected portal.Gem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	assert.Equal(t, portal.GemRejected, rejected.Status)
	assert.Equal(t, "No certificate", rejected.RejectionReason)

	rec = do(t, s, http.MethodGet, "/api/admin/gems/approved", admin.Token, "")
	var approved []portal.Gem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.Len(t, approved, 2)

	rec = do(t, s, http.MethodGet, "/api/admin/gems/pending", admin.Token, "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/admin/gems/abc/approve", admin.Token, "{}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/admin/gems/"+itoa(pending[1].ID), admin.Token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/admin/gems/"+itoa(pending[1].ID), admin.Token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketReply(t *testing.T) {
	s := newTestServer(t)
	admin := login(t, s, SeedAdminEmail, SeedAdminPassword)

	rec := do(t, s, http.MethodGet, "/api/tickets/admin", admin.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []portal.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	require.NotEmpty(t, tickets)
	assert.Equal(t, portal.TicketOpen, tickets[0].Status)

	target := "/api/tickets/admin/" + itoa(tickets[0].ID) + "/reply"
	rec = do(t, s, http.MethodPut, target, admin.Token, `{"adminReply":"Looking into it","status":"IN_PROGRESS"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var replied portal.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replied))
	assert.Equal(t, "Looking into it", replied.AdminReply)
	assert.Equal(t, portal.TicketInProgress, replied.Status)

	rec = do(t, s, http.MethodPut, target, admin.Token, `{"adminReply":"x","status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/tickets/admin/9999/reply", admin.Token, `{"adminReply":"x","status":"CLOSED"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchUsers(t *testing.T) {
	s := newTestServer(t)
	admin := login(t, s, SeedAdminEmail, SeedAdminPassword)

	rec := do(t, s, http.MethodGet, "/api/users/search?q=nimal", admin.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []portal.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, SeedUserEmail, users[0].Email)

	rec = do(t, s, http.MethodGet, "/api/users/search?q=nobody", admin.Token, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealthAndShutdown(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, s.IsShuttingDown())

	rec = do(t, s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", message(t, rec))
}

func TestRequestMetrics(t *testing.T) {
	reg, m := metrics.NewRegistry()
	s := newTestServer(t, WithMetrics(m, reg))

	do(t, s, http.MethodGet, "/healthz", "", "")
	do(t, s, http.MethodGet, "/api/users/profile", "", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServerRequests.WithLabelValues(http.MethodGet, "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServerRequests.WithLabelValues(http.MethodGet, "4xx")))

	rec := do(t, s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gemora_devserver_requests_total")
}

func TestNew_GeneratesSecret(t *testing.T) {
	s, err := New(Config{BcryptCost: bcrypt.MinCost}, WithLogger(log.Discard()))
	require.NoError(t, err)
	assert.Len(t, s.cfg.Secret, 32)
	assert.Equal(t, time.Hour, s.cfg.TokenTTL)

	rec := do(t, s, http.MethodGet, "/api/admin/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
