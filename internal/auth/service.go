// Package auth implements the login, registration and logout flows on top of
// the session store and the backend gateway.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/felixgeelhaar/gemora/internal/gateway"
	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/metrics"
	"github.com/felixgeelhaar/gemora/internal/session"
)

// Service drives authentication. It is safe for concurrent use.
type Service struct {
	client  *gateway.Client
	store   *session.Store
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records login attempts into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a Service.
func NewService(client *gateway.Client, store *session.Store, opts ...Option) *Service {
	s := &Service{
		client: client,
		store:  store,
		logger: log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is the session a successful login established.
type LoginResult struct {
	Token string
	Role  session.Role
	// User is the profile document returned with the token, if any.
	User json.RawMessage
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string          `json:"token"`
	Role  string          `json:"role"`
	User  json.RawMessage `json:"user,omitempty"`
}

// Login authenticates email and password and persists the returned session.
// Invalid input fails without contacting the backend.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := ValidateLogin(email, password); err != nil {
		return nil, err
	}

	resp, err := s.client.Post(ctx, "/auth/login", credentials{Email: email, Password: password}, nil)
	if err != nil {
		s.observe("login", false)
		return nil, failure(err, MsgLoginFailed)
	}

	result, err := s.establish(resp, MsgLoginFailed)
	s.observe("login", err == nil)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "logged in", "role", string(result.Role))
	return result, nil
}

// Register creates an account and signs it in. When the backend answers
// without a token, Register logs in with the same credentials.
func (s *Service) Register(ctx context.Context, form *RegisterForm) (*LoginResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	body := gateway.Form{
		Fields: map[string]string{
			"name":          form.Name,
			"email":         form.Email,
			"password":      form.Password,
			"contactNumber": form.ContactNumber,
		},
	}
	for _, img := range form.images() {
		if img.image == nil {
			continue
		}
		body.Files = append(body.Files, gateway.FormFile{
			Field:       img.field,
			FileName:    img.image.FileName,
			ContentType: img.image.ContentType,
			Content:     bytes.NewReader(img.image.Data),
		})
	}

	resp, err := s.client.Upload(ctx, "/auth/register", body, nil)
	if err != nil {
		s.observe("register", false)
		return nil, failure(err, MsgRegisterFailed)
	}
	s.observe("register", true)

	var tr tokenResponse
	if err := resp.Decode(&tr); err == nil && tr.Token != "" {
		return s.establish(resp, MsgRegisterFailed)
	}

	s.logger.DebugContext(ctx, "registration returned no token, logging in")
	return s.Login(ctx, form.Email, form.Password)
}

// establish persists the token and role from a successful auth response.
// A response missing either half persists nothing.
func (s *Service) establish(resp *gateway.Response, fallback string) (*LoginResult, error) {
	var tr tokenResponse
	if err := resp.Decode(&tr); err != nil {
		return nil, &Error{Kind: gateway.KindServer, Message: fallback, Cause: err}
	}
	if tr.Token == "" {
		return nil, &Error{Kind: gateway.KindServer, Message: fallback}
	}
	role, ok := session.ParseRole(tr.Role)
	if !ok {
		s.logger.Warn("login response carried an unexpected role", "role", tr.Role)
		return nil, &Error{Kind: gateway.KindServer, Message: MsgUnexpectedResponse}
	}

	if err := s.store.Set(session.Session{Token: tr.Token, Role: role}); err != nil {
		return nil, &Error{Kind: gateway.KindRequest, Message: MsgRequestFailed, Cause: err}
	}
	if len(tr.User) > 0 && string(tr.User) != "null" {
		if err := s.store.CacheProfile(string(tr.User)); err != nil {
			s.logger.WithError(err).Warn("failed to cache profile")
		}
	}
	return &LoginResult{Token: tr.Token, Role: role, User: tr.User}, nil
}

func (s *Service) observe(flow string, success bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.Logins.WithLabelValues(flow, strconv.FormatBool(success)).Inc()
}

// Logout removes the session and the cached profile. It never contacts the
// backend and is safe to call when signed out.
func (s *Service) Logout() error {
	return s.store.Clear()
}

// Token returns the stored bearer token, or "".
func (s *Service) Token() string {
	return s.store.Token()
}

// Role returns the stored role, or "".
func (s *Service) Role() session.Role {
	return s.store.Role()
}

// IsAuthenticated reports whether a token is stored.
func (s *Service) IsAuthenticated() bool {
	return s.store.IsAuthenticated()
}

// IsAdmin reports whether the stored role is ADMIN.
func (s *Service) IsAdmin() bool {
	return s.store.IsAdmin()
}

// IsUser reports whether the stored role is USER.
func (s *Service) IsUser() bool {
	return s.store.IsUser()
}

// Store returns the underlying session store.
func (s *Service) Store() *session.Store {
	return s.store
}
