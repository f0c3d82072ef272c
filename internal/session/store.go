// Package session owns the client-side authentication state: the bearer token
// and the role it was issued for.
//
// A Store is the only component allowed to touch the durable Storage. Token and
// role are written and removed together, and a storage that holds only one of
// them reads as signed out.
package session

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/log"
)

// Role is the coarse privilege level attached to a session.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

// Session is a token together with its role. The zero value is "signed out".
type Session struct {
	Token string
	Role  Role
}

// Valid reports whether both halves of the session are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.Role != ""
}

// ChangeReason says why a session changed.
type ChangeReason string

const (
	ReasonLogin       ChangeReason = "login"
	ReasonLogout      ChangeReason = "logout"
	ReasonInvalidated ChangeReason = "invalidated"
)

// Change is delivered to OnChange subscribers after every write.
type Change struct {
	Reason  ChangeReason
	Session Session
}

// Store is the single source of truth for who is signed in.
//
// The generation counts established sessions. Requests record the generation
// they were sent under, and Invalidate ignores generations that a newer login
// has superseded.
type Store struct {
	mu         sync.Mutex
	storage    Storage
	generation uint64
	logger     *log.Logger

	listenersMu sync.Mutex
	listeners   map[int]func(Change)
	nextID      int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for storage failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a Store over storage.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:   storage,
		logger:    log.DefaultLogger(),
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set persists a new session. Token and role are validated and written
// together; if the second write fails the first is rolled back.
func (s *Store) Set(sess Session) error {
	if sess.Token == "" {
		return errors.New(errors.ErrCodeAuthInvalidCredentials, "session token is empty")
	}
	if _, ok := ParseRole(string(sess.Role)); !ok {
		return errors.New(errors.ErrCodeAuthUnexpectedRole, fmt.Sprintf("unexpected role %q", sess.Role))
	}

	s.mu.Lock()
	if err := s.storage.Set(KeyToken, sess.Token); err != nil {
		s.mu.Unlock()
		return errors.NewStorageWriteError(KeyToken, err)
	}
	if err := s.storage.Set(KeyRole, string(sess.Role)); err != nil {
		_ = s.storage.Remove(KeyToken)
		s.mu.Unlock()
		return errors.NewStorageWriteError(KeyRole, err)
	}
	s.generation++
	s.mu.Unlock()

	s.notify(Change{Reason: ReasonLogin, Session: sess})
	return nil
}

// Clear removes the token, the role and any cached profile. It is safe to
// call when nothing is stored.
func (s *Store) Clear() error {
	s.mu.Lock()
	err := s.clearLocked()
	s.mu.Unlock()

	s.notify(Change{Reason: ReasonLogout})
	return err
}

func (s *Store) clearLocked() error {
	var errs []error
	for _, key := range []string{KeyToken, KeyRole, KeyProfile} {
		if err := s.storage.Remove(key); err != nil {
			errs = append(errs, errors.NewStorageWriteError(key, err))
		}
	}
	return stderrors.Join(errs...)
}

// Invalidate clears the session if generation is still current and reports
// whether it did. Stale generations leave the newer session untouched, and a
// session that is already gone is not cleared again.
func (s *Store) Invalidate(generation uint64) bool {
	s.mu.Lock()
	if generation != s.generation || !s.loadLocked().Valid() {
		s.mu.Unlock()
		return false
	}
	if err := s.clearLocked(); err != nil {
		s.logger.WithError(err).Warn("failed to clear invalidated session")
	}
	s.mu.Unlock()

	s.notify(Change{Reason: ReasonInvalidated})
	return true
}

// Snapshot returns the current token and the generation it belongs to.
func (s *Store) Snapshot() (token string, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked().Token, s.generation
}

// Generation returns the number of sessions established by this Store.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Current returns the stored session, or the zero Session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() Session {
	token, okToken, err := s.storage.Get(KeyToken)
	if err != nil {
		s.logger.WithError(errors.NewStorageReadError(KeyToken, err)).Warn("session read failed")
		return Session{}
	}
	rawRole, okRole, err := s.storage.Get(KeyRole)
	if err != nil {
		s.logger.WithError(errors.NewStorageReadError(KeyRole, err)).Warn("session read failed")
		return Session{}
	}
	if !okToken || !okRole || token == "" {
		return Session{}
	}
	role, ok := ParseRole(rawRole)
	if !ok {
		return Session{}
	}
	return Session{Token: token, Role: role}
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	return s.Current().Token
}

// Role returns the session role, or "" when signed out.
func (s *Store) Role() Role {
	return s.Current().Role
}

// IsAuthenticated reports whether a token is stored. The token is not checked
// against the backend.
func (s *Store) IsAuthenticated() bool {
	return s.Current().Valid()
}

// IsAdmin reports whether the session role is ADMIN.
func (s *Store) IsAdmin() bool {
	return s.Role() == RoleAdmin
}

// IsUser reports whether the session role is USER.
func (s *Store) IsUser() bool {
	return s.Role() == RoleUser
}

// CacheProfile stores the raw profile document of the signed-in user.
func (s *Store) CacheProfile(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(KeyProfile, raw); err != nil {
		return errors.NewStorageWriteError(KeyProfile, err)
	}
	return nil
}

// CachedProfile returns the cached profile document, if any.
func (s *Store) CachedProfile() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.storage.Get(KeyProfile)
	if err != nil {
		return "", false
	}
	return raw, ok
}

// OnChange registers fn for every session change and returns a function that
// removes it. fn runs on the goroutine that made the change.
func (s *Store) OnChange(fn func(Change)) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.listenersMu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
