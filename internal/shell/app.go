// Package shell holds the application state the portal pages share: the
// identity derived from the session and the current location in the route
// tree. It reacts to session changes and to gateway invalidations.
package shell

import (
	"sync"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/gateway"
	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/session"
)

// Navigation is delivered to OnNavigate subscribers.
type Navigation struct {
	From    string
	To      string
	Outcome Outcome
	// Invalidated is set when a rejected token forced the navigation.
	Invalidated bool
}

// App is the shell around the portal routes.
type App struct {
	logger *log.Logger

	mu          sync.Mutex
	identity    Identity
	location    string
	invalidated bool

	listenersMu sync.Mutex
	listeners   []func(Navigation)

	unsubscribe []func()
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// New creates an App seeded from store's current session. A nil client
// leaves invalidations unobserved.
func New(store *session.Store, client *gateway.Client, opts ...Option) *App {
	a := &App{
		logger:   log.DefaultLogger(),
		identity: IdentityOf(store.Current()),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.location, _ = Resolve("/", a.identity)

	a.unsubscribe = append(a.unsubscribe, store.OnChange(a.sessionChanged))
	if client != nil {
		a.unsubscribe = append(a.unsubscribe, client.OnInvalidated(a.invalidatedBy))
	}
	return a
}

// Close detaches the App from the store and the gateway.
func (a *App) Close() {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
}

// Identity returns the current identity.
func (a *App) Identity() Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity
}

// Location returns the current path.
func (a *App) Location() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

// Invalidated reports whether the session was rejected by the backend since
// the last successful login.
func (a *App) Invalidated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.invalidated
}

// OnNavigate registers fn for every location change.
func (a *App) OnNavigate(fn func(Navigation)) {
	a.listenersMu.Lock()
	a.listeners = append(a.listeners, fn)
	a.listenersMu.Unlock()
}

// Navigate moves to path, applying the route guards, and returns where the
// shell ended up.
func (a *App) Navigate(path string) (string, Outcome) {
	a.mu.Lock()
	target, outcome := Resolve(path, a.identity)
	nav := Navigation{From: a.location, To: target, Outcome: outcome}
	a.location = target
	a.mu.Unlock()

	a.notify(nav)
	return target, outcome
}

// Guard resolves path for the current identity and turns a redirect caused
// by missing or wrong credentials into an error. Commands call it before
// touching the backend.
func (a *App) Guard(path string) error {
	target, outcome := a.Navigate(path)
	switch outcome {
	case Unauthenticated:
		return errors.NewNotAuthenticatedError()
	case Forbidden:
		return errors.NewForbiddenError(path, string(a.Identity().Role))
	case Unknown:
		return errors.New(errors.ErrCodeHTTPNotFound, "no such page: "+path)
	}
	a.logger.Debug("navigated", "path", target)
	return nil
}

func (a *App) sessionChanged(c session.Change) {
	id := IdentityOf(c.Session)

	a.mu.Lock()
	a.identity = id
	if c.Reason == session.ReasonLogin {
		a.invalidated = false
	}
	a.mu.Unlock()

	if c.Reason == session.ReasonLogin {
		a.Navigate(Home(id.Role))
	}
	if c.Reason == session.ReasonLogout {
		a.Navigate(PathLogin)
	}
}

func (a *App) invalidatedBy(inv gateway.Invalidation) {
	a.logger.Info("session rejected by backend, returning to login",
		"method", inv.Method,
		"path", inv.Path,
	)

	a.mu.Lock()
	a.identity = Identity{}
	a.invalidated = true
	from := a.location
	a.location = PathLogin
	a.mu.Unlock()

	a.notify(Navigation{From: from, To: PathLogin, Outcome: Unauthenticated, Invalidated: true})
}

func (a *App) notify(nav Navigation) {
	a.listenersMu.Lock()
	fns := make([]func(Navigation), len(a.listeners))
	copy(fns, a.listeners)
	a.listenersMu.Unlock()

	for _, fn := range fns {
		fn(nav)
	}
}
