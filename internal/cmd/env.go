package cmd

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/auth"
	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/gateway"
	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/portal"
	"github.com/felixgeelhaar/gemora/internal/session"
	"github.com/felixgeelhaar/gemora/internal/shell"
	"github.com/felixgeelhaar/gemora/internal/tui"
	"github.com/felixgeelhaar/gemora/internal/ux"
)

// env is everything a portal command needs: the session store over the
// configured storage, the gateway client, and the services built on them.
type env struct {
	cmd      *cobra.Command
	ctx      *CommandContext
	settings Settings
	logger   *log.Logger

	store  *session.Store
	client *gateway.Client
	auth   *auth.Service
	portal *portal.Services
	app    *shell.App

	closer io.Closer
	stderr *syncWriter
}

// syncWriter serializes writes from commands and from transfer progress
// callbacks, which run on the transport's goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}
	cfg := run.config
	if cfg == nil {
		cfg = defaultGemoraConfig()
	}
	s := resolveSettings(cfg, cc)

	if s.StorageBackend != session.BackendMemory {
		if err := (&ux.PathDefaults{HomeDir: s.Home}).EnsureHome(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreOpen, "failed to create home directory", err)
		}
	}

	storage, closer, err := session.Open(session.OpenOptions{
		Backend:    s.StorageBackend,
		Path:       s.StoragePath,
		Passphrase: s.Passphrase,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreOpen, "failed to open session storage", err).
			WithSuggestion("Check storage settings with 'gemora config get storage.backend'")
	}

	logger := run.logger
	store := session.NewStore(storage, session.WithLogger(logger))
	client := gateway.New(gateway.Config{BaseURL: s.BaseURL, Timeout: s.Timeout}, store,
		gateway.WithLogger(logger),
		gateway.WithMetrics(run.metrics),
	)

	e := &env{
		cmd:      cmd,
		ctx:      cc,
		settings: s,
		logger:   logger,
		store:    store,
		client:   client,
		auth:     auth.NewService(client, store, auth.WithLogger(logger), auth.WithMetrics(run.metrics)),
		portal:   portal.New(client),
		app:      shell.New(store, client, shell.WithLogger(logger)),
		closer:   closer,
		stderr:   &syncWriter{w: cmd.ErrOrStderr()},
	}
	logger.Debug("session environment ready",
		"backend", s.StorageBackend,
		"api", client.BaseURL(),
		"authenticated", store.IsAuthenticated(),
	)
	return e, nil
}

func (e *env) Close() {
	e.app.Close()
	if err := e.closer.Close(); err != nil {
		e.logger.WithError(err).Warn("failed to close session storage")
	}
}

// guard checks that the signed-in role may open path before any request.
func (e *env) guard(path string) error {
	return e.app.Guard(path)
}

// failed turns an error from a backend call into the error the command
// returns. A call that cost the session reports that first.
func (e *env) failed(err error) error {
	if err == nil {
		return nil
	}
	if e.app.Invalidated() {
		inv := errors.NewSessionInvalidatedError()
		inv.Cause = err
		return inv
	}
	return err
}

// emit writes v in the selected output format.
func (e *env) emit(v any, table ux.Tabular) error {
	return emit(e.cmd, e.settings.Format, e.settings.NoColor, v, table)
}

// status prints a progress or confirmation line unless --quiet is set.
func (e *env) status(format string, args ...any) {
	if e.ctx.Quiet {
		return
	}
	fmt.Fprintf(e.stderr, format+"\n", args...)
}

// confirm asks before a destructive action. --yes skips the question; without
// a terminal the action is refused.
func (e *env) confirm(yes bool, message string) error {
	if yes {
		return nil
	}
	if !tui.ShouldPrompt() {
		return errors.New(errors.ErrCodeValidationRequired, "refusing to continue without confirmation").
			WithSuggestion("Pass --yes to confirm")
	}
	ok, err := tui.Confirm(message)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrCodeValidationRequired, "cancelled")
	}
	return nil
}

func parseID(kind, arg string) (int64, error) {
	v, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || v <= 0 {
		return 0, errors.New(errors.ErrCodeValidationRequired, fmt.Sprintf("invalid %s id %q", kind, arg))
	}
	return v, nil
}
