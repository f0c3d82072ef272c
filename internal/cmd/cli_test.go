package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/gemora/internal/devserver"
)

// cli runs gemora commands against a seeded development backend, sharing
// one home directory so the session survives between invocations.
type cli struct {
	t      *testing.T
	home   string
	server *devserver.Server
	url    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	for _, env := range []string{"GEMORA_HOME", envAPIURL, envPassphrase, envPassword} {
		t.Setenv(env, "")
	}
	// Keeps the password prompts and confirmations non-interactive.
	t.Setenv("CI", "true")

	srv, err := devserver.New(devserver.Config{
		Secret:     []byte("cli-test-secret"),
		Seed:       true,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &cli{t: t, home: t.TempDir(), server: srv, url: ts.URL + "/api"}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes args with --home and --api-url pointed at the test backend.
func (c *cli) run(args ...string) result {
	c.t.Helper()
	full := append([]string{"--home", c.home, "--api-url", c.url, "--no-color"}, args...)
	return execute(c.t, context.Background(), full...)
}

func (c *cli) login(email, password string) {
	c.t.Helper()
	res := c.run("auth", "login", "--email", email, "--password", password)
	require.NoError(c.t, res.err, res.stderr)
}

func execute(t *testing.T, ctx context.Context, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)
	run = newRunState()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	err := ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// resetFlags restores every flag of cmd and its children to its default,
// since the flag values are package state shared between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}
