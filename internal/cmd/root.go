package cmd

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/metrics"
	"github.com/felixgeelhaar/gemora/internal/telemetry"
	"github.com/felixgeelhaar/gemora/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "gemora",
	Short: "Admin and account client for the Gemora gem-auction portal",
	Long: `gemora signs in to the Gemora portal backend and drives its admin and
account features from the terminal: user management, gem listing moderation,
support tickets and your own profile.

The session (token and role) is kept in durable storage under the Gemora home
directory and attached to every request. When the backend rejects the token
the session is cleared and you are sent back to login.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// runState holds per-process state shared by the commands.
type runState struct {
	config   *GemoraConfig
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	span     trace.Span
	start    time.Time
}

var run = newRunState()

func newRunState() *runState {
	reg, m := metrics.NewRegistry()
	return &runState{registry: reg, metrics: m, logger: log.DefaultLogger()}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("format", "f", "", "output format: text, json, yaml (default from config, else text)")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only print command results")
	flags.String("home", "", "Gemora home directory (default $GEMORA_HOME or ~/.gemora)")
	flags.String("api-url", "", "backend base URL (default $GEMORA_API_URL, config, or "+defaultAPIURL+")")
	flags.Duration("timeout", 0, "per-request timeout (default from config, else 15s)")
	flags.String("storage", "", "session storage backend: file, encrypted, sqlite, memory")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")
	flags.Bool("print-metrics", false, "write collected metrics to stderr when the command ends")
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, recording the outcome of the
// command that ran.
func ExecuteContext(ctx context.Context) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	finish(cmd, err)
	return err
}

func setup(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath(cc.Home))
	if err != nil {
		return err
	}
	run.config = cfg

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if cc.LogLevel != "" {
		level = cc.LogLevel
	}
	if cc.Verbose {
		level = "debug"
	}
	if cc.LogFormat != "" {
		format = cc.LogFormat
	}
	logCfg := log.ConfigFor(level, format)
	logCfg.Output = log.NewOutput(cmd.ErrOrStderr())
	run.logger = log.New(logCfg)
	log.SetDefaultLogger(run.logger)

	tcfg := telemetry.DefaultConfig()
	if cfg.Telemetry.Enabled {
		tcfg = telemetry.ConfigFor(version.Short(), cfg.Telemetry.Endpoint)
	}
	if _, err := telemetry.InitProvider(cmd.Context(), tcfg); err != nil {
		run.logger.WithError(err).Warn("tracing disabled")
	}

	ctx, span := telemetry.StartCommandSpan(cmd.Context(), cmd.CommandPath())
	cmd.SetContext(ctx)
	run.span = span
	run.start = time.Now()
	return nil
}

func finish(cmd *cobra.Command, err error) {
	if cmd == nil || run.span == nil {
		return
	}
	name := cmd.CommandPath()

	if err != nil {
		telemetry.RecordError(run.span, err)
		code := errors.CodeOf(err)
		if code == "" {
			code = "NONE"
		}
		run.metrics.Errors.WithLabelValues(string(code)).Inc()
	} else {
		telemetry.RecordSuccess(run.span)
	}
	run.span.End()
	run.span = nil

	success := "true"
	if err != nil {
		success = "false"
	}
	run.metrics.CommandExecutions.WithLabelValues(name, success).Inc()
	run.metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(run.start).Seconds())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := telemetry.Shutdown(shutdownCtx); serr != nil {
		run.logger.WithError(serr).Debug("failed to flush traces")
	}

	printMetrics, _ := cmd.Flags().GetBool("print-metrics")
	if printMetrics || (run.config != nil && run.config.Metrics.Enabled) {
		_ = metrics.WriteText(cmd.ErrOrStderr(), run.registry)
	}
}
