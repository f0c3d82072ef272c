package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/ux"
)

// CommandContext holds the persistent flags of one invocation. Empty values
// mean "not given on the command line"; resolveSettings fills them in from
// the environment and the config file.
type CommandContext struct {
	Verbose bool
	Quiet   bool
	Format  string
	NoColor bool

	APIURL  string
	Timeout time.Duration
	Storage string

	Home      string
	LogLevel  string
	LogFormat string
}

// NewCommandContext reads the persistent flags of cmd. --format is
// normalised to lower case and rejected when unknown.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	r := flagReader{flags: cmd.Flags()}
	cc := &CommandContext{
		Verbose:   r.getBool("verbose"),
		Quiet:     r.getBool("quiet"),
		Format:    r.getString("format"),
		NoColor:   r.getBool("no-color"),
		APIURL:    r.getString("api-url"),
		Timeout:   r.getDuration("timeout"),
		Storage:   r.getString("storage"),
		Home:      r.getString("home"),
		LogLevel:  r.getString("log-level"),
		LogFormat: r.getString("log-format"),
	}
	if r.err != nil {
		return nil, r.err
	}

	if cc.Format != "" {
		format, err := ux.ParseFormat(cc.Format)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidationRequired, "invalid --format", err)
		}
		cc.Format = string(format)
	}
	return cc, nil
}

// flagReader keeps the first lookup error so callers check once.
type flagReader struct {
	flags *pflag.FlagSet
	err   error
}

func (r *flagReader) getString(name string) string {
	v, err := r.flags.GetString(name)
	r.keep(err)
	return v
}

func (r *flagReader) getBool(name string) bool {
	v, err := r.flags.GetBool(name)
	r.keep(err)
	return v
}

func (r *flagReader) getDuration(name string) time.Duration {
	v, err := r.flags.GetDuration(name)
	r.keep(err)
	return v
}

func (r *flagReader) keep(err error) {
	if r.err == nil {
		r.err = err
	}
}
