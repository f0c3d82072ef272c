package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/gemora/internal/errors"
)

// Process exit codes.
const (
	Success      = 0
	GeneralError = 1
	// UsageError covers bad flags, arguments and rejected input.
	UsageError   = 2
	StorageError = 3
	// AuthError covers missing, revoked and insufficient sessions.
	AuthError    = 5
	NetworkError = 6
	Interrupted  = 130
)

var byFamily = map[string]int{
	"AUTH":   AuthError,
	"NET":    NetworkError,
	"VALID":  UsageError,
	"CONFIG": UsageError,
	"STORE":  StorageError,
}

// heuristics classify uncoded errors, mostly those produced by cobra and the
// net package. The first matching row wins.
var heuristics = []struct {
	code    int
	needles []string
}{
	{AuthError, []string{"authentication", "unauthorized", "not logged in"}},
	{NetworkError, []string{"network", "connection", "timeout", "unreachable", "no such host"}},
	{UsageError, []string{"unknown command", "unknown flag", "invalid flag", "required flag", "missing argument", "arg(s)"}},
}

var descriptions = map[int]string{
	Success:      "Success",
	GeneralError: "General error",
	UsageError:   "Usage error (invalid flags, arguments or input)",
	StorageError: "Session storage error",
	AuthError:    "Authentication error",
	NetworkError: "Network error",
	Interrupted:  "Interrupted",
}

// Exit terminates the process with code.
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError terminates the process with the code for err.
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode returns the exit code for err. Coded errors map by
// family; uncoded errors are matched against known messages.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code := errors.CodeOf(err); code != "" {
		if exit, ok := byFamily[code.Family()]; ok {
			return exit
		}
		return GeneralError
	}

	msg := strings.ToLower(err.Error())
	for _, h := range heuristics {
		for _, needle := range h.needles {
			if strings.Contains(msg, needle) {
				return h.code
			}
		}
	}
	return GeneralError
}

// GetExitCodeDescription returns a short label for code.
func GetExitCodeDescription(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Unknown error"
}
