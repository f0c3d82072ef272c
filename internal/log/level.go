package log

import (
	"log/slog"
	"strings"
)

// Level is a log severity. Values match log/slog.
type Level int

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// Levels lists the names accepted by --log-level and logging.level.
func Levels() []string {
	return []string{"debug", "info", "warn", "error"}
}

func (l Level) String() string {
	return slog.Level(l).String()
}

// ToSlogLevel converts l for use in slog handler options.
func (l Level) ToSlogLevel() slog.Level {
	return slog.Level(l)
}

// LookupLevel resolves a level name in any case.
func LookupLevel(s string) (Level, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// ParseLevel is LookupLevel with info as the fallback.
func ParseLevel(s string) Level {
	if l, ok := LookupLevel(s); ok {
		return l
	}
	return LevelInfo
}
