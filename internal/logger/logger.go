// Package logger is the process-wide structured logger used by usenest.
//
// Output goes to stderr so that stdout stays reserved for formatted source.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stderr, levelFromEnv())
)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	return zerolog.New(out).Level(level)
}

func levelFromEnv() zerolog.Level {
	if lvl, err := ParseLevel(os.Getenv("USENEST_LOG_LEVEL")); err == nil {
		return lvl
	}
	return zerolog.WarnLevel
}

// ParseLevel parses a level name such as "debug" or "info". The empty string
// is rejected so that callers can fall back to their own default.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.NoLevel, fmt.Errorf("empty log level")
	}
	return zerolog.ParseLevel(s)
}

// SetLevel changes the minimum level that is written.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(level)
}

// SetOutput redirects the logger, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, log.GetLevel())
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

func Tracef(format string, args ...interface{}) {
	current().Trace().Msgf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	current().Debug().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	current().Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	current().Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	current().Error().Msgf(format, args...)
}
