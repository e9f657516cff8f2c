package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	EnvLogLevel   = "PROBER_LOG_LEVEL"
	EnvLogNoColor = "PROBER_LOG_NOCOLOR"
)

var configureOnce sync.Once

// Configure sets up the standard logrus logger. Only the first call has
// any effect; environment variables override the given level.
func Configure(level string) {
	configureOnce.Do(func() {
		apply(os.Stderr, level, false)
	})
}

// ConfigureTests sets up verbose, uncolored logging for tests
func ConfigureTests() {
	configureOnce.Do(func() {
		apply(os.Stderr, "debug", true)
	})
}

func apply(out io.Writer, level string, noColor bool) {
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = logrus.InfoLevel
	}
	if envLvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		lvl = envLvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		noColor = v
	}

	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   noColor,
	})
}

// Component returns a logger tagged with the component name
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

// ParseLevel maps a textual level to a logrus level. Unknown or empty
// input reports false and falls back to info.
func ParseLevel(raw string) (logrus.Level, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return logrus.InfoLevel, false
	}
	lvl, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel, false
	}
	return lvl, true
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
