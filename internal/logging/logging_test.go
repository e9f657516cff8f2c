package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   logrus.Level
		wantOK bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, true},
		{" WARN ", logrus.WarnLevel, true},
		{"warning", logrus.WarnLevel, true},
		{"trace", logrus.TraceLevel, true},
		{"Error", logrus.ErrorLevel, true},
		{"panic", logrus.PanicLevel, true},
		{"loud", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestApplyHonorsEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetOutput(os.Stderr)

	var buf bytes.Buffer
	apply(&buf, "debug", false)

	assert.Equal(t, logrus.ErrorLevel, logrus.GetLevel())
	logrus.Warn("suppressed")
	assert.Empty(t, buf.String())
	logrus.Error("visible")
	assert.Contains(t, buf.String(), "visible")
}
