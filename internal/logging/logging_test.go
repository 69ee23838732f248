package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/saadjs/nutrilog/internal/logging"
)

func TestSetupFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := logging.Setup("warn", &buf); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = logging.Setup("warn", &bytes.Buffer{}) })

	logging.For("test").Debug("hidden")
	logging.For("test").WithField("day", "20240101").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=test") || !strings.Contains(out, "day=20240101") {
		t.Fatalf("unexpected log output: %q", out)
	}
	if logrus.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", logrus.GetLevel())
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := logging.Setup("chatty", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
