package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWritesFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	dir := t.TempDir()
	var console bytes.Buffer

	path, closer, err := Setup(Options{Level: "debug", Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	logger := Component("test")
	logger.Debug().Msg("hello from test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"component":"test"`) || !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log file missing entry: %s", data)
	}
	if !strings.Contains(console.String(), "hello from test") {
		t.Fatalf("console missing entry: %q", console.String())
	}
}

func TestSetupLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	var console bytes.Buffer

	if _, _, err := Setup(Options{Level: "debug", Console: &console}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if log.Logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", log.Logger.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel(""); err != nil || lvl != zerolog.InfoLevel {
		t.Fatalf("empty level: %v %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
