package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleStatusDeduplicates(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleOutput(ConsoleConfig{Writer: &out})

	c.Status("Recording...")
	c.Status("Recording...")
	c.Status("Transcribing...")

	got := out.String()
	if n := strings.Count(got, "Status: Recording..."); n != 1 {
		t.Fatalf("expected one recording line, got %d in %q", n, got)
	}
	if !strings.Contains(got, "Status: Transcribing...") {
		t.Fatalf("missing transcribing line in %q", got)
	}
	if c.LastStatus() != "Transcribing..." {
		t.Fatalf("unexpected last status %q", c.LastStatus())
	}
}

func TestConsoleErrorGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	c := NewConsoleOutput(ConsoleConfig{Writer: &out, ErrWriter: &errOut})

	c.Error("boom")
	c.Info("hello")

	if errOut.String() != "[ERROR] boom\n" {
		t.Fatalf("unexpected error output %q", errOut.String())
	}
	if out.String() != "[INFO] hello\n" {
		t.Fatalf("unexpected info output %q", out.String())
	}
}

func TestConsoleWriteQuotesTranscript(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleOutput(ConsoleConfig{Writer: &out})

	if err := c.Write("hi there"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if out.String() != "\"hi there\"\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
