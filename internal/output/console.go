package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleOutput prints the dictation status line and transcripts
type ConsoleOutput struct {
	mu            sync.Mutex
	writer        io.Writer
	errWriter     io.Writer
	showTimestamp bool
	last          string
}

// ConsoleConfig configures console output behavior
type ConsoleConfig struct {
	// ShowTimestamp prefixes each line with a timestamp
	ShowTimestamp bool

	// Writer is the output destination (default: os.Stdout)
	Writer io.Writer

	// ErrWriter receives error lines (default: os.Stderr)
	ErrWriter io.Writer
}

// NewConsoleOutput creates a new console output handler
func NewConsoleOutput(config ConsoleConfig) *ConsoleOutput {
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}
	errWriter := config.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}

	return &ConsoleOutput{
		writer:        writer,
		errWriter:     errWriter,
		showTimestamp: config.ShowTimestamp,
	}
}

// DefaultConsoleOutput creates a console output with default settings
func DefaultConsoleOutput() *ConsoleOutput {
	return NewConsoleOutput(ConsoleConfig{ShowTimestamp: true})
}

func (c *ConsoleOutput) prefix() string {
	if !c.showTimestamp {
		return ""
	}
	return fmt.Sprintf("[%s] ", time.Now().Format("15:04:05"))
}

// Write writes a transcription to the console
func (c *ConsoleOutput) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.writer, "%s%q\n", c.prefix(), text)
	return err
}

// Status writes a status line. Repeated identical statuses are printed once.
func (c *ConsoleOutput) Status(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg == c.last {
		return
	}
	c.last = msg
	fmt.Fprintf(c.writer, "%s[*] Status: %s\n", c.prefix(), msg)
}

// LastStatus returns the most recent status message
func (c *ConsoleOutput) LastStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Info writes an informational message
func (c *ConsoleOutput) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "[INFO] %s\n", msg)
}

// Error writes an error message
func (c *ConsoleOutput) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.errWriter, "[ERROR] %s\n", msg)
}
