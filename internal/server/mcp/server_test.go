package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/dictate/internal/app"
	"github.com/emmett/dictate/internal/history"
	"github.com/emmett/dictate/internal/session"
)

type fakeController struct {
	state session.State
	err   error
}

func (f *fakeController) Toggle() (session.State, error) {
	if f.err != nil {
		return session.Idle, f.err
	}
	f.state = session.Recording
	return f.state, nil
}

func (f *fakeController) Status() app.Status {
	return app.Status{State: f.state, Message: "Recording...", LastText: "earlier text"}
}

type fakeTranscripts struct {
	records []history.Record
	limit   int
}

func (f *fakeTranscripts) List(limit int) ([]history.Record, error) {
	f.limit = limit
	return f.records, nil
}

func connect(t *testing.T, s *Server) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ss, err := s.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func resultText(res *sdk.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*sdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestToggleAndStatusTools(t *testing.T) {
	controller := &fakeController{}
	cs := connect(t, NewServer(Config{ServerName: "dictate", ServerVersion: "test"}, controller, nil))
	ctx := context.Background()

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "toggle_recording", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("toggle_recording: %v", err)
	}
	if res.IsError || resultText(res) != "State: recording" {
		t.Fatalf("unexpected toggle result %q", resultText(res))
	}

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{Name: "get_status", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("get_status: %v", err)
	}
	text := resultText(res)
	if !strings.Contains(text, "State: recording") || !strings.Contains(text, "Last transcript: earlier text") {
		t.Fatalf("unexpected status %q", text)
	}
}

func TestToggleErrorIsToolError(t *testing.T) {
	controller := &fakeController{err: errors.New("audio input device unavailable")}
	cs := connect(t, NewServer(Config{ServerName: "dictate", ServerVersion: "test"}, controller, nil))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: "toggle_recording", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("toggle_recording: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "device unavailable") {
		t.Fatalf("expected tool error, got %q", resultText(res))
	}
}

func TestListTranscriptsTool(t *testing.T) {
	transcripts := &fakeTranscripts{records: []history.Record{
		{Text: "second", Language: "en", Duration: 2 * time.Second, CreatedAt: time.Date(2024, 1, 1, 10, 1, 0, 0, time.Local)},
		{Text: "first", Language: "es", Duration: time.Second, CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)},
	}}
	cs := connect(t, NewServer(Config{ServerName: "dictate", ServerVersion: "test"}, &fakeController{}, transcripts))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: "list_transcripts", Arguments: map[string]any{"limit": 5}})
	if err != nil {
		t.Fatalf("list_transcripts: %v", err)
	}
	text := resultText(res)
	if transcripts.limit != 5 {
		t.Fatalf("limit not passed, got %d", transcripts.limit)
	}
	if !strings.Contains(text, "Transcripts (2):") || strings.Index(text, "second") > strings.Index(text, "first") {
		t.Fatalf("unexpected listing %q", text)
	}
	if !strings.Contains(text, "(es, 1.0s) first") {
		t.Fatalf("missing record details in %q", text)
	}
}

func TestListTranscriptsDisabled(t *testing.T) {
	cs := connect(t, NewServer(Config{ServerName: "dictate", ServerVersion: "test"}, &fakeController{}, nil))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: "list_transcripts", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("list_transcripts: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error when history is disabled")
	}
}
