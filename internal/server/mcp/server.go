// Package mcp exposes dictation control to MCP-capable assistants.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/dictate/internal/app"
	"github.com/emmett/dictate/internal/history"
	"github.com/emmett/dictate/internal/session"
)

// Controller is the dictation controller driven by the tools
type Controller interface {
	Toggle() (session.State, error)
	Status() app.Status
}

// Transcripts lists saved transcripts, newest first
type Transcripts interface {
	List(limit int) ([]history.Record, error)
}

type Config struct {
	ServerName    string
	ServerVersion string
}

type Server struct {
	config      Config
	mcpServer   *sdk.Server
	controller  Controller
	transcripts Transcripts
}

// NewServer creates the MCP server. transcripts may be nil when history is
// disabled.
func NewServer(cfg Config, controller Controller, transcripts Transcripts) *Server {
	s := &Server{
		config:      cfg,
		controller:  controller,
		transcripts: transcripts,
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()
	return s
}

// Run serves over stdio until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session over transport
func (s *Server) Connect(ctx context.Context, transport sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "toggle_recording",
		Description: "Start recording from the microphone, or stop recording and transcribe. The transcript is pasted into the focused application.",
	}, s.handleToggle)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "get_status",
		Description: "Get the dictation state (idle, recording, transcribing) and the last status message",
	}, s.handleStatus)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "list_transcripts",
		Description: "List recent saved transcripts, newest first",
	}, s.handleListTranscripts)
}
