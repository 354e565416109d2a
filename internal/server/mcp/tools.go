package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultListLimit = 10

type ToggleArgs struct{}

type StatusArgs struct{}

type ListTranscriptsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of transcripts to return (default 10)"`
}

func textResult(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: text}}}
}

func errorResult(text string) *sdk.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}

func (s *Server) handleToggle(ctx context.Context, req *sdk.CallToolRequest, args ToggleArgs) (*sdk.CallToolResult, any, error) {
	state, err := s.controller.Toggle()
	if err != nil {
		return errorResult(fmt.Sprintf("failed to toggle recording: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("State: %s", state)), nil, nil
}

func (s *Server) handleStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusArgs) (*sdk.CallToolResult, any, error) {
	st := s.controller.Status()
	content := []sdk.Content{
		&sdk.TextContent{Text: fmt.Sprintf("State: %s", st.State)},
		&sdk.TextContent{Text: fmt.Sprintf("Status: %s", st.Message)},
	}
	if st.LastText != "" {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Last transcript: %s", st.LastText)})
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}

func (s *Server) handleListTranscripts(ctx context.Context, req *sdk.CallToolRequest, args ListTranscriptsArgs) (*sdk.CallToolResult, any, error) {
	if s.transcripts == nil {
		return errorResult("transcript history is disabled"), nil, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	records, err := s.transcripts.List(limit)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list transcripts: %v", err)), nil, nil
	}

	content := []sdk.Content{
		&sdk.TextContent{Text: fmt.Sprintf("Transcripts (%d):", len(records))},
	}
	for _, r := range records {
		content = append(content, &sdk.TextContent{
			Text: fmt.Sprintf("- [%s] (%s, %.1fs) %s", r.CreatedAt.Format("2006-01-02 15:04:05"), r.Language, r.Duration.Seconds(), r.Text),
		})
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}
