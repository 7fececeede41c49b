// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Recent Focus report for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kenaz-focus/internal/focus"
	"github.com/starford/kenaz-focus/internal/models"
)

const (
	recentFocusURI  = "focus://recent"
	reportFormatURI = "focus://report-format"
)

// NoteLister lists note row previews, newest first.
type NoteLister interface {
	ListPreviews(ctx context.Context, limit, previewChars int) ([]models.NotePreview, error)
}

// Server wraps the MCP server with Recent Focus tools.
type Server struct {
	mcp          *server.MCPServer
	notes        NoteLister
	ctrl         *focus.Controller
	refresher    *focus.Refresher
	previewChars int
}

// New creates a new MCP server with all tools registered.
func New(notes NoteLister, ctrl *focus.Controller, refresher *focus.Refresher, previewChars int, version string) *Server {
	s := &Server{notes: notes, ctrl: ctrl, refresher: refresher, previewChars: previewChars}

	s.mcp = server.NewMCPServer(
		"Kenaz Focus",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_recent_focus",
		mcp.WithDescription("Return the current Recent Focus report as Markdown, "+
			"with its state (idle, loading, ready, error) and last update time. "+
			"Does not contact the generator."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.getRecentFocus)

	s.mcp.AddTool(mcp.NewTool("refresh_recent_focus",
		mcp.WithDescription("Regenerate the Recent Focus report when notes changed or the cached "+
			"report expired. Set force=true to regenerate regardless."),
		mcp.WithBoolean("force", mcp.Description("Regenerate even if the cached report is fresh")),
	), s.refreshRecentFocus)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes newest first with a one-line preview."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.listNotes)

	s.mcp.AddResource(
		mcp.NewResource(recentFocusURI, "Recent Focus",
			mcp.WithResourceDescription("The latest Recent Focus report in Markdown."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecentFocusResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(reportFormatURI, "Report Format Contract",
			mcp.WithResourceDescription("Request and response format of the report generator endpoint."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readReportFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getRecentFocus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(describe(s.ctrl.Snapshot())), nil
}

func (s *Server) refreshRecentFocus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if boolArg(req, "force", false) {
		if err := s.refresher.Regenerate(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(describe(s.ctrl.Snapshot())), nil
	}

	digests, err := s.refresher.Digests(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ctrl.GenerateRecentFocusIfNeeded(ctx, digests); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(describe(s.ctrl.Snapshot())), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 20)
	rows, err := s.notes.ListPreviews(ctx, limit, s.previewChars)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readRecentFocusResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      recentFocusURI,
			MIMEType: "text/markdown",
			Text:     s.ctrl.Snapshot().Markdown(),
		},
	}, nil
}

func (s *Server) readReportFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      reportFormatURI,
			MIMEType: "text/markdown",
			Text:     ReportFormatContract,
		},
	}, nil
}

// describe renders a snapshot as a short status header followed by the report.
func describe(snap focus.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state: %s\n", snap.Phase)
	if snap.UpdatedAt != nil {
		fmt.Fprintf(&b, "updated_at: %s\n", snap.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if snap.ErrorMessage != "" {
		fmt.Fprintf(&b, "error: %s\n", snap.ErrorMessage)
	}
	if md := snap.Markdown(); md != "" {
		b.WriteString("\n")
		b.WriteString(md)
	} else {
		b.WriteString("\nNo report yet. Call refresh_recent_focus to generate one.")
	}
	return b.String()
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
