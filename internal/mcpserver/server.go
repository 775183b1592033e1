// Package mcpserver exposes the mapper as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/reshape/internal/grammar"
	"github.com/agentic-research/reshape/internal/ingest"
	"github.com/agentic-research/reshape/internal/rules"
	"github.com/agentic-research/reshape/mapper"
)

// Version is reported to MCP clients.
var Version = "dev"

// New builds the MCP server with the map_document and validate_rules tools.
func New() *server.MCPServer {
	s := server.NewMCPServer("reshape", Version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("map_document",
		mcp.WithDescription("Reshape a JSON document with a rule set. Returns the mapped documents as a JSON array."),
		mcp.WithString("rules", mcp.Required(), mcp.Description("Rule file contents")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Source JSON document")),
		mcp.WithString("format", mcp.Description("Rule file format: yaml, json or hcl (default yaml)")),
		mcp.WithBoolean("many", mcp.Description("Treat a top-level array as a batch of source documents")),
	), handleMapDocument)

	s.AddTool(mcp.NewTool("validate_rules",
		mcp.WithDescription("Check a rule set for syntax errors without mapping anything."),
		mcp.WithString("rules", mcp.Required(), mcp.Description("Rule file contents")),
		mcp.WithString("format", mcp.Description("Rule file format: yaml, json or hcl (default yaml)")),
	), handleValidateRules)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve() error {
	log.Printf("reshape MCP server %s on stdio", Version)
	return server.ServeStdio(New())
}

func compile(req mcp.CallToolRequest) (*mapper.Mapper, error) {
	src, err := req.RequireString("rules")
	if err != nil {
		return nil, err
	}
	format := rules.Format(req.GetString("format", string(rules.YAML)))
	mf, err := rules.Parse([]byte(src), format, "rules."+string(format))
	if err != nil {
		return nil, err
	}
	rs, err := rules.Compile(mf)
	if err != nil {
		return nil, err
	}
	return mapper.New(rs, mapper.WithValidator(grammar.Validate))
}

func handleMapDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := compile(req)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	text, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := oj.ParseString(text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse document: %v", err)), nil
	}

	var out []map[string]any
	if arr, ok := doc.([]any); ok && req.GetBool("many", false) {
		out, err = m.MapManyContext(ctx, arr)
	} else {
		out, err = m.MapOneContext(ctx, doc)
	}
	if err != nil {
		log.Printf("map_document: %v", err)
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultText(ingest.EncodeDocuments(out, true)), nil
}

func handleValidateRules(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := compile(req)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("ok: %d rules", len(m.Rules()))), nil
}

// describe prefixes rule errors with their kind so clients can tell a syntax
// error from a rule the mapper rejected.
func describe(err error) string {
	var se *grammar.SyntaxError
	switch {
	case errors.As(err, &se):
		return "syntax error: " + se.Error()
	case errors.Is(err, mapper.ErrInvalidRule):
		return err.Error()
	default:
		return "error: " + err.Error()
	}
}
