// Package mcpserver exposes the document tools over the Model Context
// Protocol using the official go-sdk. Every tool call passes through the
// authorization gate; callers without an authorized session get an
// instruction pointing at the sign-in URL instead of an error.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsbridge/docsbridge/internal/pkg/gate"
	"github.com/docsbridge/docsbridge/internal/pkg/googledocs"
	"github.com/docsbridge/docsbridge/internal/pkg/metrics/counter"
)

// Server binds the gate and docs client to the MCP tool surface. A stdio
// transport carries exactly one logical connection, so the connection id
// is allocated once per server instance.
type Server struct {
	gate         *gate.Gate
	docs         *googledocs.Client
	usage        *counter.Counter
	connectionID string
}

// New assembles the tool server. usage may be nil.
func New(g *gate.Gate, docs *googledocs.Client, usage *counter.Counter) *Server {
	return &Server{
		gate:         g,
		docs:         docs,
		usage:        usage,
		connectionID: uuid.NewString(),
	}
}

// ServeStdio registers the tools and runs the server over stdio until the
// transport closes or ctx is canceled.
func (s *Server) ServeStdio(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docsbridge",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: `Google Docs tools. Call authorize_google first; it returns a URL a human must visit to grant access. Until that authorization completes, the other tools reply with the same URL instead of document data.`,
		},
	)

	s.registerTools(server)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "authorize_google",
		Description: "Authorize Google Docs access - call this first to enable other tools",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Authorize Google Docs",
			IdempotentHint: true,
		},
	}, s.handleAuthorizeGoogle)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_document",
		Description: "Read the content of a Google Doc",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Read Document",
			ReadOnlyHint: true,
		},
	}, s.handleReadDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_document",
		Description: "Create a new Google Doc",
		Annotations: &mcp.ToolAnnotations{
			Title: "Create Document",
		},
	}, s.handleCreateDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_document",
		Description: "Update content in a Google Doc using Docs API batchUpdate requests",
		Annotations: &mcp.ToolAnnotations{
			Title: "Update Document",
		},
	}, s.handleUpdateDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "append_text",
		Description: "Append text to the end of a Google Doc",
		Annotations: &mcp.ToolAnnotations{
			Title: "Append Text",
		},
	}, s.handleAppendText)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List Google Docs from your Drive",
		Annotations: &mcp.ToolAnnotations{
			Title:        "List Documents",
			ReadOnlyHint: true,
		},
	}, s.handleListDocuments)
}

// resolveUser runs the gate for a document tool. When the session is not
// authorized it returns a non-nil instruction result the handler should
// hand back verbatim.
func (s *Server) resolveUser(ctx context.Context, tool string) (string, *mcp.CallToolResult, error) {
	s.count(tool)

	result, err := s.gate.CheckAndResolveIdentity(ctx, s.connectionID)
	if err != nil {
		return "", nil, fmt.Errorf("authorization check failed: %w", err)
	}
	if !result.Authorized {
		return "", textResult(result.Instruction), nil
	}
	return result.UserID, nil, nil
}

func (s *Server) count(tool string) {
	if s.usage != nil {
		s.usage.AddToolCall(tool)
	}
}

type emptyInput struct{}

func (s *Server) handleAuthorizeGoogle(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	s.count("authorize_google")
	instruction, err := s.gate.BeginAuthorization(ctx, s.connectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not start authorization: %w", err)
	}
	return textResult(instruction), nil, nil
}

type readDocumentInput struct {
	DocumentID string `json:"documentId" jsonschema:"the ID of the Google Doc to read"`
}

func (s *Server) handleReadDocument(ctx context.Context, req *mcp.CallToolRequest, input readDocumentInput) (*mcp.CallToolResult, any, error) {
	userID, instruction, err := s.resolveUser(ctx, "read_document")
	if err != nil || instruction != nil {
		return instruction, nil, err
	}
	doc, err := s.docs.ReadDocument(ctx, userID, input.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(doc)
}

type createDocumentInput struct {
	Title string `json:"title" jsonschema:"the title of the new document"`
}

func (s *Server) handleCreateDocument(ctx context.Context, req *mcp.CallToolRequest, input createDocumentInput) (*mcp.CallToolResult, any, error) {
	userID, instruction, err := s.resolveUser(ctx, "create_document")
	if err != nil || instruction != nil {
		return instruction, nil, err
	}
	doc, err := s.docs.CreateDocument(ctx, userID, input.Title)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(doc)
}

type updateDocumentInput struct {
	DocumentID string           `json:"documentId" jsonschema:"the ID of the Google Doc to update"`
	Requests   []map[string]any `json:"requests" jsonschema:"array of update requests following Google Docs API format"`
}

func (s *Server) handleUpdateDocument(ctx context.Context, req *mcp.CallToolRequest, input updateDocumentInput) (*mcp.CallToolResult, any, error) {
	userID, instruction, err := s.resolveUser(ctx, "update_document")
	if err != nil || instruction != nil {
		return instruction, nil, err
	}
	replies, err := s.docs.UpdateDocument(ctx, userID, input.DocumentID, input.Requests)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]any{
		"documentId": input.DocumentID,
		"replies":    replies,
	})
}

type appendTextInput struct {
	DocumentID string `json:"documentId" jsonschema:"the ID of the Google Doc"`
	Text       string `json:"text" jsonschema:"text to append to the document"`
}

func (s *Server) handleAppendText(ctx context.Context, req *mcp.CallToolRequest, input appendTextInput) (*mcp.CallToolResult, any, error) {
	userID, instruction, err := s.resolveUser(ctx, "append_text")
	if err != nil || instruction != nil {
		return instruction, nil, err
	}
	if err := s.docs.AppendText(ctx, userID, input.DocumentID, input.Text); err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Appended text to document %s", input.DocumentID)), nil, nil
}

type listDocumentsInput struct {
	PageSize int `json:"pageSize,omitempty" jsonschema:"number of documents to return (max 100)"`
}

func (s *Server) handleListDocuments(ctx context.Context, req *mcp.CallToolRequest, input listDocumentsInput) (*mcp.CallToolResult, any, error) {
	userID, instruction, err := s.resolveUser(ctx, "list_documents")
	if err != nil || instruction != nil {
		return instruction, nil, err
	}
	files, err := s.docs.ListDocuments(ctx, userID, input.PageSize)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]any{"documents": files})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(data any) (*mcp.CallToolResult, any, error) {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return textResult(string(encoded)), nil, nil
}
