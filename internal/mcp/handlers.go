package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/folio/internal/config"
	"github.com/hpungsan/folio/internal/errors"
	"github.com/hpungsan/folio/internal/logging"
	"github.com/hpungsan/folio/internal/ops"
	"github.com/hpungsan/folio/internal/render"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	content  fs.FS
	renderer *render.Renderer
	log      *logging.Logger
}

// NewHandlers creates a new Handlers instance, filling in defaults for
// missing collaborators.
func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{
		db:       deps.DB,
		cfg:      deps.Config,
		content:  deps.Content,
		renderer: deps.Renderer,
		log:      deps.Logger,
	}
	if h.cfg == nil {
		h.cfg = config.DefaultConfig()
	}
	if h.renderer == nil {
		h.renderer = render.New(render.Options{})
	}
	if h.log == nil {
		h.log = logging.Discard()
	}
	return h
}

// Request types for each tool

// ParseRequest represents the arguments for parse and format.
type ParseRequest struct {
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// CheckRequest represents the arguments for check.
type CheckRequest struct {
	Paths []string `json:"paths,omitempty"`
}

// ListRequest represents the arguments for list.
type ListRequest struct {
	Tag    string `json:"tag,omitempty"`
	Since  string `json:"since,omitempty"`
	Until  string `json:"until,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// FetchRequest represents the arguments for fetch.
type FetchRequest struct {
	ID          string `json:"id,omitempty"`
	Slug        string `json:"slug,omitempty"`
	IncludeBody *bool  `json:"include_body,omitempty"`
}

// RenderRequest represents the arguments for render.
type RenderRequest struct {
	ID       string `json:"id,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Document bool   `json:"document,omitempty"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

// Handler implementations

// HandleParse handles the parse tool call.
func (h *Handlers) HandleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ParseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Content) == "" {
		return errorResult(errors.NewInvalidRequest("content is required")), nil
	}

	result, err := ops.Parse(h.cfg, ops.ParseInput{Name: input.Name, Content: input.Content})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFormat handles the format tool call.
func (h *Handlers) HandleFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ParseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Content) == "" {
		return errorResult(errors.NewInvalidRequest("content is required")), nil
	}

	result, err := ops.Format(h.cfg, ops.ParseInput{Name: input.Name, Content: input.Content})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCheck handles the check tool call.
func (h *Handlers) HandleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CheckRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.content == nil {
		return errorResult(errors.NewInvalidRequest("no content directory configured")), nil
	}

	result, err := ops.Check(ctx, h.content, h.cfg, h.log, ops.CheckInput{Paths: input.Paths})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReindex handles the reindex tool call.
func (h *Handlers) HandleReindex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.content == nil {
		return errorResult(errors.NewInvalidRequest("no content directory configured")), nil
	}

	result, err := ops.Ingest(ctx, h.db, h.content, h.cfg, h.log)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{
		Tag:    input.Tag,
		Since:  input.Since,
		Until:  input.Until,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(h.db, ops.FetchInput{
		ID:          input.ID,
		Slug:        input.Slug,
		IncludeBody: input.IncludeBody,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTags handles the tags tool call.
func (h *Handlers) HandleTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Tags(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRender handles the render tool call.
func (h *Handlers) HandleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Render(h.db, h.renderer, ops.RenderInput{
		ID:       input.ID,
		Slug:     input.Slug,
		Document: input.Document,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path: input.Path,
		Tag:  input.Tag,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var folioErr *errors.FolioError
	if stderrors.As(err, &folioErr) {
		message := folioErr.Message
		// Keep context added by wrapping, e.g. "posts/a.md: ...".
		if wrapped := err.Error(); wrapped != folioErr.Error() {
			message = strings.TrimSuffix(wrapped, folioErr.Error()) + message
		}
		errorObj := map[string]any{
			"code":    folioErr.Code,
			"message": message,
			"status":  folioErr.Status,
		}
		if folioErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else {
			if folioErr.File != "" {
				errorObj["file"] = folioErr.File
			}
			if folioErr.Line > 0 {
				errorObj["line"] = folioErr.Line
			}
			if folioErr.Details != nil {
				errorObj["details"] = folioErr.Details
			}
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
