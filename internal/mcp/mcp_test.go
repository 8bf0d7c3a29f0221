package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/folio/internal/catalog"
	"github.com/hpungsan/folio/internal/config"
	"github.com/hpungsan/folio/internal/errors"
	"github.com/hpungsan/folio/internal/ops"
)

const authSource = "---\ntitle: \"Auth in Next.js\"\ndate: \"2023-12-16\"\ntags: [\"auth\", \"next\"]\n---\nHello ```js\ncode\n```\n\n<Video videoID=\"abc123\" />\n"

func testContent() fstest.MapFS {
	return fstest.MapFS{
		"posts/auth.md": {Data: []byte(authSource)},
		"posts/rsc.md":  {Data: []byte("---\ntitle: \"Server Components\"\ndate: \"2023-11-02\"\ntags: [\"next\", \"react\"]\n---\n## Intro\n\nComponents render on the server.\n")},
		"posts/bad.md":  {Data: []byte("---\ntitle: \"Bad\"\ndate: \"2023-12-32\"\ntags: [a]\n---\n")},
	}
}

// testSetup creates an in-memory catalog, ingests testContent and returns handlers over it.
func testSetup(t *testing.T) (*Handlers, *sql.DB, *config.Config) {
	t.Helper()

	database, err := catalog.Init("")
	if err != nil {
		t.Fatalf("failed to init catalog: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	content := testContent()
	if _, err := ops.Ingest(context.Background(), database, content, cfg, nil); err != nil {
		t.Fatalf("failed to ingest: %v", err)
	}

	h := NewHandlers(Deps{DB: database, Config: cfg, Content: content})
	return h, database, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleParse(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	t.Run("valid source", func(t *testing.T) {
		result, err := h.HandleParse(ctx, makeRequest(map[string]any{"content": authSource}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := parseOutput(t, result)

		if output["slug"] != "auth-in-next-js" {
			t.Errorf("slug = %v, want auth-in-next-js", output["slug"])
		}
		art := output["article"].(map[string]any)
		body := art["body"].([]any)
		if len(body) != 3 {
			t.Fatalf("body has %d blocks, want 3", len(body))
		}
		directive := body[2].(map[string]any)
		if directive["kind"] != "directive" || directive["name"] != "Video" {
			t.Errorf("block 2 = %v, want Video directive", directive)
		}
	})

	t.Run("error carries position", func(t *testing.T) {
		src := "---\ntitle: \"X\"\ndate: \"2023-12-16\"\n---\n"
		result, _ := h.HandleParse(ctx, makeRequest(map[string]any{"content": src, "name": "x.md"}))
		if !result.IsError {
			t.Fatal("expected error")
		}
		errObj := errorObject(t, result)
		if errObj["code"] != string(errors.ErrMissingField) {
			t.Errorf("code = %v, want %s", errObj["code"], errors.ErrMissingField)
		}
		if errObj["file"] != "x.md" {
			t.Errorf("file = %v, want x.md", errObj["file"])
		}
		if _, ok := errObj["line"]; !ok {
			t.Error("expected line in error")
		}
	})

	t.Run("missing content", func(t *testing.T) {
		result, _ := h.HandleParse(ctx, makeRequest(map[string]any{}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("wrong argument type", func(t *testing.T) {
		result, _ := h.HandleParse(ctx, makeRequest(map[string]any{"content": 42}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})
}

func TestHandleFormat(t *testing.T) {
	h, _, _ := testSetup(t)

	src := "---\ntags: [b, a]\ndate: 2023-01-02\ntitle: Order\n---\nText\n"
	result, err := h.HandleFormat(context.Background(), makeRequest(map[string]any{"content": src}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)

	if output["changed"] != true {
		t.Error("expected changed=true")
	}
	formatted := output["formatted"].(string)
	if !strings.HasPrefix(formatted, "---\ntitle: \"Order\"\n") {
		t.Errorf("unexpected formatted output:\n%s", formatted)
	}
}

func TestHandleCheck(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	result, err := h.HandleCheck(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)

	if output["ok"] != false {
		t.Error("expected ok=false with an invalid article")
	}
	summary := output["summary"].(map[string]any)
	if summary["valid"] != float64(2) || summary["invalid"] != float64(1) {
		t.Errorf("summary = %v, want 2 valid and 1 invalid", summary)
	}

	result, _ = h.HandleCheck(ctx, makeRequest(map[string]any{"paths": []any{"posts/rsc.md"}}))
	output = parseOutput(t, result)
	if output["ok"] != true {
		t.Errorf("expected ok=true for a valid subset, got %v", output)
	}
}

func TestHandleReindex(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	h.content.(fstest.MapFS)["posts/new.md"] = &fstest.MapFile{
		Data: []byte("---\ntitle: \"New\"\ndate: \"2024-05-01\"\ntags: [go]\n---\nFresh.\n"),
	}

	result, err := h.HandleReindex(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)
	if output["indexed"] != float64(3) {
		t.Errorf("indexed = %v, want 3", output["indexed"])
	}
	if failed := output["failed"].([]any); len(failed) != 1 {
		t.Errorf("failed has %d entries, want 1", len(failed))
	}

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"slug": "new"}))
	parseOutput(t, result)
}

func TestHandleList(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	result, err := h.HandleList(ctx, makeRequest(map[string]any{"tag": "next", "limit": 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)

	items := output["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].(map[string]any)["title"] != "Auth in Next.js" {
		t.Errorf("first item = %v, want newest article", items[0])
	}
	pagination := output["pagination"].(map[string]any)
	if pagination["has_more"] != true || pagination["total"] != float64(2) {
		t.Errorf("pagination = %v", pagination)
	}

	result, _ = h.HandleList(ctx, makeRequest(map[string]any{"since": "12/01/2023"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleFetch(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	t.Run("by slug without body", func(t *testing.T) {
		result, _ := h.HandleFetch(ctx, makeRequest(map[string]any{"slug": "server-components", "include_body": false}))
		output := parseOutput(t, result)
		art := output["article"].(map[string]any)
		if art["title"] != "Server Components" {
			t.Errorf("title = %v", art["title"])
		}
		if art["body"] != nil {
			t.Errorf("expected no body, got %v", art["body"])
		}
	})

	t.Run("by id", func(t *testing.T) {
		result, _ := h.HandleFetch(ctx, makeRequest(map[string]any{"slug": "auth-in-next-js"}))
		id := parseOutput(t, result)["id"].(string)

		result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"id": id}))
		output := parseOutput(t, result)
		if output["path"] != "posts/auth.md" {
			t.Errorf("path = %v, want posts/auth.md", output["path"])
		}
	})

	t.Run("errors", func(t *testing.T) {
		result, _ := h.HandleFetch(ctx, makeRequest(map[string]any{"id": "x", "slug": "y"}))
		assertErrorCode(t, result, "AMBIGUOUS_ADDRESSING")

		result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{}))
		assertErrorCode(t, result, "INVALID_REQUEST")

		result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"slug": "bad"}))
		assertErrorCode(t, result, "NOT_FOUND")
	})
}

func TestHandleTags(t *testing.T) {
	h, _, _ := testSetup(t)

	result, _ := h.HandleTags(context.Background(), makeRequest(nil))
	output := parseOutput(t, result)

	if output["total"] != float64(3) {
		t.Errorf("total = %v, want 3", output["total"])
	}
	first := output["tags"].([]any)[0].(map[string]any)
	if first["tag"] != "next" || first["count"] != float64(2) {
		t.Errorf("first tag = %v, want next x2", first)
	}
}

func TestHandleRender(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleRender(ctx, makeRequest(map[string]any{"slug": "auth-in-next-js"}))
	output := parseOutput(t, result)
	html := output["html"].(string)
	if !strings.Contains(html, `class="language-js"`) {
		t.Errorf("expected highlighted code block, got:\n%s", html)
	}
	if !strings.Contains(html, "youtube-nocookie.com/embed/abc123") {
		t.Errorf("expected video embed, got:\n%s", html)
	}

	result, _ = h.HandleRender(ctx, makeRequest(map[string]any{"slug": "server-components", "document": true}))
	output = parseOutput(t, result)
	if !strings.Contains(output["html"].(string), "<!DOCTYPE html>") {
		t.Error("expected a full document")
	}
}

func TestHandleExport(t *testing.T) {
	h, _, _ := testSetup(t)

	path := filepath.Join(t.TempDir(), "next.jsonl")
	result, err := h.HandleExport(context.Background(), makeRequest(map[string]any{"path": path, "tag": "next"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)
	if output["count"] != float64(2) {
		t.Errorf("count = %v, want 2", output["count"])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("export has %d lines, want 3 (header + 2)", lines)
	}

	result, _ = h.HandleExport(context.Background(), makeRequest(map[string]any{"path": "../x.jsonl"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	_, database, cfg := testSetup(t)

	s := NewServer(Deps{DB: database, Config: cfg}, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"article_parse",
		"article_format",
		"article_check",
		"article_reindex",
		"article_list",
		"article_fetch",
		"article_tags",
		"article_render",
		"article_export",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	_, database, cfg := testSetup(t)

	cfg.DisabledTools = []string{"article_export", "article_reindex", "article_export"}
	s := NewServer(Deps{DB: database, Config: cfg}, "test")
	tools := s.ListTools()

	if len(tools) != len(toolRegistry)-2 {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry)-2)
	}
	for _, name := range []string{"article_export", "article_reindex"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_DisabledType(t *testing.T) {
	_, database, cfg := testSetup(t)

	cfg.DisabledTypes = []string{"article"}
	s := NewServer(Deps{DB: database, Config: cfg}, "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"article_export", "article_render"}, 0},
		{"one unknown", []string{"article_export", "page_publish"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes([]string{"article"}); len(unknown) != 0 {
		t.Errorf("unexpected unknown types: %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"article", "page"}); len(unknown) != 1 {
		t.Errorf("expected one unknown type, got %v", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()

	if len(names) != len(toolRegistry) {
		t.Errorf("AllToolNames() returned %d names, want %d", len(names), len(toolRegistry))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
			break
		}
	}
	for _, name := range names {
		if GetTypeForTool(name) != "article" {
			t.Errorf("GetTypeForTool(%q) = %q, want article", name, GetTypeForTool(name))
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	err := errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied"))
	err.Details = map[string]any{"path": "/tmp/secret.db"}
	errObj := errorObject(t, errorResult(err))

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
	if strings.Contains(errObj["message"].(string), "secret") {
		t.Fatal("expected INTERNAL errors to hide the cause")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrappedErr := fmt.Errorf("paths[2]: %w", errors.NewAmbiguousAddressing())
	errObj := errorObject(t, errorResult(wrappedErr))

	if errObj["code"] != string(errors.ErrAmbiguousAddressing) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrAmbiguousAddressing)
	}
	if msg := errObj["message"].(string); !strings.Contains(msg, "paths[2]") {
		t.Errorf("message should contain wrapper context 'paths[2]', got: %s", msg)
	}
}

func TestErrorResult_NonFolioError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound("abc")))

	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

// errorObject returns the "error" object of a failed MCP result.
func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatal("no error object in payload")
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	errObj := errorObject(t, result)
	if code, _ := errObj["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
