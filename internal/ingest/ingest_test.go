package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/folio/internal/errors"
	"github.com/hpungsan/folio/internal/logging"
)

func source(title, date string, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(fmt.Sprintf("---\ntitle: %q\ndate: %q\ntags: [\"go\"]\n---\n%s", title, date, body))}
}

func TestDiscover(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md":                 source("A", "2023-01-01", ""),
		"posts/b.mdx":          source("B", "2023-01-02", ""),
		"posts/notes.txt":      {Data: []byte("ignored")},
		".folio/config.json":   {Data: []byte("{}")},
		".hidden/skip.md":      source("H", "2023-01-03", ""),
		"posts/deep/nested.md": source("N", "2023-01-04", ""),
	}

	paths, err := Discover(context.Background(), fsys, []string{"*.md", "*.mdx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "posts/b.mdx", "posts/deep/nested.md"}, paths)

	paths, err = Discover(context.Background(), fsys, []string{"posts/*.mdx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/b.mdx"}, paths)
}

func TestLoad_IsolatesFailures(t *testing.T) {
	fsys := fstest.MapFS{
		"ok.md":        source("Fine", "2023-12-16", "Hello ```js\ncode\n```\n"),
		"no-tags.md":   {Data: []byte("---\ntitle: \"X\"\ndate: \"2023-12-16\"\n---\n")},
		"bad-date.md":  source("Bad", "2023-02-30", ""),
		"unclosed.md":  {Data: []byte("---\ntitle: x\n")},
		"fence.md":     source("Fence", "2023-12-17", "\n```go\nfunc f() {}\n"),
		"warnings.md":  source("Warn", "2023-12-18", "<Video />\n"),
		"readme.txt":   {Data: []byte("not an article")},
		"posts/two.md": source("Two", "2023-12-19", "para\n"),
	}

	batch, err := Load(context.Background(), fsys, Options{Workers: 3})
	require.NoError(t, err)

	got := make(map[string]Result, len(batch.Results))
	var order []string
	for _, r := range batch.Results {
		got[r.Path] = r
		order = append(order, r.Path)
	}
	assert.Equal(t, []string{"bad-date.md", "fence.md", "no-tags.md", "ok.md", "posts/two.md", "unclosed.md", "warnings.md"}, order)

	assert.True(t, got["ok.md"].OK())
	assert.Len(t, got["ok.md"].Article.Body, 2)
	assert.Len(t, got["ok.md"].Checksum, 64)

	assert.Equal(t, errors.ErrMissingField, got["no-tags.md"].Err.Code)
	assert.Equal(t, "no-tags.md", got["no-tags.md"].Err.File)
	assert.Equal(t, errors.ErrInvalidDate, got["bad-date.md"].Err.Code)
	assert.Equal(t, 3, got["bad-date.md"].Err.Line)
	assert.Equal(t, errors.ErrMalformedFrontMatter, got["unclosed.md"].Err.Code)
	assert.Equal(t, errors.ErrUnterminatedCodeFence, got["fence.md"].Err.Code)
	assert.Equal(t, 7, got["fence.md"].Err.Line)

	require.True(t, got["warnings.md"].OK())
	require.Len(t, got["warnings.md"].Warnings, 1)

	assert.Equal(t, Summary{Files: 7, Valid: 3, Invalid: 4, Warnings: 1}, batch.Summary())
	assert.Len(t, batch.Valid(), 3)
	assert.Len(t, batch.Failed(), 4)
}

func TestLoad_DuplicateTitleAndDate(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": source("Same Title", "2023-12-16", ""),
		"b.md": source("  same   title ", "2023-12-16", ""),
		"c.md": source("Same Title", "2023-12-17", ""),
	}

	batch, err := Load(context.Background(), fsys, Options{})
	require.NoError(t, err)
	require.Len(t, batch.Results, 3)

	assert.True(t, batch.Results[0].OK())
	dup := batch.Results[1]
	require.False(t, dup.OK())
	assert.Equal(t, errors.ErrDuplicateArticle, dup.Err.Code)
	assert.Equal(t, "b.md", dup.Err.File)
	assert.Equal(t, "a.md", dup.Err.Details["first_file"])
	assert.True(t, batch.Results[2].OK(), "different date is a different article")
}

func TestLoad_DuplicateTitlesCompareCaseInsensitively(t *testing.T) {
	fsys := fstest.MapFS{
		"go.md":       source("Go", "2024-05-01", ""),
		"go-upper.md": source("GO", "2024-05-01", ""),
	}

	batch, err := Load(context.Background(), fsys, Options{})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)

	// Sorted order: go-upper.md comes first and wins.
	assert.True(t, batch.Results[0].OK())
	assert.Equal(t, errors.ErrDuplicateArticle, batch.Results[1].Err.Code)
	assert.Equal(t, "go-upper.md", batch.Results[1].Err.Details["first_file"])
}

func TestLoad_FileTooLarge(t *testing.T) {
	big := source("Big", "2023-01-01", strings.Repeat("word ", 100))
	fsys := fstest.MapFS{"big.md": big, "small.md": source("Small", "2023-01-01", "")}

	batch, err := Load(context.Background(), fsys, Options{MaxFileBytes: 200})
	require.NoError(t, err)

	require.Len(t, batch.Results, 2)
	assert.Equal(t, errors.ErrFileTooLarge, batch.Results[0].Err.Code)
	assert.True(t, batch.Results[1].OK())
}

func TestLoad_CustomDirectives(t *testing.T) {
	fsys := fstest.MapFS{"a.md": source("A", "2023-01-01", "<Tweet id=\"1\" />\n")}

	batch, err := Load(context.Background(), fsys, Options{Directives: []string{"Tweet"}})
	require.NoError(t, err)
	require.True(t, batch.Results[0].OK())
	assert.Len(t, batch.Results[0].Article.Directives(), 1)
}

func TestLoad_Cancelled(t *testing.T) {
	fsys := fstest.MapFS{"a.md": source("A", "2023-01-01", "")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, fsys, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCancelled))
}

func TestLoadPaths_MissingFile(t *testing.T) {
	batch, err := LoadPaths(context.Background(), fstest.MapFS{}, []string{"gone.md"}, Options{})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, errors.ErrFileNotFound, batch.Results[0].Err.Code)
}

func TestLoad_LogsRejections(t *testing.T) {
	var buf bytes.Buffer
	fsys := fstest.MapFS{"bad.md": {Data: []byte("nope")}}

	_, err := Load(context.Background(), fsys, Options{Logger: logging.NewWithWriter(&buf, "info")})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "article rejected")
	assert.Contains(t, buf.String(), "MALFORMED_FRONT_MATTER")
	assert.Contains(t, buf.String(), "ingestion finished")
}

func TestLoad_ManyFilesDeterministic(t *testing.T) {
	fsys := fstest.MapFS{}
	for i := 0; i < 50; i++ {
		fsys[fmt.Sprintf("p/%02d.md", i)] = source(fmt.Sprintf("Post %d", i), "2023-05-05", "body\n")
	}

	first, err := Load(context.Background(), fsys, Options{Workers: 8})
	require.NoError(t, err)
	second, err := Load(context.Background(), fsys, Options{Workers: 1})
	require.NoError(t, err)

	require.Len(t, first.Results, 50)
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Path, second.Results[i].Path)
		assert.Equal(t, first.Results[i].Checksum, second.Results[i].Checksum)
	}
}
