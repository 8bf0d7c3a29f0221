package ops

import (
	"context"
	"io/fs"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/config"
	"github.com/hpungsan/folio/internal/ingest"
	"github.com/hpungsan/folio/internal/logging"
)

// CheckInput contains parameters for the Check operation.
type CheckInput struct {
	Paths []string // optional subset of the content tree; empty checks every matching file
}

// FileResult is the outcome for one source file.
type FileResult struct {
	Path     string            `json:"path"`
	OK       bool              `json:"ok"`
	Title    string            `json:"title,omitempty"`
	Date     string            `json:"date,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Warnings []article.Warning `json:"warnings,omitempty"`
	Error    *ErrorInfo        `json:"error,omitempty"`
}

// CheckOutput contains the result of the Check operation.
type CheckOutput struct {
	Results []FileResult   `json:"results"`
	Summary ingest.Summary `json:"summary"`
	OK      bool           `json:"ok"`
}

// Check validates the content tree without touching the catalog.
func Check(ctx context.Context, fsys fs.FS, cfg *config.Config, log *logging.Logger, input CheckInput) (*CheckOutput, error) {
	batch, err := load(ctx, fsys, cfg, log, input.Paths)
	if err != nil {
		return nil, err
	}
	return checkOutput(batch), nil
}

func load(ctx context.Context, fsys fs.FS, cfg *config.Config, log *logging.Logger, paths []string) (*ingest.Batch, error) {
	opts := ingest.OptionsFromConfig(cfg, log)
	if len(paths) > 0 {
		return ingest.LoadPaths(ctx, fsys, paths, opts)
	}
	return ingest.Load(ctx, fsys, opts)
}

func checkOutput(batch *ingest.Batch) *CheckOutput {
	out := &CheckOutput{
		Results: make([]FileResult, 0, len(batch.Results)),
		Summary: batch.Summary(),
	}
	for _, r := range batch.Results {
		out.Results = append(out.Results, fileResult(r))
	}
	out.OK = out.Summary.Invalid == 0
	return out
}

func fileResult(r ingest.Result) FileResult {
	fr := FileResult{
		Path:     r.Path,
		OK:       r.OK(),
		Warnings: r.Warnings,
		Error:    NewErrorInfo(r.Err),
	}
	if r.Article != nil {
		fr.Title = r.Article.Title
		fr.Date = r.Article.Date.String()
		fr.Tags = r.Article.Tags
	}
	return fr
}
