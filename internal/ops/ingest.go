package ops

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/hpungsan/folio/internal/catalog"
	"github.com/hpungsan/folio/internal/config"
	"github.com/hpungsan/folio/internal/logging"
)

// IngestOutput contains the result of the Ingest operation.
type IngestOutput struct {
	RunID   string       `json:"run_id"`
	Indexed int          `json:"indexed"`
	Failed  []FileResult `json:"failed"`
	Check   CheckOutput  `json:"-"`
}

// Ingest validates the content tree and rebuilds the catalog from the valid articles.
// Invalid articles are reported and left out; they never block the others.
func Ingest(ctx context.Context, database *sql.DB, fsys fs.FS, cfg *config.Config, log *logging.Logger) (*IngestOutput, error) {
	if log == nil {
		log = logging.Discard()
	}
	batch, err := load(ctx, fsys, cfg, log, nil)
	if err != nil {
		return nil, err
	}

	valid := batch.Valid()
	entries := make([]catalog.Entry, 0, len(valid))
	for _, r := range valid {
		entries = append(entries, catalog.Entry{
			Path:     r.Path,
			Checksum: r.Checksum,
			Size:     r.Size,
			Article:  r.Article,
		})
	}

	runID := catalog.NewID()
	if err := catalog.Replace(database, runID, entries); err != nil {
		return nil, err
	}
	log.Info("catalog rebuilt", "run_id", runID, "indexed", len(entries))

	check := checkOutput(batch)
	failed := make([]FileResult, 0)
	for _, r := range check.Results {
		if !r.OK {
			failed = append(failed, r)
		}
	}

	return &IngestOutput{
		RunID:   runID,
		Indexed: len(entries),
		Failed:  failed,
		Check:   *check,
	}, nil
}
