// Package ingest discovers article sources in a file tree and parses them in parallel.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/config"
	"github.com/hpungsan/folio/internal/errors"
	"github.com/hpungsan/folio/internal/logging"
)

// Options controls discovery and parsing.
type Options struct {
	Patterns     []string
	Directives   []string
	Workers      int
	MaxFileBytes int64
	Logger       *logging.Logger
}

// OptionsFromConfig builds Options from a validated configuration.
func OptionsFromConfig(cfg *config.Config, log *logging.Logger) Options {
	return Options{
		Patterns:     cfg.Patterns,
		Directives:   cfg.Directives,
		Workers:      cfg.Workers,
		MaxFileBytes: cfg.MaxFileBytes,
		Logger:       log,
	}
}

func (o Options) withDefaults() Options {
	def := config.DefaultConfig()
	if len(o.Patterns) == 0 {
		o.Patterns = def.Patterns
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = def.MaxFileBytes
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Result is the outcome for one source file. Exactly one of Article and Err is set.
type Result struct {
	Path     string
	Size     int64
	Checksum string // hex SHA-256 of the raw source
	Article  *article.Article
	Warnings []article.Warning
	Err      *errors.FolioError
}

// OK reports whether the file produced a valid article.
func (r Result) OK() bool {
	return r.Err == nil && r.Article != nil
}

// Batch holds per-file results ordered by path.
type Batch struct {
	Results []Result
}

// Summary counts batch outcomes.
type Summary struct {
	Files    int `json:"files"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Warnings int `json:"warnings"`
}

// Summary tallies the batch.
func (b *Batch) Summary() Summary {
	var s Summary
	for _, r := range b.Results {
		s.Files++
		if r.OK() {
			s.Valid++
		} else {
			s.Invalid++
		}
		s.Warnings += len(r.Warnings)
	}
	return s
}

// Valid returns the successful results in path order.
func (b *Batch) Valid() []Result {
	out := make([]Result, 0, len(b.Results))
	for _, r := range b.Results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the failed results in path order.
func (b *Batch) Failed() []Result {
	var out []Result
	for _, r := range b.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Discover returns the slash-separated paths in fsys whose names match one of patterns.
// Directories whose names begin with "." are skipped.
func Discover(ctx context.Context, fsys fs.FS, patterns []string) ([]string, error) {
	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.NewCancelled("discover")
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if matchesAny(p, patterns) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		var fErr *errors.FolioError
		if stderrors.As(err, &fErr) {
			return nil, fErr
		}
		return nil, errors.NewInternal(fmt.Errorf("walk content tree: %w", err))
	}
	sort.Strings(paths)
	return paths, nil
}

// matchesAny matches patterns without a slash against the base name, others against the full path.
func matchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		target := path.Base(p)
		if strings.Contains(pattern, "/") {
			target = p
		}
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// Load discovers and parses every matching file in fsys. Individual article failures
// are reported in the batch; only discovery failures and cancellation return an error.
func Load(ctx context.Context, fsys fs.FS, opts Options) (*Batch, error) {
	opts = opts.withDefaults()

	paths, err := Discover(ctx, fsys, opts.Patterns)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("discovered article sources", "count", len(paths))

	return LoadPaths(ctx, fsys, paths, opts)
}

// LoadPaths parses the given paths in parallel, bounded by opts.Workers.
func LoadPaths(ctx context.Context, fsys fs.FS, paths []string, opts Options) (*Batch, error) {
	opts = opts.withDefaults()
	parser := article.NewParser(article.Options{Directives: opts.Directives})

	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, p := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return errors.NewCancelled("ingest")
			}
			results[i] = LoadFile(fsys, p, parser, opts.MaxFileBytes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		opts.Logger.Warn("ingestion cancelled", "files", len(paths))
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	markDuplicates(results)

	batch := &Batch{Results: results}
	for _, r := range batch.Failed() {
		opts.Logger.Warn("article rejected", "path", r.Path, "code", string(r.Err.Code), "line", r.Err.Line, "error", r.Err.Message)
	}
	s := batch.Summary()
	opts.Logger.Info("ingestion finished", "files", s.Files, "valid", s.Valid, "invalid", s.Invalid, "warnings", s.Warnings)

	return batch, nil
}

// LoadFile reads and parses a single file.
func LoadFile(fsys fs.FS, p string, parser *article.Parser, maxBytes int64) Result {
	res := Result{Path: p}

	info, err := fs.Stat(fsys, p)
	if err != nil {
		res.Err = readError(p, err)
		return res
	}
	res.Size = info.Size()
	if maxBytes > 0 && info.Size() > maxBytes {
		res.Err = errors.NewFileTooLarge(maxBytes, info.Size()).WithFile(p)
		return res
	}

	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		res.Err = readError(p, err)
		return res
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		res.Err = errors.NewFileTooLarge(maxBytes, int64(len(data))).WithFile(p)
		return res
	}
	sum := sha256.Sum256(data)
	res.Checksum = hex.EncodeToString(sum[:])

	a, err := parser.Parse(p, data)
	if err != nil {
		res.Err = errors.As(err).WithFile(p)
		return res
	}
	res.Article = a
	res.Warnings = article.Lint(a)
	return res
}

func readError(p string, err error) *errors.FolioError {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewFileNotFound(p).WithFile(p)
	}
	return errors.NewInternal(fmt.Errorf("read %s: %w", p, err)).WithFile(p)
}

// markDuplicates fails every article whose title and date repeat an earlier path.
func markDuplicates(results []Result) {
	first := make(map[string]string, len(results))
	for i := range results {
		r := &results[i]
		if !r.OK() {
			continue
		}
		key := r.Article.Key()
		if prev, ok := first[key]; ok {
			r.Err = errors.NewDuplicateArticle(r.Article.Title, r.Article.Date.String(), prev).WithFile(r.Path)
			r.Article = nil
			r.Warnings = nil
			continue
		}
		first[key] = r.Path
	}
}
