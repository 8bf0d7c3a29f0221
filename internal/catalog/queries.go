package catalog

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/errors"
)

// Entry is a validated article ready to be indexed.
type Entry struct {
	Path     string
	Checksum string
	Size     int64
	Article  *article.Article
}

// Record is an indexed article with its derived fields.
type Record struct {
	ID         string           `json:"id"`
	RunID      string           `json:"run_id"`
	Path       string           `json:"path"`
	Slug       string           `json:"slug"`
	Checksum   string           `json:"checksum"`
	Size       int64            `json:"size_bytes"`
	IngestedAt int64            `json:"ingested_at"`
	Stats      article.Stats    `json:"stats"`
	Article    *article.Article `json:"article"`
}

// Summary is the list view of a record, without the body.
type Summary struct {
	ID             string   `json:"id"`
	Slug           string   `json:"slug"`
	Path           string   `json:"path"`
	Title          string   `json:"title"`
	Date           string   `json:"date"`
	Tags           []string `json:"tags"`
	Words          int      `json:"words"`
	ReadingMinutes int      `json:"reading_minutes"`
}

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	Tag   string
	Since article.Date
	Until article.Date
}

// TagCount is the number of articles carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// NewID returns a fresh ULID string.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Replace swaps the whole index for entries inside one transaction.
// IDs of paths already present are kept so links stay stable across rebuilds.
func Replace(db *sql.DB, runID string, entries []Entry) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	existing, err := idsByPath(tx)
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := tx.Exec(`DELETE FROM article_tags`); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := tx.Exec(`DELETE FROM articles`); err != nil {
		return errors.NewInternal(err)
	}

	insertArticle, err := tx.Prepare(`
		INSERT INTO articles (
			id, run_id, path, slug, title, title_norm, date,
			tags_json, extra_json, body_json, checksum, size_bytes,
			words, code_blocks, directives, headings, reading_minutes, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer insertArticle.Close()

	insertTag, err := tx.Prepare(`INSERT INTO article_tags (article_id, tag) VALUES (?, ?)`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer insertTag.Close()

	now := time.Now().Unix()
	slugs := make(map[string]bool, len(entries))
	entropy := ulid.Monotonic(rand.Reader, 0)

	for _, e := range entries {
		a := e.Article
		id, ok := existing[e.Path]
		if !ok {
			id = ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		}

		tagsJSON, err := json.Marshal(nonNilTags(a.Tags))
		if err != nil {
			return errors.NewInternal(err)
		}
		bodyJSON, err := json.Marshal(a.Body)
		if err != nil {
			return errors.NewInternal(err)
		}
		var extraJSON sql.NullString
		if len(a.Extra) > 0 {
			data, err := json.Marshal(a.Extra)
			if err != nil {
				return errors.NewInternal(fmt.Errorf("%s: extra front matter: %w", e.Path, err))
			}
			extraJSON = sql.NullString{String: string(data), Valid: true}
		}

		stats := article.ComputeStats(a)
		_, err = insertArticle.Exec(
			id, runID, e.Path, uniqueSlug(slugs, a), a.Title, article.Normalize(a.Title), a.Date.String(),
			string(tagsJSON), extraJSON, string(bodyJSON), e.Checksum, e.Size,
			stats.Words, stats.CodeBlocks, stats.Directives, stats.Headings, stats.ReadingMinutes, now,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return errors.NewDuplicateArticle(a.Title, a.Date.String(), e.Path).WithFile(e.Path)
			}
			return errors.NewInternal(err)
		}

		for _, tag := range a.Tags {
			if _, err := insertTag.Exec(id, tag); err != nil {
				return errors.NewInternal(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func idsByPath(tx *sql.Tx) (map[string]string, error) {
	rows, err := tx.Query(`SELECT path, id FROM articles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]string)
	for rows.Next() {
		var path, id string
		if err := rows.Scan(&path, &id); err != nil {
			return nil, err
		}
		ids[path] = id
	}
	return ids, rows.Err()
}

// uniqueSlug derives a slug from the title, falling back to the date and then a counter.
func uniqueSlug(used map[string]bool, a *article.Article) string {
	base := article.Slug(a.Title)
	if base == "" {
		base = "article"
	}
	candidates := []string{base, base + "-" + a.Date.String()}
	for _, c := range candidates {
		if !used[c] {
			used[c] = true
			return c
		}
	}
	for n := 2; ; n++ {
		c := fmt.Sprintf("%s-%s-%d", base, a.Date.String(), n)
		if !used[c] {
			used[c] = true
			return c
		}
	}
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const recordColumns = `
	id, run_id, path, slug, title, date, tags_json, extra_json, body_json,
	checksum, size_bytes, words, code_blocks, directives, headings, reading_minutes, ingested_at
`

// GetByID retrieves an article by its ULID.
func GetByID(db *sql.DB, id string) (*Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM articles WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetBySlug retrieves an article by its slug.
func GetBySlug(db *sql.DB, slug string) (*Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM articles WHERE slug = ?`, slug)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(slug)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// List returns summaries matching f, newest first, and the total match count.
func List(db *sql.DB, f Filter, limit, offset int) ([]Summary, int, error) {
	where, args := f.clause()

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM articles a`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT a.id, a.slug, a.path, a.title, a.date, a.tags_json, a.words, a.reading_minutes
		FROM articles a` + where + `
		ORDER BY a.date DESC, a.title_norm ASC
		LIMIT ? OFFSET ?
	`
	rows, err := db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s        Summary
			tagsJSON string
		)
		if err := rows.Scan(&s.ID, &s.Slug, &s.Path, &s.Title, &s.Date, &tagsJSON, &s.Words, &s.ReadingMinutes); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &s.Tags); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return out, total, nil
}

func (f Filter) clause() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM article_tags t WHERE t.article_id = a.id AND t.tag = ?)`)
		args = append(args, tag)
	}
	if !f.Since.IsZero() {
		conds = append(conds, `a.date >= ?`)
		args = append(args, f.Since.String())
	}
	if !f.Until.IsZero() {
		conds = append(conds, `a.date <= ?`)
		args = append(args, f.Until.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// TagCounts returns every tag with its article count, most used first.
func TagCounts(db *sql.DB) ([]TagCount, error) {
	rows, err := db.Query(`
		SELECT tag, COUNT(*) AS n
		FROM article_tags
		GROUP BY tag
		ORDER BY n DESC, tag ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// Count returns the number of indexed articles.
func Count(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// StreamAll calls fn for every record in date order, oldest first. Iteration stops at
// the first error fn returns.
func StreamAll(db *sql.DB, fn func(*Record) error) error {
	rows, err := db.Query(`SELECT ` + recordColumns + ` FROM articles ORDER BY date ASC, title_norm ASC`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return errors.NewInternal(err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r         Record
		a         article.Article
		date      string
		tagsJSON  string
		extraJSON sql.NullString
		bodyJSON  string
	)

	err := row.Scan(
		&r.ID, &r.RunID, &r.Path, &r.Slug, &a.Title, &date, &tagsJSON, &extraJSON, &bodyJSON,
		&r.Checksum, &r.Size, &r.Stats.Words, &r.Stats.CodeBlocks, &r.Stats.Directives,
		&r.Stats.Headings, &r.Stats.ReadingMinutes, &r.IngestedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.Date, err = article.ParseDate(date); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &a.Tags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bodyJSON), &a.Body); err != nil {
		return nil, err
	}
	if extraJSON.Valid && extraJSON.String != "" {
		if err := json.Unmarshal([]byte(extraJSON.String), &a.Extra); err != nil {
			return nil, err
		}
	}

	r.Article = &a
	return &r, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
