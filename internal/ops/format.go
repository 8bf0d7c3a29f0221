package ops

import (
	"fmt"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/config"
	"github.com/hpungsan/folio/internal/errors"
)

// ParseInput contains parameters for the Parse and Format operations.
type ParseInput struct {
	Name    string // used in error positions; defaults to "<input>"
	Content string
}

// ParseOutput contains the result of the Parse operation.
type ParseOutput struct {
	Article  *article.Article  `json:"article"`
	Slug     string            `json:"slug"`
	Stats    article.Stats     `json:"stats"`
	Warnings []article.Warning `json:"warnings"`
}

// Parse validates raw article source without reading the content tree.
func Parse(cfg *config.Config, input ParseInput) (*ParseOutput, error) {
	a, err := parseSource(cfg, input)
	if err != nil {
		return nil, err
	}
	warnings := article.Lint(a)
	if warnings == nil {
		warnings = []article.Warning{}
	}
	return &ParseOutput{
		Article:  a,
		Slug:     article.Slug(a.Title),
		Stats:    article.ComputeStats(a),
		Warnings: warnings,
	}, nil
}

// FormatOutput contains the result of the Format operation.
type FormatOutput struct {
	Formatted string `json:"formatted"`
	Changed   bool   `json:"changed"`
}

// Format rewrites article source in canonical form. The result is parsed again
// and must describe the same article, so a caller can safely write it back.
func Format(cfg *config.Config, input ParseInput) (*FormatOutput, error) {
	a, err := parseSource(cfg, input)
	if err != nil {
		return nil, err
	}
	formatted, err := article.Format(a)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := verifyFormatted(cfg, input.Name, a, formatted); err != nil {
		return nil, err
	}
	return &FormatOutput{
		Formatted: formatted,
		Changed:   formatted != input.Content,
	}, nil
}

func parseSource(cfg *config.Config, input ParseInput) (*article.Article, error) {
	name := sourceName(input.Name)
	var directives []string
	if cfg != nil {
		directives = cfg.Directives
	}
	p := article.NewParser(article.Options{Directives: directives})
	return p.Parse(name, []byte(input.Content))
}

func verifyFormatted(cfg *config.Config, name string, a *article.Article, formatted string) error {
	back, err := parseSource(cfg, ParseInput{Name: name, Content: formatted})
	if err != nil {
		return errors.NewInternal(fmt.Errorf("canonical form does not parse: %w", err))
	}
	if !article.Equal(a, back) {
		return errors.NewInternal(fmt.Errorf("canonical form of %s changes the article", sourceName(name)))
	}
	return nil
}

func sourceName(name string) string {
	if name == "" {
		return "<input>"
	}
	return name
}
