package ops

import (
	"database/sql"

	"github.com/hpungsan/folio/internal/render"
)

// ExcerptChars bounds the plain-text excerpt returned with rendered HTML.
const ExcerptChars = 200

// RenderInput contains parameters for the Render operation.
type RenderInput struct {
	ID       string
	Slug     string
	Document bool // full HTML page instead of a body fragment
}

// RenderOutput contains the result of the Render operation.
type RenderOutput struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	HTML    string `json:"html"`
	Excerpt string `json:"excerpt"`
}

// Render converts an indexed article to HTML.
func Render(database *sql.DB, r *render.Renderer, input RenderInput) (*RenderOutput, error) {
	fetched, err := Fetch(database, FetchInput{ID: input.ID, Slug: input.Slug})
	if err != nil {
		return nil, err
	}
	a := fetched.Article

	body, err := r.Body(a)
	if err != nil {
		return nil, err
	}
	excerpt, err := render.Excerpt(body, ExcerptChars)
	if err != nil {
		return nil, err
	}

	html := body
	if input.Document {
		if html, err = r.Document(a); err != nil {
			return nil, err
		}
	}

	return &RenderOutput{
		ID:      fetched.ID,
		Slug:    fetched.Slug,
		Title:   a.Title,
		HTML:    html,
		Excerpt: excerpt,
	}, nil
}
