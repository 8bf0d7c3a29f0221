package ops

import (
	"database/sql"

	"github.com/hpungsan/folio/internal/catalog"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID          string
	Slug        string
	IncludeBody *bool // default: true (nil means default)
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	catalog.Record
}

// Fetch retrieves an article by ID or slug.
func Fetch(database *sql.DB, input FetchInput) (*FetchOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Slug)
	if err != nil {
		return nil, err
	}

	var r *catalog.Record
	if addr.ByID {
		r, err = catalog.GetByID(database, addr.ID)
	} else {
		r, err = catalog.GetBySlug(database, addr.Slug)
	}
	if err != nil {
		return nil, err
	}

	includeBody := true
	if input.IncludeBody != nil {
		includeBody = *input.IncludeBody
	}
	if !includeBody {
		a := *r.Article
		a.Body = nil
		r.Article = &a
	}

	return &FetchOutput{Record: *r}, nil
}
