package ops

import (
	"database/sql"

	"github.com/hpungsan/folio/internal/catalog"
	"github.com/hpungsan/folio/internal/errors"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Tag    string // optional exact tag
	Since  string // optional YYYY-MM-DD, inclusive
	Until  string // optional YYYY-MM-DD, inclusive
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []catalog.Summary `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Sort       string            `json:"sort"`
}

// List retrieves article summaries, newest first, with pagination.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	since, err := parseOptionalDate("since", input.Since)
	if err != nil {
		return nil, err
	}
	until, err := parseOptionalDate("until", input.Until)
	if err != nil {
		return nil, err
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return nil, errors.NewInvalidRequest("until must not be before since")
	}

	limit := clampLimit(input.Limit)
	offset := max(input.Offset, 0)

	summaries, total, err := catalog.List(database, catalog.Filter{
		Tag:   input.Tag,
		Since: since,
		Until: until,
	}, limit, offset)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if summaries == nil {
		summaries = []catalog.Summary{}
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "date_desc",
	}, nil
}
