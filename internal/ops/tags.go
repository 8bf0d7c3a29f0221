package ops

import (
	"database/sql"

	"github.com/hpungsan/folio/internal/catalog"
)

// TagsOutput contains the result of the Tags operation.
type TagsOutput struct {
	Tags  []catalog.TagCount `json:"tags"`
	Total int                `json:"total"`
}

// Tags lists every tag with the number of articles carrying it.
func Tags(database *sql.DB) (*TagsOutput, error) {
	tags, err := catalog.TagCounts(database)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []catalog.TagCount{}
	}
	return &TagsOutput{Tags: tags, Total: len(tags)}, nil
}
