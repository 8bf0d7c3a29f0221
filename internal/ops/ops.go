package ops

import (
	"strings"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Address represents a validated article address.
type Address struct {
	ByID bool
	ID   string
	Slug string
}

// ValidateAddress validates addressing parameters and returns a normalized Address.
// Rules:
// - Must specify exactly one addressing mode: id OR slug
// - If both are provided → ErrAmbiguousAddressing
// - If neither is provided → ErrInvalidRequest
func ValidateAddress(id, slug string) (*Address, error) {
	id = strings.TrimSpace(id)
	slug = strings.ToLower(strings.TrimSpace(slug))

	if id != "" && slug != "" {
		return nil, errors.NewAmbiguousAddressing()
	}
	if id == "" && slug == "" {
		return nil, errors.NewInvalidRequest("must specify either id or slug")
	}

	if id != "" {
		return &Address{ByID: true, ID: id}, nil
	}
	return &Address{Slug: slug}, nil
}

// ErrorInfo is the JSON form of a per-article failure.
type ErrorInfo struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	File    string           `json:"file,omitempty"`
	Line    int              `json:"line,omitempty"`
	Details map[string]any   `json:"details,omitempty"`
}

// NewErrorInfo converts a FolioError for output. Internal errors drop their details.
func NewErrorInfo(err *errors.FolioError) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{
		Code:    err.Code,
		Message: err.Message,
		File:    err.File,
		Line:    err.Line,
	}
	if err.Code != errors.ErrInternal {
		info.Details = err.Details
	}
	return info
}

// parseOptionalDate parses a YYYY-MM-DD filter value; empty means no bound.
func parseOptionalDate(field, value string) (article.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return article.Date{}, nil
	}
	d, err := article.ParseDate(value)
	if err != nil {
		return article.Date{}, errors.NewInvalidRequest(field + " must be a YYYY-MM-DD date")
	}
	return d, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
