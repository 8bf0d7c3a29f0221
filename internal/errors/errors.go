package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Folio error code.
type ErrorCode string

const (
	ErrMalformedFrontMatter  ErrorCode = "MALFORMED_FRONT_MATTER"  // 422
	ErrMissingField          ErrorCode = "MISSING_FIELD"           // 422
	ErrInvalidField          ErrorCode = "INVALID_FIELD"           // 422
	ErrInvalidDate           ErrorCode = "INVALID_DATE"            // 422
	ErrUnterminatedCodeFence ErrorCode = "UNTERMINATED_CODE_FENCE" // 422
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"         // 400
	ErrAmbiguousAddressing   ErrorCode = "AMBIGUOUS_ADDRESSING"    // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"               // 404
	ErrFileNotFound          ErrorCode = "FILE_NOT_FOUND"          // 404
	ErrDuplicateArticle      ErrorCode = "DUPLICATE_ARTICLE"       // 409
	ErrFileTooLarge          ErrorCode = "FILE_TOO_LARGE"          // 413
	ErrCancelled             ErrorCode = "CANCELLED"               // 499
	ErrInternal              ErrorCode = "INTERNAL"                // 500
)

// FolioError represents a structured error with code, status, position and details.
// File and Line are set for errors tied to a single source article; Line is 1-based.
type FolioError struct {
	Code    ErrorCode
	Status  int
	Message string
	File    string
	Line    int
	Details map[string]any
}

// Error implements the error interface.
func (e *FolioError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithFile returns a copy of e attributed to the given file.
func (e *FolioError) WithFile(file string) *FolioError {
	cp := *e
	cp.File = file
	return &cp
}

// NewMalformedFrontMatter creates a 422 error for a missing, unterminated or undecodable front-matter block.
func NewMalformedFrontMatter(line int, msg string) *FolioError {
	return &FolioError{
		Code:    ErrMalformedFrontMatter,
		Status:  422,
		Message: msg,
		Line:    line,
	}
}

// NewMissingField creates a 422 error for a required front-matter field that is absent.
func NewMissingField(line int, field string) *FolioError {
	return &FolioError{
		Code:    ErrMissingField,
		Status:  422,
		Message: fmt.Sprintf("missing required field %q", field),
		Line:    line,
		Details: map[string]any{"field": field},
	}
}

// NewInvalidField creates a 422 error for a front-matter field with the wrong shape.
func NewInvalidField(line int, field, reason string) *FolioError {
	return &FolioError{
		Code:    ErrInvalidField,
		Status:  422,
		Message: fmt.Sprintf("field %q %s", field, reason),
		Line:    line,
		Details: map[string]any{"field": field},
	}
}

// NewInvalidDate creates a 422 error for a date that is not a YYYY-MM-DD calendar day.
func NewInvalidDate(line int, value string) *FolioError {
	return &FolioError{
		Code:    ErrInvalidDate,
		Status:  422,
		Message: fmt.Sprintf("date %q is not a valid YYYY-MM-DD calendar date", value),
		Line:    line,
		Details: map[string]any{"value": value},
	}
}

// NewUnterminatedCodeFence creates a 422 error for a code fence that is never closed.
func NewUnterminatedCodeFence(line int, fence string) *FolioError {
	return &FolioError{
		Code:    ErrUnterminatedCodeFence,
		Status:  422,
		Message: fmt.Sprintf("code fence %s opened here is never closed", fence),
		Line:    line,
		Details: map[string]any{"fence": fence},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FolioError {
	return &FolioError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewAmbiguousAddressing creates a 400 error for when both ID and slug are provided.
func NewAmbiguousAddressing() *FolioError {
	return &FolioError{
		Code:    ErrAmbiguousAddressing,
		Status:  400,
		Message: "cannot specify both id and slug; use one addressing mode",
	}
}

// NewNotFound creates a 404 error for when an article cannot be found.
func NewNotFound(identifier string) *FolioError {
	return &FolioError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("article not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file path.
func NewFileNotFound(path string) *FolioError {
	return &FolioError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewDuplicateArticle creates a 409 error when two articles share title and date.
func NewDuplicateArticle(title, date, firstFile string) *FolioError {
	return &FolioError{
		Code:    ErrDuplicateArticle,
		Status:  409,
		Message: fmt.Sprintf("article %q dated %s already defined in %s", title, date, firstFile),
		Line:    1,
		Details: map[string]any{"title": title, "date": date, "first_file": firstFile},
	}
}

// NewFileTooLarge creates a 413 error when a source file exceeds the size limit.
func NewFileTooLarge(max, actual int64) *FolioError {
	return &FolioError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewCancelled creates a 499 error for an operation interrupted by its context.
func NewCancelled(operation string) *FolioError {
	return &FolioError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *FolioError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &FolioError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a FolioError with the given code.
func Is(err error, code ErrorCode) bool {
	var fErr *FolioError
	if stderrors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}

// As extracts a FolioError from err, wrapping unknown errors as internal.
func As(err error) *FolioError {
	if err == nil {
		return nil
	}
	var fErr *FolioError
	if stderrors.As(err, &fErr) {
		return fErr
	}
	return NewInternal(err)
}
