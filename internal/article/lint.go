package article

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Warning codes reported by Lint.
const (
	WarnEmptyBody       = "EMPTY_BODY"
	WarnHeadingJump     = "HEADING_JUMP"
	WarnMissingParam    = "DIRECTIVE_MISSING_PARAM"
	WarnEmptyParam      = "DIRECTIVE_EMPTY_PARAM"
	WarnTagCaseVariants = "TAG_CASE_VARIANTS"
	WarnLongTitle       = "LONG_TITLE"
)

// MaxTitleChars is the title length above which Lint warns.
const MaxTitleChars = 120

// Warning is a non-fatal finding about a parsed article.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// directiveParams lists the parameters each known directive needs to render.
var directiveParams = map[string][]string{
	"Video": {"videoID"},
}

// RequiredParams returns the parameters a directive needs, or nil if none are known.
func RequiredParams(name string) []string {
	return directiveParams[name]
}

// Lint checks a parsed article for problems that do not prevent ingestion.
func Lint(a *Article) []Warning {
	var warnings []Warning

	if utf8.RuneCountInString(a.Title) > MaxTitleChars {
		warnings = append(warnings, Warning{
			Code:    WarnLongTitle,
			Message: fmt.Sprintf("title is %d characters (max %d)", utf8.RuneCountInString(a.Title), MaxTitleChars),
		})
	}

	warnings = append(warnings, findTagCaseVariants(a.Tags)...)

	if len(a.Body) == 0 {
		warnings = append(warnings, Warning{Code: WarnEmptyBody, Message: "article has no body content"})
		return warnings
	}

	lastLevel := 0
	for _, b := range a.Body {
		switch b.Kind {
		case KindHeading:
			if lastLevel > 0 && b.Level > lastLevel+1 {
				warnings = append(warnings, Warning{
					Code:    WarnHeadingJump,
					Message: fmt.Sprintf("heading level jumps from h%d to h%d", lastLevel, b.Level),
					Line:    b.Line,
				})
			}
			lastLevel = b.Level
		case KindDirective:
			warnings = append(warnings, checkDirective(b)...)
		}
	}

	return warnings
}

func checkDirective(b Block) []Warning {
	var warnings []Warning
	for _, param := range directiveParams[b.Name] {
		value, ok := b.Params[param]
		switch {
		case !ok:
			warnings = append(warnings, Warning{
				Code:    WarnMissingParam,
				Message: fmt.Sprintf("<%s> is missing required parameter %q", b.Name, param),
				Line:    b.Line,
			})
		case strings.TrimSpace(value) == "":
			warnings = append(warnings, Warning{
				Code:    WarnEmptyParam,
				Message: fmt.Sprintf("<%s> parameter %q is empty", b.Name, param),
				Line:    b.Line,
			})
		}
	}
	return warnings
}

// findTagCaseVariants reports tags that differ only by case, e.g. "Go" and "go".
func findTagCaseVariants(tags []string) []Warning {
	seen := make(map[string]string, len(tags))
	var warnings []Warning
	for _, t := range tags {
		lower := strings.ToLower(t)
		if first, ok := seen[lower]; ok {
			warnings = append(warnings, Warning{
				Code:    WarnTagCaseVariants,
				Message: fmt.Sprintf("tags %q and %q differ only by case", first, t),
			})
			continue
		}
		seen[lower] = t
	}
	return warnings
}
