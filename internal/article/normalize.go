package article

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// wordsPerMinute is the reading speed used for ReadingMinutes.
const wordsPerMinute = 200

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace to single spaces.
// Two titles that normalize to the same string name the same article.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// Slug converts a title into a lowercase, hyphen-separated URL segment.
// Letters and digits from any script are kept; everything else becomes a separator.
func Slug(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		if r == '\'' || r == '’' {
			// Apostrophes join words: "don't" -> "dont".
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Stats summarizes the size of an article.
type Stats struct {
	Words          int `json:"words"`
	CodeBlocks     int `json:"code_blocks"`
	Directives     int `json:"directives"`
	Headings       int `json:"headings"`
	ReadingMinutes int `json:"reading_minutes"`
}

// ComputeStats counts prose words (paragraphs and headings) and block kinds.
// Code is excluded from the word count.
func ComputeStats(a *Article) Stats {
	var s Stats
	for _, b := range a.Body {
		switch b.Kind {
		case KindParagraph:
			s.Words += CountWords(b.Text)
		case KindHeading:
			s.Headings++
			s.Words += CountWords(b.Text)
		case KindCode:
			s.CodeBlocks++
		case KindDirective:
			s.Directives++
		}
	}
	s.ReadingMinutes = EstimateReadingMinutes(s.Words)
	return s
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// EstimateReadingMinutes rounds up to whole minutes; any prose takes at least one.
func EstimateReadingMinutes(words int) int {
	if words <= 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}
