package render

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/hpungsan/folio/internal/errors"
)

// Excerpt extracts up to maxRunes of plain text from the paragraphs of an HTML
// fragment. Longer text is cut at a word boundary and ends with an ellipsis.
func Excerpt(fragment string, maxRunes int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", errors.NewInternal(err)
	}

	var parts []string
	total := 0
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return true
		}
		parts = append(parts, text)
		total += utf8.RuneCountInString(text) + 1
		return maxRunes <= 0 || total <= maxRunes
	})

	return truncateWords(strings.Join(parts, " "), maxRunes), nil
}

func truncateWords(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:maxRunes])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
