package article

import (
	"sort"
	"strings"
)

// Format serializes a into canonical source: front matter with quoted title and date,
// sorted flow-style tags, extra keys in key order, then body blocks separated by a
// blank line. Parsing the result yields an article Equal to a.
func Format(a *Article) (string, error) {
	var b strings.Builder

	fm, err := encodeFrontMatter(a)
	if err != nil {
		return "", err
	}
	b.WriteString(fm)

	for _, block := range a.Body {
		b.WriteString("\n")
		b.WriteString(formatBlock(block))
		b.WriteString("\n")
	}

	return b.String(), nil
}

func formatBlock(block Block) string {
	switch block.Kind {
	case KindHeading:
		level := min(max(block.Level, 1), 6)
		prefix := strings.Repeat("#", level)
		if block.Text == "" {
			return prefix
		}
		if strings.HasSuffix(block.Text, "#") {
			// A closing sequence keeps the text's own trailing # from being stripped.
			return prefix + " " + block.Text + " #"
		}
		return prefix + " " + block.Text
	case KindCode:
		lang := langOrDefault(block.Lang)
		char := byte('`')
		if strings.Contains(lang, "`") {
			char = '~'
		}
		marker := strings.Repeat(string(char), codeFenceSize(block.Text, char))
		return marker + lang + "\n" + withTrailingNewline(block.Text) + marker
	case KindDirective:
		return formatDirective(block.Name, block.Params)
	default:
		return block.Text
	}
}

// codeFenceSize picks a fence longer than any run of char that opens a line of
// text, so the text cannot close the fence early.
func codeFenceSize(text string, char byte) int {
	size := 3
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue
		}
		n := 0
		for n < len(trimmed) && trimmed[n] == char {
			n++
		}
		if n >= size {
			size = n + 1
		}
	}
	return size
}

func withTrailingNewline(text string) string {
	if text == "" {
		return ""
	}
	return text + "\n"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
