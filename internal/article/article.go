package article

import (
	"reflect"
	"slices"
)

// DefaultLanguage is the language recorded for code fences that declare none.
const DefaultLanguage = "text"

// BlockKind identifies the type of a body block.
type BlockKind string

const (
	KindParagraph BlockKind = "paragraph"
	KindHeading   BlockKind = "heading"
	KindCode      BlockKind = "code"
	KindDirective BlockKind = "directive"
)

// Block is one element of an article body.
// Which fields are meaningful depends on Kind:
//   - paragraph: Text
//   - heading: Level (1-6), Text
//   - code: Lang, Text (verbatim, never executed)
//   - directive: Name, Params
type Block struct {
	Kind   BlockKind         `json:"kind"`
	Text   string            `json:"text,omitempty"`
	Level  int               `json:"level,omitempty"`
	Lang   string            `json:"lang,omitempty"`
	Name   string            `json:"name,omitempty"`
	Params map[string]string `json:"params,omitempty"`

	// Line is the 1-based source line the block starts on. Zero for constructed blocks.
	Line int `json:"line,omitempty"`
}

// Article is a parsed, validated article. It is immutable once returned by Parse.
type Article struct {
	Title string   `json:"title"`
	Date  Date     `json:"date"`
	Tags  []string `json:"tags"`
	Body  []Block  `json:"body"`

	// Extra holds front-matter keys other than title, date and tags.
	Extra map[string]any `json:"extra,omitempty"`
}

func Paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

func Heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: level, Text: text}
}

// Code builds a code block; an empty lang defaults to DefaultLanguage.
func Code(lang, text string) Block {
	if lang == "" {
		lang = DefaultLanguage
	}
	return Block{Kind: KindCode, Lang: lang, Text: text}
}

func Directive(name string, params map[string]string) Block {
	return Block{Kind: KindDirective, Name: name, Params: params}
}

// Key returns the identity used to enforce title+date uniqueness.
func (a *Article) Key() string {
	return Normalize(a.Title) + "|" + a.Date.String()
}

// HasTag reports whether the article carries tag (exact match).
func (a *Article) HasTag(tag string) bool {
	return slices.Contains(a.Tags, tag)
}

// Directives returns the directive blocks in body order.
func (a *Article) Directives() []Block {
	var out []Block
	for _, b := range a.Body {
		if b.Kind == KindDirective {
			out = append(out, b)
		}
	}
	return out
}

// Equal reports whether two articles carry the same content.
// Source line numbers are ignored and tags compare as sets.
func Equal(a, b *Article) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Title != b.Title || a.Date != b.Date {
		return false
	}
	if !sameTagSet(a.Tags, b.Tags) {
		return false
	}
	if len(a.Body) != len(b.Body) {
		return false
	}
	for i := range a.Body {
		if !blockEqual(a.Body[i], b.Body[i]) {
			return false
		}
	}
	if len(a.Extra) == 0 && len(b.Extra) == 0 {
		return true
	}
	return reflect.DeepEqual(a.Extra, b.Extra)
}

func sameTagSet(a, b []string) bool {
	as := normalizeTags(a)
	bs := normalizeTags(b)
	return slices.Equal(as, bs)
}

func blockEqual(a, b Block) bool {
	if a.Kind != b.Kind || a.Text != b.Text {
		return false
	}
	switch a.Kind {
	case KindHeading:
		return a.Level == b.Level
	case KindCode:
		return langOrDefault(a.Lang) == langOrDefault(b.Lang)
	case KindDirective:
		if a.Name != b.Name || len(a.Params) != len(b.Params) {
			return false
		}
		for k, v := range a.Params {
			if bv, ok := b.Params[k]; !ok || bv != v {
				return false
			}
		}
	}
	return true
}

func langOrDefault(lang string) string {
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

// normalizeTags returns the sorted, de-duplicated set of non-empty tags.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
