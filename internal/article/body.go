package article

import (
	"regexp"
	"strings"

	"github.com/hpungsan/folio/internal/errors"
)

// fenceOpenPattern matches an opening code fence (``` or ~~~, three or more) indented
// by at most three spaces. Groups: fence characters, info string.
var fenceOpenPattern = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})(.*)$")

// trailingFencePattern matches paragraph text followed by an opening fence on the same
// line, e.g. "Hello ```js". Groups: text, fence characters, language.
var trailingFencePattern = regexp.MustCompile("^(.*\\S)[ \\t]+(`{3,}|~{3,})([^`\\s]*)$")

// headingPattern matches ATX headings. Groups: hash symbols, remainder.
var headingPattern = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*))?$`)

// fence describes an open code fence.
type fence struct {
	char byte
	size int
	line int
}

func (f fence) String() string {
	return strings.Repeat(string(f.char), f.size)
}

// closes reports whether line terminates f: same character, at least as long,
// nothing but whitespace after it.
func (f fence) closes(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == f.char {
		n++
	}
	if n < f.size {
		return false
	}
	return strings.TrimSpace(trimmed[n:]) == ""
}

// openFence reports whether line opens a code fence and returns its language.
func openFence(line string) (fence, string, bool) {
	m := fenceOpenPattern.FindStringSubmatch(line)
	if m == nil {
		return fence{}, "", false
	}
	marker, info := m[1], m[2]
	// A backtick fence's info string may not contain backticks.
	if marker[0] == '`' && strings.Contains(info, "`") {
		return fence{}, "", false
	}
	return fence{char: marker[0], size: len(marker)}, firstField(info), true
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// blockScanner splits body lines into blocks.
type blockScanner struct {
	lines      []string
	base       int // source line number of lines[0]
	directives map[string]bool

	blocks   []Block
	para     []string
	paraLine int
}

func scanBlocks(lines []string, base int, directives map[string]bool) ([]Block, *errors.FolioError) {
	s := &blockScanner{lines: lines, base: base, directives: directives}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.blocks, nil
}

func (s *blockScanner) run() *errors.FolioError {
	for i := 0; i < len(s.lines); i++ {
		raw := s.lines[i]
		line := strings.TrimRight(raw, " \t")
		lineNo := s.base + i

		if line == "" {
			s.flush()
			continue
		}

		if f, lang, ok := openFence(line); ok {
			s.flush()
			f.line = lineNo
			next, err := s.readFence(i+1, f, lang)
			if err != nil {
				return err
			}
			i = next
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			s.flush()
			s.blocks = append(s.blocks, Block{
				Kind:  KindHeading,
				Level: len(m[1]),
				Text:  headingText(m[2]),
				Line:  lineNo,
			})
			continue
		}

		if name, params, ok := parseDirective(line); ok && s.directives[name] {
			s.flush()
			s.blocks = append(s.blocks, Block{
				Kind:   KindDirective,
				Name:   name,
				Params: params,
				Line:   lineNo,
			})
			continue
		}

		if m := trailingFencePattern.FindStringSubmatch(line); m != nil && !strings.Contains(m[1], m[2][:3]) {
			s.addParagraphLine(m[1], lineNo)
			s.flush()
			f := fence{char: m[2][0], size: len(m[2]), line: lineNo}
			next, err := s.readFence(i+1, f, m[3])
			if err != nil {
				return err
			}
			i = next
			continue
		}

		// Unknown directives and everything else are paragraph text.
		s.addParagraphLine(line, lineNo)
	}
	s.flush()
	return nil
}

// readFence consumes fenced content starting at line index start and returns the
// index of the closing fence line.
func (s *blockScanner) readFence(start int, f fence, lang string) (int, *errors.FolioError) {
	for j := start; j < len(s.lines); j++ {
		if f.closes(s.lines[j]) {
			if lang == "" {
				lang = DefaultLanguage
			}
			s.blocks = append(s.blocks, Block{
				Kind: KindCode,
				Lang: lang,
				Text: strings.Join(s.lines[start:j], "\n"),
				Line: f.line,
			})
			return j, nil
		}
	}
	return 0, errors.NewUnterminatedCodeFence(f.line, f.String())
}

func (s *blockScanner) addParagraphLine(line string, lineNo int) {
	if len(s.para) == 0 {
		s.paraLine = lineNo
	}
	s.para = append(s.para, line)
}

func (s *blockScanner) flush() {
	if len(s.para) == 0 {
		return
	}
	s.blocks = append(s.blocks, Block{
		Kind: KindParagraph,
		Text: strings.Join(s.para, "\n"),
		Line: s.paraLine,
	})
	s.para = nil
}

// headingText strips surrounding whitespace and an optional closing sequence of #s.
func headingText(rest string) string {
	text := strings.TrimSpace(rest)
	stripped := strings.TrimRight(text, "#")
	if stripped == "" {
		return ""
	}
	if stripped != text && (strings.HasSuffix(stripped, " ") || strings.HasSuffix(stripped, "\t")) {
		return strings.TrimSpace(stripped)
	}
	return text
}
