package article

import (
	"strings"

	"github.com/hpungsan/folio/internal/errors"
)

// DefaultDirectives are the directive names recognized when none are configured.
var DefaultDirectives = []string{"Video"}

// Options configures a Parser.
type Options struct {
	// Directives lists recognized directive tag names. Empty means DefaultDirectives.
	Directives []string
}

// Parser turns article source into Articles. It holds no mutable state and is
// safe for concurrent use.
type Parser struct {
	directives map[string]bool
}

// NewParser constructs a Parser.
func NewParser(opts Options) *Parser {
	names := opts.Directives
	if len(names) == 0 {
		names = DefaultDirectives
	}
	directives := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			directives[n] = true
		}
	}
	return &Parser{directives: directives}
}

var defaultParser = NewParser(Options{})

// Parse parses src with the default directive set. name identifies the source in errors.
func Parse(name string, src []byte) (*Article, error) {
	return defaultParser.Parse(name, src)
}

// Recognizes reports whether name is a recognized directive.
func (p *Parser) Recognizes(name string) bool {
	return p.directives[name]
}

// Parse parses src into a validated Article. Failures are *errors.FolioError values
// carrying name as File and the 1-based line of the problem.
func (p *Parser) Parse(name string, src []byte) (*Article, error) {
	a, fErr := p.parse(src)
	if fErr != nil {
		if name != "" {
			fErr = fErr.WithFile(name)
		}
		return nil, fErr
	}
	return a, nil
}

func (p *Parser) parse(src []byte) (*Article, *errors.FolioError) {
	lines := splitLines(src)

	block, bodyStart, err := splitFrontMatter(lines)
	if err != nil {
		return nil, err
	}

	fm, err := decodeFrontMatter(block)
	if err != nil {
		return nil, err
	}

	body, err := scanBlocks(lines[bodyStart:], bodyStart+1, p.directives)
	if err != nil {
		return nil, err
	}

	return &Article{
		Title: fm.Title,
		Date:  fm.Date,
		Tags:  fm.Tags,
		Body:  body,
		Extra: fm.Extra,
	}, nil
}

// splitLines normalizes line endings, drops a UTF-8 byte order mark and splits on
// newlines. A trailing newline does not produce an extra empty line.
func splitLines(src []byte) []string {
	text := string(src)
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
