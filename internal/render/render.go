// Package render turns parsed articles into HTML.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

// DirectiveFunc renders one directive block.
type DirectiveFunc func(params map[string]string) (template.HTML, error)

// Options configures a Renderer.
type Options struct {
	// Extensions names goldmark extensions for prose. Empty means gfm, linkify and tasklist.
	Extensions []string

	// UnsafeHTML lets raw HTML in paragraphs through instead of omitting it.
	UnsafeHTML bool

	// Directives adds or replaces directive renderers by tag name.
	Directives map[string]DirectiveFunc

	// Lang is the document language attribute. Defaults to "en".
	Lang string
}

// Renderer converts articles to HTML. It is safe for concurrent use.
type Renderer struct {
	md         goldmark.Markdown
	directives map[string]DirectiveFunc
	layout     *template.Template
	lang       string
}

// New constructs a Renderer.
func New(opts Options) *Renderer {
	var rendererOptions []renderer.Option
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
		goldmark.WithRendererOptions(rendererOptions...),
	)

	directives := map[string]DirectiveFunc{
		"Video": renderVideo,
	}
	for name, fn := range opts.Directives {
		directives[name] = fn
	}

	funcMap := template.FuncMap{
		"formatDate": formatDate,
		"join":       strings.Join,
	}
	layout := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "templates/article.html"))

	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}

	return &Renderer{
		md:         md,
		directives: directives,
		layout:     layout,
		lang:       lang,
	}
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}

// HasDirective reports whether name has a renderer.
func (r *Renderer) HasDirective(name string) bool {
	_, ok := r.directives[name]
	return ok
}

// Body renders the article body as an HTML fragment, one element per block.
func (r *Renderer) Body(a *article.Article) (string, error) {
	var buf bytes.Buffer
	ids := make(map[string]int)

	for _, b := range a.Body {
		switch b.Kind {
		case article.KindParagraph:
			if err := r.md.Convert([]byte(b.Text), &buf); err != nil {
				return "", errors.NewInternal(fmt.Errorf("line %d: render paragraph: %w", b.Line, err))
			}
		case article.KindHeading:
			level := min(max(b.Level, 1), 6)
			inline, err := r.headingContent(level, b.Text)
			if err != nil {
				return "", errors.NewInternal(fmt.Errorf("line %d: render heading: %w", b.Line, err))
			}
			fmt.Fprintf(&buf, "<h%d id=\"%s\">%s</h%d>\n", level, headingID(ids, b.Text), inline, level)
		case article.KindCode:
			lang := b.Lang
			if lang == "" {
				lang = article.DefaultLanguage
			}
			fmt.Fprintf(&buf, "<pre><code class=\"language-%s\">%s</code></pre>\n",
				template.HTMLEscapeString(lang), template.HTMLEscapeString(withNewline(b.Text)))
		case article.KindDirective:
			out, err := r.directive(b)
			if err != nil {
				return "", err
			}
			buf.WriteString(string(out))
			buf.WriteByte('\n')
		}
	}

	return buf.String(), nil
}

func (r *Renderer) directive(b article.Block) (template.HTML, error) {
	fn, ok := r.directives[b.Name]
	if !ok {
		return template.HTML(fmt.Sprintf("<!-- %s directive -->", template.HTMLEscapeString(b.Name))), nil
	}
	out, err := fn(b.Params)
	if err != nil {
		return "", errors.NewInvalidField(b.Line, b.Name, err.Error())
	}
	return out, nil
}

// headingContent renders text as the inline content of an ATX heading, so leading
// list or quote markers stay literal. The closing " #" keeps a trailing # in text.
func (r *Renderer) headingContent(level int, text string) (string, error) {
	src := []byte(strings.Repeat("#", level) + " " + text + " #")
	doc := r.md.Parser().Parse(gmtext.NewReader(src))
	heading := doc.FirstChild()
	if heading == nil || heading.Kind() != ast.KindHeading {
		return template.HTMLEscapeString(text), nil
	}

	var buf bytes.Buffer
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if err := r.md.Renderer().Render(&buf, src, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// headingID slugs text and appends a counter when the slug repeats.
func headingID(seen map[string]int, text string) string {
	id := article.Slug(text)
	if id == "" {
		id = "heading"
	}
	n := seen[id]
	seen[id] = n + 1
	if n == 0 {
		return id
	}
	return id + "-" + strconv.Itoa(n)
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// documentData is the template data for the article page.
type documentData struct {
	Lang           string
	Title          string
	Date           string
	Description    string
	Tags           []string
	ReadingMinutes int
	Body           template.HTML
}

// Document renders a complete HTML page for a.
func (r *Renderer) Document(a *article.Article) (string, error) {
	body, err := r.Body(a)
	if err != nil {
		return "", err
	}

	description, _ := a.Extra["description"].(string)
	if description == "" {
		description, err = Excerpt(body, 160)
		if err != nil {
			return "", err
		}
	}

	data := documentData{
		Lang:           r.lang,
		Title:          a.Title,
		Date:           a.Date.String(),
		Description:    description,
		Tags:           a.Tags,
		ReadingMinutes: article.ComputeStats(a).ReadingMinutes,
		Body:           template.HTML(body),
	}

	var buf bytes.Buffer
	if err := r.layout.ExecuteTemplate(&buf, "article", data); err != nil {
		return "", errors.NewInternal(fmt.Errorf("render document: %w", err))
	}
	return buf.String(), nil
}

// formatDate formats a YYYY-MM-DD date as "January 2, 2006", or returns it unchanged.
func formatDate(s string) string {
	d, err := article.ParseDate(s)
	if err != nil {
		return s
	}
	return d.Time().Format("January 2, 2006")
}
