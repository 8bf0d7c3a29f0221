package render

import (
	"html/template"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/errors"
)

func parseHTML(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func sample() *article.Article {
	return &article.Article{
		Title: "Auth in Next.js",
		Date:  article.Date{Year: 2023, Month: 12, Day: 16},
		Tags:  []string{"auth", "next"},
		Body: []article.Block{
			article.Paragraph("Hello **world**"),
			article.Heading(2, "Setup"),
			article.Code("js", "if (a < b) { return \"x\" }"),
			article.Directive("Video", map[string]string{"videoID": "abc123", "start": "30"}),
			article.Heading(2, "Setup"),
		},
	}
}

func TestBody(t *testing.T) {
	r := New(Options{})

	out, err := r.Body(sample())
	require.NoError(t, err)
	doc := parseHTML(t, out)

	assert.Equal(t, "world", doc.Find("p strong").Text())

	headings := doc.Find("h2")
	require.Equal(t, 2, headings.Length())
	id0, _ := headings.Eq(0).Attr("id")
	id1, _ := headings.Eq(1).Attr("id")
	assert.Equal(t, "setup", id0)
	assert.Equal(t, "setup-1", id1)

	code := doc.Find("pre code")
	class, _ := code.Attr("class")
	assert.Equal(t, "language-js", class)
	assert.Equal(t, "if (a < b) { return \"x\" }\n", code.Text())
	assert.Contains(t, out, "a &lt; b")

	src, ok := doc.Find("div.directive--video iframe").Attr("src")
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/abc123?start=30", src)
}

func TestBody_DefaultLanguage(t *testing.T) {
	r := New(Options{})
	out, err := r.Body(&article.Article{Body: []article.Block{{Kind: article.KindCode, Text: "plain"}}})
	require.NoError(t, err)
	assert.Contains(t, out, `class="language-text"`)
}

func TestBody_HeadingContentStaysInline(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		id    string
		inner string
	}{
		{"ordered list marker", "1. Setup", "1-setup", "1. Setup"},
		{"bullet marker", "- Notes", "notes", "- Notes"},
		{"quote marker", "> Quote", "quote", "&gt; Quote"},
		{"trailing hash", "Learning C#", "learning-c", "Learning C#"},
		{"emphasis", "Use *this*", "use-this", "Use <em>this</em>"},
	}

	r := New(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Body(&article.Article{Body: []article.Block{article.Heading(2, tt.text)}})
			require.NoError(t, err)

			doc := parseHTML(t, out)
			h := doc.Find("h2")
			require.Equal(t, 1, h.Length())
			assert.Equal(t, 0, h.Find("ol, ul, blockquote, p").Length())
			id, _ := h.Attr("id")
			assert.Equal(t, tt.id, id)

			inner, err := h.Html()
			require.NoError(t, err)
			assert.Equal(t, tt.inner, inner)
		})
	}
}

func TestBody_RawHTMLOmittedByDefault(t *testing.T) {
	a := &article.Article{Body: []article.Block{article.Paragraph(`<Tweet id="1" />`)}}

	out, err := New(Options{}).Body(a)
	require.NoError(t, err)
	assert.NotContains(t, out, "<Tweet")

	out, err = New(Options{UnsafeHTML: true}).Body(a)
	require.NoError(t, err)
	assert.Contains(t, out, `<Tweet id="1" />`)
}

func TestBody_Directives(t *testing.T) {
	t.Run("video without id fails with block line", func(t *testing.T) {
		a := &article.Article{Body: []article.Block{{Kind: article.KindDirective, Name: "Video", Params: map[string]string{}, Line: 12}}}
		_, err := New(Options{}).Body(a)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidField))
		assert.Contains(t, err.Error(), "line 12")
	})

	t.Run("video id is validated", func(t *testing.T) {
		a := &article.Article{Body: []article.Block{article.Directive("Video", map[string]string{"videoID": `x" onload="bad`})}}
		_, err := New(Options{}).Body(a)
		require.Error(t, err)
	})

	t.Run("unregistered directive becomes a comment", func(t *testing.T) {
		a := &article.Article{Body: []article.Block{article.Directive("Tweet", map[string]string{"id": "1"})}}
		out, err := New(Options{}).Body(a)
		require.NoError(t, err)
		assert.Equal(t, "<!-- Tweet directive -->\n", out)
	})

	t.Run("custom renderer", func(t *testing.T) {
		r := New(Options{Directives: map[string]DirectiveFunc{
			"Tweet": func(p map[string]string) (template.HTML, error) {
				return template.HTML(`<blockquote class="tweet">` + template.HTMLEscapeString(p["id"]) + `</blockquote>`), nil
			},
		}})
		assert.True(t, r.HasDirective("Tweet"))
		assert.True(t, r.HasDirective("Video"))

		a := &article.Article{Body: []article.Block{article.Directive("Tweet", map[string]string{"id": "42"})}}
		out, err := r.Body(a)
		require.NoError(t, err)
		assert.Equal(t, "42", parseHTML(t, out).Find("blockquote.tweet").Text())
	})
}

func TestDocument(t *testing.T) {
	a := sample()
	a.Extra = map[string]any{"description": "All about auth"}

	out, err := New(Options{Lang: "de"}).Document(a)
	require.NoError(t, err)
	doc := parseHTML(t, out)

	assert.Equal(t, "Auth in Next.js", doc.Find("title").Text())
	assert.Equal(t, "Auth in Next.js", doc.Find("h1.folio-title").Text())
	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "de", lang)

	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "All about auth", desc)
	keywords, _ := doc.Find(`meta[name="keywords"]`).Attr("content")
	assert.Equal(t, "auth, next", keywords)

	datetime, _ := doc.Find("time").Attr("datetime")
	assert.Equal(t, "2023-12-16", datetime)
	assert.Equal(t, "December 16, 2023", doc.Find("time").Text())
	assert.Equal(t, 2, doc.Find("ul.folio-tags li").Length())
	assert.Equal(t, 1, doc.Find(".folio-body iframe").Length())
}

func TestDocument_DescriptionFallsBackToExcerpt(t *testing.T) {
	out, err := New(Options{}).Document(sample())
	require.NoError(t, err)

	desc, _ := parseHTML(t, out).Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "Hello world", desc)
}

func TestDocument_EscapesTitle(t *testing.T) {
	a := sample()
	a.Title = `<script>alert("x")</script>`

	out, err := New(Options{}).Document(a)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestExcerpt(t *testing.T) {
	fragment := "<h2>Skip</h2><p>First   paragraph.</p><pre><code>code</code></pre><p>Second one here.</p>"

	got, err := Excerpt(fragment, 0)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph. Second one here.", got)

	got, err = Excerpt(fragment, 22)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph…", got)

	got, err = Excerpt("<div>no paragraphs</div>", 10)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "March 9, 2021", formatDate("2021-03-09"))
	assert.Equal(t, "soon", formatDate("soon"))
}
