package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/folio/internal/article"
	"github.com/hpungsan/folio/internal/errors"
)

func TestFetch_BySlug(t *testing.T) {
	database, _ := testSetup(t)

	out, err := Fetch(database, FetchInput{Slug: "Auth-In-Next-JS"})
	require.NoError(t, err)

	assert.Equal(t, "auth-in-next-js", out.Slug)
	assert.Equal(t, "posts/auth.md", out.Path)
	assert.Equal(t, "Auth in Next.js", out.Article.Title)
	require.Len(t, out.Article.Body, 3)
	assert.Equal(t, article.KindParagraph, out.Article.Body[0].Kind)
	assert.Equal(t, article.KindCode, out.Article.Body[1].Kind)
	assert.Equal(t, "js", out.Article.Body[1].Lang)
	assert.Equal(t, article.KindDirective, out.Article.Body[2].Kind)
	assert.Equal(t, 1, out.Stats.CodeBlocks)
	assert.Len(t, out.Checksum, 64)
}

func TestFetch_ByID(t *testing.T) {
	database, _ := testSetup(t)

	bySlug, err := Fetch(database, FetchInput{Slug: "suspense"})
	require.NoError(t, err)

	byID, err := Fetch(database, FetchInput{ID: bySlug.ID})
	require.NoError(t, err)
	assert.Equal(t, bySlug.Path, byID.Path)
	assert.True(t, article.Equal(bySlug.Article, byID.Article))
}

func TestFetch_ExcludeBody(t *testing.T) {
	database, _ := testSetup(t)

	includeBody := false
	out, err := Fetch(database, FetchInput{Slug: "server-components", IncludeBody: &includeBody})
	require.NoError(t, err)
	assert.Nil(t, out.Article.Body)
	assert.Equal(t, []string{"next", "react"}, out.Article.Tags)

	full, err := Fetch(database, FetchInput{Slug: "server-components"})
	require.NoError(t, err)
	assert.NotEmpty(t, full.Article.Body, "stripping the body must not affect later fetches")
}

func TestFetch_Errors(t *testing.T) {
	database, _ := testSetup(t)

	tests := []struct {
		name  string
		input FetchInput
		code  errors.ErrorCode
	}{
		{"no address", FetchInput{}, errors.ErrInvalidRequest},
		{"both", FetchInput{ID: "01X", Slug: "suspense"}, errors.ErrAmbiguousAddressing},
		{"unknown id", FetchInput{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ"}, errors.ErrNotFound},
		{"unknown slug", FetchInput{Slug: "nope"}, errors.ErrNotFound},
		{"invalid article never indexed", FetchInput{Slug: "broken"}, errors.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fetch(database, tc.input)
			if !errors.Is(err, tc.code) {
				t.Errorf("expected %s, got: %v", tc.code, err)
			}
		})
	}
}
