package mcp

import "github.com/mark3labs/mcp-go/mcp"

var parseToolDef = mcp.NewTool("article_parse",
	mcp.WithDescription("Parse article source (YAML front matter plus body) and return the structured article, its slug, stats and lint warnings. Errors carry the line of the problem."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Full article source including the --- front-matter block"),
	),
	mcp.WithString("name",
		mcp.Description("Name used in error positions (default: <input>)"),
	),
)

var formatToolDef = mcp.NewTool("article_format",
	mcp.WithDescription("Rewrite article source in canonical form: quoted title and date, sorted tags, one blank line between blocks."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Full article source including the --- front-matter block"),
	),
	mcp.WithString("name",
		mcp.Description("Name used in error positions (default: <input>)"),
	),
)

var checkToolDef = mcp.NewTool("article_check",
	mcp.WithDescription("Validate articles in the content directory without changing the index. Every file gets its own result; one invalid article never hides the others."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("paths",
		mcp.Description("Slash-separated paths relative to the content directory (default: every matching file)"),
		mcp.WithStringItems(),
	),
)

var reindexToolDef = mcp.NewTool("article_reindex",
	mcp.WithDescription("Re-read the content directory and rebuild the article index. Invalid articles are reported and left out."),
)

var listToolDef = mcp.NewTool("article_list",
	mcp.WithDescription("List indexed articles, newest first, with pagination."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("tag",
		mcp.Description("Only articles carrying this exact tag"),
	),
	mcp.WithString("since",
		mcp.Description("Earliest date, inclusive (YYYY-MM-DD)"),
	),
	mcp.WithString("until",
		mcp.Description("Latest date, inclusive (YYYY-MM-DD)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max results (default: 20, max: 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Results to skip (default: 0)"),
	),
)

var fetchToolDef = mcp.NewTool("article_fetch",
	mcp.WithDescription("Fetch one indexed article by id or slug (exactly one)."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id",
		mcp.Description("Article ID"),
	),
	mcp.WithString("slug",
		mcp.Description("Article slug"),
	),
	mcp.WithBoolean("include_body",
		mcp.Description("Include body blocks (default: true)"),
	),
)

var tagsToolDef = mcp.NewTool("article_tags",
	mcp.WithDescription("List every tag with the number of articles carrying it."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var renderToolDef = mcp.NewTool("article_render",
	mcp.WithDescription("Render an indexed article to HTML, addressed by id or slug (exactly one)."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id",
		mcp.Description("Article ID"),
	),
	mcp.WithString("slug",
		mcp.Description("Article slug"),
	),
	mcp.WithBoolean("document",
		mcp.Description("Return a complete HTML page instead of a body fragment (default: false)"),
	),
)

var exportToolDef = mcp.NewTool("article_export",
	mcp.WithDescription("Export indexed articles to a JSONL file. The first line is a header; each following line is one article record."),
	mcp.WithString("path",
		mcp.Description("Destination .jsonl file (default: ~/.folio/exports/<tag|articles>-<timestamp>.jsonl)"),
	),
	mcp.WithString("tag",
		mcp.Description("Only export articles carrying this tag"),
	),
)
