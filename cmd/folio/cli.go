package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/folio/internal/errors"
	"github.com/hpungsan/folio/internal/ops"
)

// stdout is where command output goes; tests swap it.
var stdout io.Writer = os.Stdout

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "folio",
		Usage:   "Markdown article catalog",
		Version: Version,
		Commands: []*cli.Command{
			checkCmd(e),
			listCmd(e),
			fetchCmd(e),
			tagsCmd(e),
			renderCmd(e),
			exportCmd(e),
			fmtCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// checkCmd creates the check command.
func checkCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate articles in the content directory",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pretty", Aliases: []string{"p"}, Usage: "Human-readable report instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Check(c.Context, e.content, e.cfg, e.log, ops.CheckInput{Paths: c.Args().Slice()})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				fmt.Fprint(stdout, checkReport(output))
			} else if err := outputJSON(output); err != nil {
				return err
			}

			if !output.OK {
				return cli.Exit(fmt.Sprintf("%d of %d article(s) invalid", output.Summary.Invalid, output.Summary.Files), 1)
			}
			return nil
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List articles, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Filter by tag"},
			&cli.StringFlag{Name: "since", Usage: "Earliest date, inclusive (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "until", Usage: "Latest date, inclusive (YYYY-MM-DD)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Skip results"},
		},
		Action: func(c *cli.Context) error {
			database, err := e.catalog(c.Context)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.List(database, ops.ListInput{
				Tag:    c.String("tag"),
				Since:  c.String("since"),
				Until:  c.String("until"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch an article by ID or slug",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "slug", Aliases: []string{"s"}, Usage: "Article slug"},
			&cli.BoolFlag{Name: "no-body", Usage: "Exclude body blocks from output"},
		},
		Action: func(c *cli.Context) error {
			database, err := e.catalog(c.Context)
			if err != nil {
				return outputError(err)
			}

			input := ops.FetchInput{Slug: c.String("slug")}
			if c.NArg() > 0 {
				input.ID = c.Args().First()
			}
			if c.Bool("no-body") {
				includeBody := false
				input.IncludeBody = &includeBody
			}

			output, err := ops.Fetch(database, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List tags with article counts",
		Action: func(c *cli.Context) error {
			database, err := e.catalog(c.Context)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Tags(database)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// renderCmd creates the render command.
func renderCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render an article to HTML",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "slug", Aliases: []string{"s"}, Usage: "Article slug"},
			&cli.BoolFlag{Name: "document", Aliases: []string{"d"}, Usage: "Complete HTML page instead of a fragment"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
		},
		Action: func(c *cli.Context) error {
			database, err := e.catalog(c.Context)
			if err != nil {
				return outputError(err)
			}

			input := ops.RenderInput{
				Slug:     c.String("slug"),
				Document: c.Bool("document"),
			}
			if c.NArg() > 0 {
				input.ID = c.Args().First()
			}

			output, err := ops.Render(database, e.renderer, input)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(output)
			}
			_, err = io.WriteString(stdout, output.HTML)
			return err
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export articles to JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.folio/exports/<tag|articles>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Only export articles with this tag"},
		},
		Action: func(c *cli.Context) error {
			database, err := e.catalog(c.Context)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Export(c.Context, database, e.cfg, ops.ExportInput{
				Path: c.String("path"),
				Tag:  c.String("tag"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// fmtResult reports one file rewritten by fmt --write.
type fmtResult struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
}

// fmtCmd creates the fmt command.
func fmtCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Rewrite article source in canonical form (reads stdin without a file)",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "Write the result back to each file"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				if c.Bool("write") {
					return outputError(errors.NewInvalidRequest("--write needs at least one file"))
				}
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("article source must be piped via stdin or named as a file"))
				}
				src, err := io.ReadAll(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				output, err := ops.Format(e.cfg, ops.ParseInput{Name: "<stdin>", Content: string(src)})
				if err != nil {
					return outputError(err)
				}
				_, err = io.WriteString(stdout, output.Formatted)
				return err
			}

			results := make([]fmtResult, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				src, err := os.ReadFile(path)
				if err != nil {
					if stderrors.Is(err, os.ErrNotExist) {
						return outputError(errors.NewFileNotFound(path))
					}
					return outputError(errors.NewInternal(err))
				}
				output, err := ops.Format(e.cfg, ops.ParseInput{Name: path, Content: string(src)})
				if err != nil {
					return outputError(err)
				}

				if !c.Bool("write") {
					if _, err := io.WriteString(stdout, output.Formatted); err != nil {
						return err
					}
					continue
				}
				if output.Changed {
					if err := writeFilePreservingMode(path, []byte(output.Formatted)); err != nil {
						return outputError(errors.NewInternal(err))
					}
				}
				results = append(results, fmtResult{Path: path, Changed: output.Changed})
			}

			if c.Bool("write") {
				return outputJSON(results)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var folioErr *errors.FolioError
	if stderrors.As(err, &folioErr) {
		if folioErr.File != "" {
			return cli.Exit(fmt.Sprintf("[%s] %s", folioErr.Code, folioErr.Error()), 1)
		}
		return cli.Exit(fmt.Sprintf("[%s] %s", folioErr.Code, folioErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// writeFilePreservingMode replaces path's content, keeping its permission bits.
func writeFilePreservingMode(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, info.Mode().Perm())
}
