package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hpungsan/folio/internal/catalog"
	"github.com/hpungsan/folio/internal/config"
	"github.com/hpungsan/folio/internal/logging"
	"github.com/hpungsan/folio/internal/mcp"
	"github.com/hpungsan/folio/internal/ops"
	"github.com/hpungsan/folio/internal/render"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"check": true, "list": true, "fetch": true, "tags": true,
	"render": true, "export": true, "fmt": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   __       _ _
  / _| ___ | (_) ___
 | |_ / _ \| | |/ _ \
 |  _| (_) | | | (_) |
 |_|  \___/|_|_|\___/

  Markdown article catalog

  Usage: folio <command> [options]
         folio --help

  MCP server mode requires piped input.`)
}

// env carries what commands need. The catalog is opened and filled on first use,
// so check and fmt never touch the index.
type env struct {
	cfg      *config.Config
	content  fs.FS
	log      *logging.Logger
	renderer *render.Renderer
	db       *sql.DB
}

func newEnv(cfg *config.Config, log *logging.Logger) *env {
	return &env{
		cfg:      cfg,
		content:  os.DirFS(cfg.ContentDir),
		log:      log,
		renderer: render.New(render.Options{}),
	}
}

// catalog returns the article index, building it from the content tree if needed.
func (e *env) catalog(ctx context.Context) (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	database, err := catalog.Init(e.cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	out, err := ops.Ingest(ctx, database, e.content, e.cfg, e.log)
	if err != nil {
		database.Close()
		return nil, err
	}
	for _, f := range out.Failed {
		e.log.Warn("article skipped", "path", f.Path, "code", f.Error.Code, "line", f.Error.Line, "error", f.Error.Message)
	}
	e.db = database
	return database, nil
}

func (e *env) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func loadConfig() (*config.Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.LoadWithRepo(filepath.Join(homeDir, ".folio"), cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before loading anything
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("unknown types in disabled_types", "types", unknown)
	}

	e := newEnv(cfg, log)
	defer e.Close()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(e)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			e.Close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'folio --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	database, err := e.catalog(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to build index: %v\n", err)
		os.Exit(1)
	}
	deps := mcp.Deps{
		DB:       database,
		Config:   cfg,
		Content:  e.content,
		Renderer: e.renderer,
		Logger:   log,
	}
	if err := mcp.Run(deps, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		e.Close()
		os.Exit(1)
	}
}
