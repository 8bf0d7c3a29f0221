package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds application configuration.
type Config struct {
	// ContentDir is the root of the article tree. Relative paths resolve against the working directory.
	ContentDir string `json:"content_dir,omitempty"`

	// Patterns are glob patterns matched against file base names during ingestion.
	Patterns []string `json:"patterns,omitempty"`

	// Directives lists the directive tag names recognized in article bodies.
	// Tags with any other name are kept as plain paragraph text.
	Directives []string `json:"directives,omitempty"`

	// Workers bounds the number of articles parsed concurrently.
	Workers int `json:"workers,omitempty"`

	// MaxFileBytes rejects source files larger than this many bytes.
	MaxFileBytes int64 `json:"max_file_bytes,omitempty"`

	// IndexPath, when set, keeps the article catalog in a SQLite file instead of memory.
	// The file is a derived cache and is rebuilt on every ingestion.
	IndexPath string `json:"index_path,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for export files.
	// Paths outside ~/.folio/exports require either being in this list or AllowUnsafePaths=true.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for export.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names whose tools are all excluded.
	// Known types: "article".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContentDir:   ".",
		Patterns:     []string{"*.md", "*.mdx"},
		Directives:   []string{"Video"},
		Workers:      8,
		MaxFileBytes: 1 << 20,
		LogLevel:     "info",
	}
}

// Validate checks that the merged configuration is usable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Patterns, validation.Required, validation.Each(validation.By(validGlob))),
		validation.Field(&c.Workers, validation.Min(1), validation.Max(256)),
		validation.Field(&c.MaxFileBytes, validation.Min(int64(1))),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Directives, validation.Each(validation.By(validDirectiveName))),
	)
}

func validGlob(value any) error {
	pattern, _ := value.(string)
	if strings.TrimSpace(pattern) == "" {
		return validation.NewError("config.pattern_empty", "pattern must not be empty")
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return validation.NewError("config.pattern_invalid", "pattern is not a valid glob")
	}
	return nil
}

func validDirectiveName(value any) error {
	name, _ := value.(string)
	if name == "" {
		return validation.NewError("config.directive_empty", "directive name must not be empty")
	}
	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && (i == 0 || !isDigit) {
			return validation.NewError("config.directive_invalid", "directive name must be alphanumeric and start with a letter")
		}
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.folio.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.folio) and repo (.folio) directories.
// Repo config is found by walking upward from startDir to find the nearest .folio/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .folio/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".folio", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ContentDir = firstNonEmpty(overlay.ContentDir, base.ContentDir)
	result.IndexPath = firstNonEmpty(overlay.IndexPath, base.IndexPath)
	result.LogLevel = firstNonEmpty(strings.ToLower(overlay.LogLevel), base.LogLevel)

	result.Workers = overlay.Workers
	if result.Workers == 0 {
		result.Workers = base.Workers
	}

	result.MaxFileBytes = overlay.MaxFileBytes
	if result.MaxFileBytes == 0 {
		result.MaxFileBytes = base.MaxFileBytes
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.Patterns = mergeStringSlice(base.Patterns, overlay.Patterns)
	result.Directives = mergeStringSlice(base.Directives, overlay.Directives)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
