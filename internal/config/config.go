package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2docx/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
)

// Field length limits for multi-tenant safety.
const (
	MaxTitleLength        = 200  // Document title
	MaxOrganizationLength = 100  // Organization name
	MaxDepartmentLength   = 100  // Department name
	MaxTypeLength         = 50   // "Инструкция", "Положение", "Регламент"
	MaxNumberLength       = 50   // "ИБ-2024-001"
	MaxStatusLength       = 50   // "Действует", "Черновик", "Архив"
	MaxDateLength         = 30   // "2025-12-31" or "31.12.2025"
	MaxStyleLength        = 100  // Style name in internal/assets/styles/
	MaxPathLength         = 4096 // Directory paths
	MaxAddrLength         = 256  // Listen address
)

// Config holds all configuration for the document portal and converter.
type Config struct {
	Library Library `yaml:"library"`
	Output  Output  `yaml:"output"`
	CSS     CSS     `yaml:"css"`
	Assets  Assets  `yaml:"assets"`
	Convert Convert `yaml:"convert"`
	History History `yaml:"history"`
	Backup  Backup  `yaml:"backup"`
	Server  Server  `yaml:"server"`
	PDF     PDF     `yaml:"pdf"`
}

// Library defines where the Markdown document tree lives.
type Library struct {
	Dir            string `yaml:"dir"`            // Root of the document tree (default: "documents")
	AttachmentDirs string `yaml:"attachmentDirs"` // Comma-separated attachment dir names (default: "приложения,attachments")
}

// Output defines where converted files are written.
type Output struct {
	Dir string `yaml:"dir"` // Default output directory (empty = same as source)
}

// CSS defines HTML page styling options.
type CSS struct {
	Style string `yaml:"style"` // Name of style in internal/assets/styles/ (empty = built-in default)
}

// Assets defines asset loading options.
type Assets struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Convert defines conversion behavior shared by CLI and server.
type Convert struct {
	TechnicalData *bool  `yaml:"technicalData"` // Include the technical-data block (default: true)
	FrontMatter   *bool  `yaml:"frontMatter"`   // Emit YAML front matter on disassembly (default: true)
	DateFormat    string `yaml:"dateFormat"`    // Display format preset or pattern (default: "dotted")
}

// History defines version history retention.
type History struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`   // Where version snapshots are kept (default: "version_history")
	Limit   int    `yaml:"limit"` // Versions kept per document, 1-100 (default: 10)
}

// Backup defines archive creation options.
type Backup struct {
	Dir  string `yaml:"dir"`  // Where .tar.xz archives are written (default: "backups")
	Keep int    `yaml:"keep"` // Archives kept before pruning, 1-100 (default: 5)
}

// Server defines the portal HTTP server options.
type Server struct {
	Addr            string `yaml:"addr"`            // Listen address (default: ":8080")
	ShutdownTimeout int    `yaml:"shutdownTimeout"` // Graceful shutdown wait in seconds (default: 10)
}

// PDF defines PDF rendering options.
type PDF struct {
	Enabled bool `yaml:"enabled"` // Attach a PDF renderer to the service
	Timeout int  `yaml:"timeout"` // Render timeout in seconds (default: 30)
}

// Validate checks field lengths and ranges to prevent abuse in
// multi-tenant scenarios. Called automatically by LoadConfig, but
// available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("library.dir", c.Library.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.dir", c.Output.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("css.style", c.CSS.Style, MaxStyleLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("history.dir", c.History.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("backup.dir", c.Backup.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateFieldLength("convert.dateFormat", c.Convert.DateFormat, MaxDateLength); err != nil {
		return err
	}

	if c.History.Enabled && c.History.Limit != 0 {
		if c.History.Limit < 1 || c.History.Limit > 100 {
			return fmt.Errorf("history.limit: must be between 1 and 100, got %d", c.History.Limit)
		}
	}
	if c.Backup.Keep != 0 {
		if c.Backup.Keep < 1 || c.Backup.Keep > 100 {
			return fmt.Errorf("backup.keep: must be between 1 and 100, got %d", c.Backup.Keep)
		}
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdownTimeout: must not be negative, got %d", c.Server.ShutdownTimeout)
	}
	if c.PDF.Timeout < 0 {
		return fmt.Errorf("pdf.timeout: must not be negative, got %d", c.PDF.Timeout)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// IncludeTechnicalData reports the effective technical-data toggle.
func (c *Convert) IncludeTechnicalData() bool { return boolOr(c.TechnicalData, true) }

// FrontMatterEnabled reports the effective front-matter toggle.
func (c *Convert) FrontMatterEnabled() bool { return boolOr(c.FrontMatter, true) }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		Library: Library{Dir: "documents", AttachmentDirs: "приложения,attachments"},
		Output:  Output{Dir: ""},
		CSS:     CSS{Style: "default"},
		Assets:  Assets{BasePath: ""},
		Convert: Convert{DateFormat: "dotted"},
		History: History{Enabled: true, Dir: "version_history", Limit: 10},
		Backup:  Backup{Dir: "backups", Keep: 5},
		Server:  Server{Addr: ":8080", ShutdownTimeout: 10},
		PDF:     PDF{Enabled: false, Timeout: 30},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-md2docx/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-md2docx", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// AttachmentDirNames splits the configured attachment dir list.
func (l *Library) AttachmentDirNames() []string {
	parts := strings.Split(l.AttachmentDirs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
