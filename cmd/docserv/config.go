package main

import (
	"fmt"
	"time"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/backup"
	"github.com/alnah/go-md2docx/internal/config"
	"github.com/alnah/go-md2docx/internal/dateutil"
	"github.com/alnah/go-md2docx/internal/history"
)

// loadConfig resolves the effective configuration: defaults when no
// file is named, the named file otherwise.
func loadConfig(nameOrPath string) (*config.Config, error) {
	if nameOrPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// displayLayout resolves the configured date format to a Go time layout.
func displayLayout(nameOrFormat string) (string, error) {
	if nameOrFormat == "" {
		nameOrFormat = dateutil.DisplayDateFormat
	}
	layout, err := dateutil.ResolveFormat(nameOrFormat)
	if err != nil {
		return "", fmt.Errorf("convert.dateFormat: %w", err)
	}
	return layout, nil
}

// renderOptions builds the service option set for the portal's pool.
func renderOptions(cfg *config.Config) ([]md2docx.Option, error) {
	opts := []md2docx.Option{
		md2docx.WithTechnicalData(cfg.Convert.IncludeTechnicalData()),
		md2docx.WithFrontMatter(cfg.Convert.FrontMatterEnabled()),
	}

	if cfg.CSS.Style != "" {
		opts = append(opts, md2docx.WithStyle(cfg.CSS.Style))
	}
	if cfg.Assets.BasePath != "" {
		resolver, err := assets.NewAssetResolver(cfg.Assets.BasePath)
		if err != nil {
			return nil, fmt.Errorf("loading assets: %w", err)
		}
		opts = append(opts, md2docx.WithAssetLoader(resolver))
	}
	if cfg.PDF.Enabled {
		renderTimeout := time.Duration(cfg.PDF.Timeout) * time.Second
		opts = append(opts, md2docx.WithPDFRenderer(md2docx.NewChromeRenderer(renderTimeout)))
	}
	return opts, nil
}

// trackerFor opens the version tracker, or returns nil when history is
// disabled.
func trackerFor(cfg *config.Config) (*history.Tracker, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	tracker, err := history.New(cfg.Library.Dir, cfg.History.Dir, cfg.History.Limit)
	if err != nil {
		return nil, fmt.Errorf("opening version history: %w", err)
	}
	return tracker, nil
}

// backupManager opens the archive manager over the portal's working
// directories. Version history is archived only when tracking is on.
func backupManager(cfg *config.Config) (*backup.Manager, error) {
	sources := []string{cfg.Library.Dir}
	if cfg.History.Enabled {
		sources = append(sources, cfg.History.Dir)
	}
	mgr, err := backup.New(cfg.Backup.Dir, cfg.Backup.Keep, sources...)
	if err != nil {
		return nil, fmt.Errorf("opening backup directory: %w", err)
	}
	return mgr, nil
}
