package main

import (
	"context"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/store"
	"github.com/alnah/go-md2docx/internal/web"
)

// serveFlags holds flags for the serve command.
type serveFlags struct {
	config    string
	addr      string
	docsDir   string
	logLevel  string
	logFormat string
	workers   int
}

func parseServeFlags(args []string) (*serveFlags, error) {
	fs := flag.NewFlagSet("docserv serve", flag.ContinueOnError)
	f := &serveFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.addr, "addr", "", "listen address (overrides config)")
	fs.StringVar(&f.docsDir, "docs", "", "document tree root (overrides config)")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "text", "log output: text or json")
	fs.IntVarP(&f.workers, "workers", "w", 0, "render workers (0 = auto)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// runServe starts the portal and blocks until shutdown.
func runServe(args []string) error {
	flags, err := parseServeFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.config)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.docsDir != "" {
		cfg.Library.Dir = flags.docsDir
	}

	logging.InitLogger(flags.logLevel, flags.logFormat)

	st, err := store.New(cfg.Library.Dir, cfg.Library.AttachmentDirNames()...)
	if err != nil {
		return err
	}

	layout, err := displayLayout(cfg.Convert.DateFormat)
	if err != nil {
		return err
	}

	opts, err := renderOptions(cfg)
	if err != nil {
		return err
	}
	poolSize := md2docx.ResolvePoolSize(flags.workers)
	pool := md2docx.NewServicePool(poolSize, opts...)
	defer pool.Close()

	webOpts := []web.Option{web.WithDateLayout(layout)}
	tracker, err := trackerFor(cfg)
	if err != nil {
		return err
	}
	if tracker != nil {
		webOpts = append(webOpts, web.WithHistory(tracker))
	}
	backups, err := backupManager(cfg)
	if err != nil {
		return err
	}
	webOpts = append(webOpts, web.WithBackups(backups))

	srv, err := web.NewServer(st, pool, webOpts...)
	if err != nil {
		return err
	}

	logging.Info("starting document portal",
		"addr", cfg.Server.Addr,
		"documents", st.Root(),
		"history", cfg.History.Enabled,
		"pdf", cfg.PDF.Enabled,
		"pool_size", poolSize,
		"pid", os.Getpid(),
	)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	shutdown := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	return srv.Run(ctx, cfg.Server.Addr, shutdown)
}
