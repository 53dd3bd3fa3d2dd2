package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2docx/internal/store"
)

// snapshotFlags holds flags for the snapshot command.
type snapshotFlags struct {
	config  string
	author  string
	comment string
	quiet   bool
}

func parseSnapshotFlags(args []string) (*snapshotFlags, error) {
	fs := flag.NewFlagSet("docserv snapshot", flag.ContinueOnError)
	f := &snapshotFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.author, "author", "", "author recorded on new versions")
	fs.StringVar(&f.comment, "comment", "плановый снимок", "comment recorded on new versions")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show the summary")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// runSnapshot walks the document tree and records a version for every
// document whose content changed since its last record.
func runSnapshot(args []string, stdout io.Writer) error {
	flags, err := parseSnapshotFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.config)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return ErrHistoryDisabled
	}

	st, err := store.New(cfg.Library.Dir, cfg.Library.AttachmentDirNames()...)
	if err != nil {
		return err
	}
	tracker, err := trackerFor(cfg)
	if err != nil {
		return err
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	docs, err := st.Load(ctx)
	if err != nil {
		return err
	}

	recorded := 0
	for _, doc := range docs {
		rec, changed, err := tracker.Track(ctx, doc.RelPath, doc.Meta, flags.author, flags.comment)
		if err != nil {
			return fmt.Errorf("tracking %s: %w", doc.RelPath, err)
		}
		if !changed {
			continue
		}
		recorded++
		if !flags.quiet {
			fmt.Fprintf(stdout, "v%d  %s\n", rec.Version, doc.RelPath)
		}
	}

	fmt.Fprintf(stdout, "Recorded %d new version(s), %d document(s) checked\n", recorded, len(docs))
	return nil
}
