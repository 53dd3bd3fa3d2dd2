package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"
)

// runHistory lists a document's recorded versions or prints one version's
// content when a version number is given.
func runHistory(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("docserv history", flag.ContinueOnError)
	configName := fs.StringP("config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: history needs a document path", ErrMissingArgument)
	}
	relPath := fs.Arg(0)

	cfg, err := loadConfig(*configName)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return ErrHistoryDisabled
	}
	tracker, err := trackerFor(cfg)
	if err != nil {
		return err
	}
	layout, err := displayLayout(cfg.Convert.DateFormat)
	if err != nil {
		return err
	}

	if fs.NArg() > 1 {
		version, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("%w: version must be a number, got %q", ErrMissingArgument, fs.Arg(1))
		}
		_, content, err := tracker.Version(relPath, version)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, content)
		return nil
	}

	records, err := tracker.History(relPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(stdout, "No versions recorded for %s\n", relPath)
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tDATE\tAUTHOR\tCOMMENT")
	for _, rec := range records {
		fmt.Fprintf(tw, "v%d\t%s\t%s\t%s\n",
			rec.Version, formatRecordStamp(rec.Timestamp, layout), rec.Author, rec.Comment)
	}
	return tw.Flush()
}

// formatRecordStamp renders a record timestamp in the configured date
// format. Unparseable values pass through unchanged.
func formatRecordStamp(stamp, layout string) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	return t.Format(layout + " 15:04")
}
