package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2docx/internal/backup"
)

// runBackup dispatches the backup subcommands.
func runBackup(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: backup needs a subcommand (create, list, restore, prune)", ErrMissingArgument)
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "create":
		return runBackupCreate(rest, stdout)
	case "list":
		return runBackupList(rest, stdout)
	case "restore":
		return runBackupRestore(rest, stdout)
	case "prune":
		return runBackupPrune(rest, stdout)
	default:
		return fmt.Errorf("%w: backup %q", ErrUnknownCommand, sub)
	}
}

func runBackupCreate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("docserv backup create", flag.ContinueOnError)
	configName := fs.StringP("config", "c", "", "config file name or path")
	comment := fs.String("comment", "", "comment stored in the archive manifest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := managerFromConfig(*configName)
	if err != nil {
		return err
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	info, err := mgr.Create(ctx, *comment)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Created %s (%s)\n", info.Path, formatSize(info.Size))
	return nil
}

func runBackupList(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("docserv backup list", flag.ContinueOnError)
	configName := fs.StringP("config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := managerFromConfig(*configName)
	if err != nil {
		return err
	}

	infos, err := mgr.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(stdout, "No backups found")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCREATED\tCOMMENT")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			info.Name, formatSize(info.Size), formatStamp(info.Manifest.Timestamp), info.Manifest.Comment)
	}
	return tw.Flush()
}

func runBackupRestore(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("docserv backup restore", flag.ContinueOnError)
	configName := fs.StringP("config", "c", "", "config file name or path")
	replace := fs.Bool("replace", false, "clear existing data before restoring")
	noSnapshot := fs.Bool("no-snapshot", false, "skip archiving current state first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: backup restore needs an archive path", ErrMissingArgument)
	}
	archive := fs.Arg(0)

	mgr, err := managerFromConfig(*configName)
	if err != nil {
		return err
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	opts := backup.RestoreOptions{Replace: *replace, SnapshotFirst: !*noSnapshot}
	if err := mgr.Restore(ctx, archive, opts); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Restored from %s\n", archive)
	return nil
}

func runBackupPrune(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("docserv backup prune", flag.ContinueOnError)
	configName := fs.StringP("config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := managerFromConfig(*configName)
	if err != nil {
		return err
	}

	removed, err := mgr.Prune()
	if err != nil {
		return err
	}

	for _, name := range removed {
		fmt.Fprintf(stdout, "Removed %s\n", name)
	}
	fmt.Fprintf(stdout, "Removed %d archive(s)\n", len(removed))
	return nil
}

// managerFromConfig builds the archive manager from the named config.
func managerFromConfig(nameOrPath string) (*backup.Manager, error) {
	cfg, err := loadConfig(nameOrPath)
	if err != nil {
		return nil, err
	}
	return backupManager(cfg)
}

// formatSize renders a byte count in human units.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// formatStamp renders an RFC3339 manifest timestamp for listings.
// Unparseable values pass through unchanged.
func formatStamp(stamp string) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	return t.Format("2006-01-02 15:04")
}
