// Command docserv runs the corporate document portal and its
// maintenance commands: version snapshots, backup archives, and
// history inspection.
package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(ExitUsage)
	}

	// Configure GOMAXPROCS for containers. Set only fails on an invalid
	// GOMAXPROCS env value, in which case runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "snapshot":
		err = runSnapshot(args, os.Stdout)
	case "backup":
		err = runBackup(args, os.Stdout)
	case "history":
		err = runHistory(args, os.Stdout)
	case "version", "--version":
		fmt.Println("docserv " + Version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "docserv: unknown command %q\n\n", cmd)
		printUsage(os.Stderr)
		os.Exit(ExitUsage)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(ExitSuccess)
		}
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(exitCodeFor(err))
	}
}
