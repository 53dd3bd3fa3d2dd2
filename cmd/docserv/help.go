package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docserv <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve and maintain the corporate document portal.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                     Start the document portal")
	fmt.Fprintln(w, "  snapshot                  Record a version for every changed document")
	fmt.Fprintln(w, "  backup create             Archive the document tree and version history")
	fmt.Fprintln(w, "  backup list               List backup archives")
	fmt.Fprintln(w, "  backup restore <archive>  Restore from an archive")
	fmt.Fprintln(w, "  backup prune              Remove archives beyond the retention limit")
	fmt.Fprintln(w, "  history <path> [version]  Show a document's versions, or print one")
	fmt.Fprintln(w, "  version                   Show version and exit")
	fmt.Fprintln(w, "  help                      Show this message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve flags:")
	fmt.Fprintln(w, "      --addr <addr>         Listen address (overrides config)")
	fmt.Fprintln(w, "      --docs <dir>          Document tree root (overrides config)")
	fmt.Fprintln(w, "      --log-level <level>   debug, info, warn, error (default info)")
	fmt.Fprintln(w, "      --log-format <fmt>    text or json (default text)")
	fmt.Fprintln(w, "  -w, --workers <n>         Render workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'docserv <command> --help' for command flags.")
}
