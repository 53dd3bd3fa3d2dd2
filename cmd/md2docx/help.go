package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2docx [flags] <input>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Markdown documents to DOCX and back.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Inputs may be files or directories. Markdown files (.md, .markdown)")
	fmt.Fprintln(w, "are converted to the --to target; DOCX files are imported back to")
	fmt.Fprintln(w, "Markdown with YAML front matter. Without inputs the configured")
	fmt.Fprintln(w, "library directory is converted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "      --to <target>         Target for markdown inputs: docx, md, html, page, pdf")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-document timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --style <name>        CSS style name (html, page, pdf targets)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w, "      --no-front-matter     Skip YAML front matter on DOCX import")
	fmt.Fprintln(w, "      --no-technical-data   Skip the technical data block in DOCX output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
	fmt.Fprintln(w, "      --version             Show version and exit")
}
