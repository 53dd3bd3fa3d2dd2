package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all flags for the converter.
type cliFlags struct {
	output          string
	to              string
	config          string
	style           string
	assetPath       string
	timeout         string
	workers         int
	noFrontMatter   bool
	noTechnicalData bool
	quiet           bool
	verbose         bool
	version         bool
}

// parseFlags parses command-line flags and returns positional args.
func parseFlags(args []string) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("md2docx", flag.ContinueOnError)
	f := &cliFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.to, "to", "", "target for markdown inputs: docx, md, html, page, pdf (default docx)")
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.style, "style", "", "CSS style name")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g. 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.noFrontMatter, "no-front-matter", false, "skip YAML front matter on import")
	fs.BoolVar(&f.noTechnicalData, "no-technical-data", false, "skip the technical data block")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
	fs.BoolVar(&f.version, "version", false, "show version and exit")

	fs.Usage = func() { printUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
