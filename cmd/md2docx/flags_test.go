package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		args           []string
		wantOutput     string
		wantTo         string
		wantConfig     string
		wantStyle      string
		wantTimeout    string
		wantWorkers    int
		wantQuiet      bool
		wantVerbose    bool
		wantVersion    bool
		wantPositional []string
		wantErr        bool
	}{
		{
			name: "no args",
			args: []string{},
		},
		{
			name:           "single file",
			args:           []string{"doc.md"},
			wantPositional: []string{"doc.md"},
		},
		{
			name:       "output flag short",
			args:       []string{"-o", "./out/"},
			wantOutput: "./out/",
		},
		{
			name:   "to flag",
			args:   []string{"--to", "html"},
			wantTo: "html",
		},
		{
			name:       "config flag short",
			args:       []string{"-c", "work"},
			wantConfig: "work",
		},
		{
			name:      "style flag",
			args:      []string{"--style", "corporate"},
			wantStyle: "corporate",
		},
		{
			name:        "timeout flag short",
			args:        []string{"-t", "2m"},
			wantTimeout: "2m",
		},
		{
			name:        "workers flag short",
			args:        []string{"-w", "4"},
			wantWorkers: 4,
		},
		{
			name:      "quiet flag",
			args:      []string{"--quiet"},
			wantQuiet: true,
		},
		{
			name:        "version flag",
			args:        []string{"--version"},
			wantVersion: true,
		},
		{
			name:           "all flags with files",
			args:           []string{"-c", "work", "-o", "out", "--to", "pdf", "-v", "a.md", "b.md"},
			wantConfig:     "work",
			wantOutput:     "out",
			wantTo:         "pdf",
			wantVerbose:    true,
			wantPositional: []string{"a.md", "b.md"},
		},
		{
			name:           "flags after positional argument",
			args:           []string{"doc.md", "-o", "./out/", "--verbose"},
			wantOutput:     "./out/",
			wantVerbose:    true,
			wantPositional: []string{"doc.md"},
		},
		{
			name:    "unknown flag returns error",
			args:    []string{"--unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flags, args, err := parseFlags(tt.args)

			if tt.wantErr {
				if err == nil {
					t.Fatal("parseFlags() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() unexpected error: %v", err)
			}

			if flags.output != tt.wantOutput {
				t.Errorf("output = %q, want %q", flags.output, tt.wantOutput)
			}
			if flags.to != tt.wantTo {
				t.Errorf("to = %q, want %q", flags.to, tt.wantTo)
			}
			if flags.config != tt.wantConfig {
				t.Errorf("config = %q, want %q", flags.config, tt.wantConfig)
			}
			if flags.style != tt.wantStyle {
				t.Errorf("style = %q, want %q", flags.style, tt.wantStyle)
			}
			if flags.timeout != tt.wantTimeout {
				t.Errorf("timeout = %q, want %q", flags.timeout, tt.wantTimeout)
			}
			if flags.workers != tt.wantWorkers {
				t.Errorf("workers = %d, want %d", flags.workers, tt.wantWorkers)
			}
			if flags.quiet != tt.wantQuiet {
				t.Errorf("quiet = %v, want %v", flags.quiet, tt.wantQuiet)
			}
			if flags.verbose != tt.wantVerbose {
				t.Errorf("verbose = %v, want %v", flags.verbose, tt.wantVerbose)
			}
			if flags.version != tt.wantVersion {
				t.Errorf("version = %v, want %v", flags.version, tt.wantVersion)
			}

			if len(args) != len(tt.wantPositional) {
				t.Fatalf("positional args = %v, want %v", args, tt.wantPositional)
			}
			for i := range args {
				if args[i] != tt.wantPositional[i] {
					t.Errorf("positional arg %d = %q, want %q", i, args[i], tt.wantPositional[i])
				}
			}
		})
	}
}

func TestPrintUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printUsage(&buf)
	out := buf.String()

	for _, want := range []string{
		"Usage: md2docx [flags] <input>...",
		"Input/Output:",
		"Content:",
		"Output Control:",
		"--to",
		"--no-front-matter",
		"--workers",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("printUsage output should contain %q", want)
		}
	}
}
