// Command lessc compiles LESS source into CSS.
//
// Usage:
//
//	lessc [flags] target.less
//
// Diagnostics print to stderr; warnings never fail the compile, errors
// fail it after the output is produced.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/xyproto/env/v2"

	"github.com/mheilman/lesscpy/parser"
	"github.com/mheilman/lesscpy/printer"
)

func main() {
	var (
		minify  = flag.Bool("x", false, "minify the output")
		out     = flag.String("o", "", "write the output to a file instead of stdout")
		verbose = flag.Bool("v", env.Bool("LESSC_VERBOSE"), "verbose compile tracing")
		dumpAST = flag.Bool("ast", false, "dump the resolved unit tree as JSON and exit")
		noColor = flag.Bool("no-color", env.Bool("NO_COLOR"), "disable colored diagnostics")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] target.less\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	target, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	p := parser.New(
		parser.WithFilesystem(osfs.New("/")),
		parser.WithLogger(logger),
		parser.Verbose(*verbose),
	)
	units, err := p.ParseFile(target)
	if err != nil {
		fatal(err)
	}
	report(p.Diagnostics(), *noColor)

	if *dumpAST {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(units); err != nil {
			fatal(err)
		}
		exit(p)
	}

	w := os.Stdout
	var f *os.File
	if *out != "" {
		f, err = os.Create(*out)
		if err != nil {
			fatal(err)
		}
		w = f
	}

	pr := &printer.Printer{Minify: *minify}
	if err := pr.Fprint(w, units); err != nil {
		fatal(err)
	}
	// Close before exiting; os.Exit would skip a deferred close.
	if f != nil {
		if err := f.Close(); err != nil {
			fatal(err)
		}
	}
	exit(p)
}

// report prints every diagnostic to stderr, colored by severity where
// the terminal supports it.
func report(diags []*parser.Diagnostic, noColor bool) {
	prof := termenv.EnvColorProfile()
	if noColor {
		prof = termenv.Ascii
	}
	for _, d := range diags {
		c := prof.Color("3") // yellow
		if d.Severity == parser.SeverityError {
			c = prof.Color("1") // red
		}
		fmt.Fprintln(os.Stderr, termenv.String(d.Error()).Foreground(c))
	}
}

func exit(p *parser.Parser) {
	if p.Err() != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "lessc:", err)
	os.Exit(1)
}
