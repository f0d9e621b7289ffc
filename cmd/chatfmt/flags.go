package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// formatFlags holds flags for the format command.
type formatFlags struct {
	common  commonFlags
	output  string
	workers int
	page    bool   // Wrap output in the standalone chat page
	title   string // Page title
	report  bool   // Print what the formatter repaired
}

// askFlags holds flags for the ask command.
type askFlags struct {
	common  commonFlags
	chat    string
	system  string
	timeout string
	plain   bool // Print the raw markdown answer
	noSave  bool
	copy    bool
}

// historyFlags holds flags for the history command.
type historyFlags struct {
	common commonFlags
	raw    bool // show: print raw answers instead of text
}

// copyFlags holds flags for the copy command.
type copyFlags struct {
	common  commonFlags
	block   string
	message bool
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common    commonFlags
	addr      string
	assetPath string
	noMetrics bool
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed logs")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, usage func(io.Writer), w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parse runs fs and wraps parse failures with ErrUsage.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return fs.Args(), nil
}

// parseFormatFlags parses format command flags and returns positional args.
func parseFormatFlags(args []string, w io.Writer) (*formatFlags, []string, error) {
	f := &formatFlags{}
	fs := newFlagSet("format", printFormatUsage, w)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.page, "page", false, "write a standalone HTML page")
	fs.StringVar(&f.title, "title", "", "page title (default: file name)")
	fs.BoolVar(&f.report, "report", false, "print what was repaired or removed")
	addCommonFlags(fs, &f.common)

	rest, err := parse(fs, args)
	return f, rest, err
}

// parseAskFlags parses ask command flags and returns positional args.
func parseAskFlags(args []string, w io.Writer) (*askFlags, []string, error) {
	f := &askFlags{}
	fs := newFlagSet("ask", printAskUsage, w)

	fs.StringVar(&f.chat, "chat", "", "continue chat by id")
	fs.StringVar(&f.system, "system", "", "extra system instruction")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "completion timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.plain, "plain", false, "print the raw markdown answer")
	fs.BoolVar(&f.noSave, "no-save", false, "do not record the exchange in history")
	fs.BoolVar(&f.copy, "copy", false, "copy the answer text to the clipboard")
	addCommonFlags(fs, &f.common)

	rest, err := parse(fs, args)
	return f, rest, err
}

// parseHistoryFlags parses history command flags and returns positional args.
func parseHistoryFlags(args []string, w io.Writer) (*historyFlags, []string, error) {
	f := &historyFlags{}
	fs := newFlagSet("history", printHistoryUsage, w)

	fs.BoolVar(&f.raw, "raw", false, "show raw markdown answers")
	addCommonFlags(fs, &f.common)

	rest, err := parse(fs, args)
	return f, rest, err
}

// parseCopyFlags parses copy command flags and returns positional args.
func parseCopyFlags(args []string, w io.Writer) (*copyFlags, []string, error) {
	f := &copyFlags{}
	fs := newFlagSet("copy", printCopyUsage, w)

	fs.StringVarP(&f.block, "block", "b", "", "code block id to copy")
	fs.BoolVarP(&f.message, "message", "m", false, "copy the whole message as text")
	addCommonFlags(fs, &f.common)

	rest, err := parse(fs, args)
	return f, rest, err
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printServeUsage, w)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default from config)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom style/template directory")
	fs.BoolVar(&f.noMetrics, "no-metrics", false, "disable /metrics")
	addCommonFlags(fs, &f.common)

	rest, err := parse(fs, args)
	return f, rest, err
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, w io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", printDoctorUsage, w)

	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	addCommonFlags(fs, &f.common)

	_, err := parse(fs, args)
	return f, err
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string, w io.Writer) (*commonFlags, error) {
	f := &commonFlags{}
	fs := newFlagSet("config", printConfigUsage, w)
	addCommonFlags(fs, f)

	_, err := parse(fs, args)
	return f, err
}
