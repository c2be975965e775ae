package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter turns a command's error into stderr output and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor returns 0 for nil, the category's code for classified errors
// and 1 otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ce, ok := AsClassified(err); ok {
		return ce.Category().ExitCode()
	}
	return 1
}

// FormatError renders the line printed to stderr.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := AsClassified(err)
	switch {
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return "Error: " + ce.Error()
	case ce.Category().Hidden():
		return "Internal error occurred (use -v for details)"
	case ce.Cause() != nil:
		return fmt.Sprintf("Error: %s: %v", ce.Message(), ce.Cause())
	}
	return "Error: " + ce.Message()
}

// Report logs err when it deserves a log line, writes the user message to w
// and returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	ce, ok := AsClassified(err)
	switch {
	case !ok:
		a.logger.Error("Unclassified error", slog.Any("error", err))
	case a.verbose || ce.Category().Hidden():
		attrs := append([]slog.Attr{slog.String("category", string(ce.Category()))}, ce.fields.Attrs()...)
		if ce.Cause() != nil {
			attrs = append(attrs, slog.Any("error", ce.Cause()))
		}
		a.logger.LogAttrs(context.Background(), ce.Category().Level(), ce.Message(), attrs...)
	}
	fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err on stderr and exits. It returns when err is nil.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(os.Stderr, err))
}
