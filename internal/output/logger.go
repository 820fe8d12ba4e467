package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes user-facing CLI output. Text output is suppressed in JSON
// mode, where commands print a single JSON document instead.
type Logger struct {
	out      io.Writer
	errOut   io.Writer
	noColor  bool
	verbose  bool
	jsonMode bool
}

// NewLogger creates a Logger writing to stdout and stderr.
func NewLogger() *Logger {
	return NewLoggerWithWriters(os.Stdout, os.Stderr)
}

// NewLoggerWithWriters creates a Logger with explicit destinations.
func NewLoggerWithWriters(out, errOut io.Writer) *Logger {
	return &Logger{out: out, errOut: errOut}
}

// SetNoColor disables colored output.
func (l *Logger) SetNoColor(noColor bool) {
	l.noColor = noColor
	color.NoColor = noColor
}

// SetVerbose enables debug output.
func (l *Logger) SetVerbose(verbose bool) {
	l.verbose = verbose
}

// SetJSONMode enables JSON output mode (suppresses text output).
func (l *Logger) SetJSONMode(jsonMode bool) {
	l.jsonMode = jsonMode
}

// IsVerbose reports whether debug output is enabled.
func (l *Logger) IsVerbose() bool { return l.verbose }

// IsJSON reports whether JSON mode is enabled.
func (l *Logger) IsJSON() bool { return l.jsonMode }

// Writer returns the standard output writer.
func (l *Logger) Writer() io.Writer { return l.out }

// ErrWriter returns the error output writer.
func (l *Logger) ErrWriter() io.Writer { return l.errOut }

// Info prints an informational message in default color.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.jsonMode {
		return
	}
	fmt.Fprintf(l.out, format+"\n", args...)
}

// Warn prints a warning message in yellow.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.jsonMode {
		return
	}
	color.New(color.FgYellow).Fprintf(l.errOut, "Warning: "+format+"\n", args...)
}

// Error prints an error message in red. Errors are printed in JSON mode too,
// on the error writer.
func (l *Logger) Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(l.errOut, "Error: "+format+"\n", args...)
}

// Success prints a success message in green with checkmark.
func (l *Logger) Success(format string, args ...interface{}) {
	if l.jsonMode {
		return
	}
	color.New(color.FgGreen).Fprintf(l.out, "✓ "+format+"\n", args...)
}

// Debug prints a debug message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.jsonMode || !l.verbose {
		return
	}
	color.New(color.FgHiBlack).Fprintf(l.errOut, "[DEBUG] "+format+"\n", args...)
}

// Bold prints a message in bold.
func (l *Logger) Bold(format string, args ...interface{}) {
	if l.jsonMode {
		return
	}
	color.New(color.Bold).Fprintf(l.out, format+"\n", args...)
}

// Cyan prints a message in cyan (for highlights).
func (l *Logger) Cyan(format string, args ...interface{}) {
	if l.jsonMode {
		return
	}
	color.New(color.FgCyan).Fprintf(l.out, format+"\n", args...)
}

// Println prints a plain message with newline.
func (l *Logger) Println(format string, args ...interface{}) {
	if l.jsonMode {
		return
	}
	fmt.Fprintf(l.out, format+"\n", args...)
}

// JSON writes v as indented JSON. It is a no-op outside JSON mode.
func (l *Logger) JSON(v any) error {
	if !l.jsonMode {
		return nil
	}
	enc := json.NewEncoder(l.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// DefaultLogger is the process-wide CLI logger.
var DefaultLogger = NewLogger()
