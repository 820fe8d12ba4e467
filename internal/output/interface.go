package output

import (
	"io"

	"github.com/altuslabsxyz/txconfirm/internal/execorder"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// LoggerInterface defines the CLI output surface used by commands.
type LoggerInterface interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Success(format string, args ...interface{})
	Println(format string, args ...interface{})
	Bold(format string, args ...interface{})
	Cyan(format string, args ...interface{})
	JSON(v any) error

	SetVerbose(verbose bool)
	SetNoColor(noColor bool)
	SetJSONMode(jsonMode bool)
	IsVerbose() bool
	IsJSON() bool

	Writer() io.Writer
	ErrWriter() io.Writer

	PrintEvents(events []network.DecodedEvent)
	PrintOrder(block *network.Block, res *execorder.Result)
}

// Verify that Logger implements LoggerInterface at compile time.
var _ LoggerInterface = (*Logger)(nil)
