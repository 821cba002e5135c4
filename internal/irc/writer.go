package irc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalnet/eirc/internal/logger"
	"github.com/dalnet/eirc/internal/metrics"
)

// ErrInvalidLine is returned for outgoing text that would break line framing
var ErrInvalidLine = errors.New("invalid outgoing line")

// Writer frames outgoing commands and flushes each one immediately
type Writer struct {
	w   *bufio.Writer
	log logger.Logger
}

// NewWriter wraps w. Nothing is buffered across calls to Send.
func NewWriter(w io.Writer, log logger.Logger) *Writer {
	return &Writer{w: bufio.NewWriter(w), log: log}
}

// Send writes text terminated by exactly one CR LF.
// A terminator already present at the end of text is dropped first.
func (w *Writer) Send(text string) error {
	text = strings.TrimRight(text, "\r\n")
	if strings.ContainsAny(text, "\r\n\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidLine, text)
	}

	if _, err := w.w.WriteString(text + "\r\n"); err != nil {
		return fmt.Errorf("failed to write %q: %w", text, err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %q: %w", text, err)
	}

	metrics.LinesSent.Inc()
	w.log.Trace("<< " + text)
	return nil
}

// Sendf formats and sends a command
func (w *Writer) Sendf(format string, args ...any) error {
	return w.Send(fmt.Sprintf(format, args...))
}
