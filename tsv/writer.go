package tsv

import (
	"bufio"
	"io"
	"strings"
)

// Writer writes tab-separated records. Call Flush after the last Write.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 256*1024)}
}

// Write writes a single record followed by a newline.
func (w *Writer) Write(record []string) error {
	if _, err := w.bw.WriteString(strings.Join(record, "\t")); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.bw.Flush() }
