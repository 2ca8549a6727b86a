// Package nquads writes already-term-wrapped quads in N-Quads line
// format. All term syntax (`<IRI>`, `_:label`, `"literal"`) is produced
// upstream by quadgen; this package only joins fields and appends the
// trailing statement terminator. Grounded on
// original_source/FlexRML.cpp's writerThread output loop.
package nquads

import (
	"bufio"
	"io"

	"github.com/rmlstream/rmlstream/quadgen"
)

// Writer serializes quads to an underlying io.Writer, one statement per
// line: `subject predicate object [graph] .\n`.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w in a buffered N-Quads writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteQuad appends one statement line for q.
func (w *Writer) WriteQuad(q quadgen.Quad) error {
	if _, err := w.w.WriteString(q.Subject); err != nil {
		return err
	}
	if err := w.w.WriteByte(' '); err != nil {
		return err
	}
	if _, err := w.w.WriteString(q.Predicate); err != nil {
		return err
	}
	if err := w.w.WriteByte(' '); err != nil {
		return err
	}
	if _, err := w.w.WriteString(q.Object); err != nil {
		return err
	}
	if err := w.w.WriteByte(' '); err != nil {
		return err
	}
	if q.Graph != "" {
		if _, err := w.w.WriteString(q.Graph); err != nil {
			return err
		}
		if err := w.w.WriteByte(' '); err != nil {
			return err
		}
	}
	_, err := w.w.WriteString(".\n")
	return err
}

// Flush forces any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
