package codegen

import (
	"bytes"
	"fmt"
	"io"
)

// source accumulates generated text.
type source struct {
	buf    bytes.Buffer
	indent int
}

func (s *source) writef(format string, args ...any) {
	for i := 0; i < s.indent; i++ {
		s.buf.WriteString("  ")
	}
	fmt.Fprintf(&s.buf, format, args...)
}

// line writes one indented line.
func (s *source) line(format string, args ...any) {
	s.writef(format, args...)
	s.buf.WriteByte('\n')
}

// blank writes an empty line.
func (s *source) blank() { s.buf.WriteByte('\n') }

// raw writes text verbatim.
func (s *source) raw(text string) { s.buf.WriteString(text) }

func (s *source) flush(w io.Writer) error {
	if _, err := w.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("codegen: write: %w", err)
	}
	return nil
}
