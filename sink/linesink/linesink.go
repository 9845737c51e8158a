// Package linesink is the default kernel.Stream: one newline-delimited
// text line per sample, in the tab-separated
// "time\tsimulator_path\tport_name\ttextual_value" form spec.md §6
// specifies for the default observation output.
package linesink

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vle-project/devskernel/kernel"
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

var _ kernel.Stream = (*Sink)(nil)

// Sink writes samples as text lines to an underlying writer (a file, or
// os.Stdout for ad hoc runs).
type Sink struct {
	w      *bufio.Writer
	closer io.Closer
	opened bool
}

// New wraps w. If w also implements io.Closer, Close closes it too.
func New(w io.Writer) *Sink {
	s := &Sink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Open writes a header line naming the view and its parameters.
func (s *Sink) Open(viewName string, params value.Value) error {
	s.opened = true
	_, err := fmt.Fprintf(s.w, "# view %s %s\n", viewName, params.String())
	return err
}

// WriteValues writes one line per sample: "time\tsimulator_path\tport_name\tvalue".
func (s *Sink) WriteValues(t devstime.Time, samples []kernel.Sample) error {
	for _, sample := range samples {
		if _, err := fmt.Fprintf(s.w, "%g\t%s\t%s\t%s\n", t.Float64(), sample.Name, sample.Port, sample.Value.String()); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered output and closes the underlying writer if
// possible.
func (s *Sink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
