package pkg

import (
	"io"
	"sync"

	"go.uber.org/multierr"
)

// TeeWriter copies log output to several writers, e.g. stdout and the
// rotating log file. A write succeeds when at least one writer took the
// whole message, so a broken log file does not silence stdout.
type TeeWriter struct {
	mutex   sync.Mutex
	writers []io.Writer
	errs    error
}

func NewTeeWriter(writers ...io.Writer) *TeeWriter {
	return &TeeWriter{
		writers: append([]io.Writer{}, writers...),
	}
}

func (tw *TeeWriter) Write(p []byte) (int, error) {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	var errs error
	delivered := false
	for _, w := range tw.writers {
		n, err := w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		delivered = true
	}

	if errs != nil {
		tw.errs = multierr.Append(tw.errs, errs)
	}
	if !delivered && len(tw.writers) > 0 {
		return 0, errs
	}
	return len(p), nil
}

// Errors returns and clears the write errors swallowed so far.
func (tw *TeeWriter) Errors() []error {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()
	errs := multierr.Errors(tw.errs)
	tw.errs = nil
	return errs
}
