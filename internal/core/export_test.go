package core

import "io"

// SetOutputWrapper replaces the reader RunStep consumes child output from.
func SetOutputWrapper(e *Executor, wrap func(io.Reader) io.Reader) {
	e.wrapOutput = wrap
}
