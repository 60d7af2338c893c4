package core

import (
	"io"
	"log/slog"

	"github.com/dop251/goja"
)

// Scheduler decides which pipelines run by evaluating their when-clauses.
type Scheduler struct {
	Environ Environ
	Logger  *slog.Logger
}

// NewScheduler creates a scheduler reading the process environment.
func NewScheduler() *Scheduler {
	return &Scheduler{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// ShouldRun reports whether a pipeline guarded by when executes.
//
// An empty guard always runs. Otherwise the variables are substituted into
// the guard and the result is evaluated as a JavaScript expression, e.g.
// `"%BRANCH" == "master"`. Anything but a boolean true, including a guard
// that does not parse, skips the pipeline.
func (s *Scheduler) ShouldRun(when string, variables Variables) bool {
	if when == "" {
		return true
	}

	expression := Substitute(when, variables, s.Environ)

	vm := goja.New()
	value, err := vm.RunString(expression)
	if err != nil {
		s.logger().Debug("guard evaluation failed", "guard", expression, "error", err)
		return false
	}

	result, ok := value.Export().(bool)
	if !ok {
		s.logger().Debug("guard is not a boolean", "guard", expression, "value", value.String())
		return false
	}
	return result
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}
