package core

import (
	"context"
	"io"
	"log/slog"
)

// Runner ties together Scheduler + Executor: it runs pipelines in order,
// each pipeline's commands in order, and stops at the first failing step.
type Runner struct {
	Scheduler *Scheduler
	Executor  *Executor
	Logger    *slog.Logger
}

// NewRunner creates a runner executing commands in workDir.
func NewRunner(workDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	scheduler := NewScheduler()
	scheduler.Logger = logger
	return &Runner{
		Scheduler: scheduler,
		Executor:  NewExecutor(workDir),
		Logger:    logger,
	}
}

// Run executes the pipelines.
//
// A failing step aborts the whole run, not only its pipeline, and the
// returned Failed carries only the steps of the failing pipeline. Pipelines
// whose guard does not pass are skipped; if all of them are skipped the
// result is NoExecution.
func (r *Runner) Run(ctx context.Context, pipelines []Pipeline, variables Variables) ExecutionResult {
	executedAny := false
	var done []StepResult

	for _, pipeline := range pipelines {
		if !r.Scheduler.ShouldRun(pipeline.When, variables) {
			r.Logger.Info("pipeline skipped", "pipeline", pipeline.Name, "when", pipeline.When)
			continue
		}

		executedAny = true
		r.Logger.Info("pipeline started", "pipeline", pipeline.Name, "steps", len(pipeline.Commands))

		steps, failed := r.runPipeline(ctx, pipeline, variables)
		if failed {
			// TODO: include the steps of pipelines that already succeeded
			// once the failure mail can render more than one pipeline.
			return Failed{Steps: steps}
		}
		done = append(done, steps...)
	}

	if !executedAny {
		return NoExecution{}
	}
	if done == nil {
		done = []StepResult{}
	}
	return Succeeded{Steps: done}
}

func (r *Runner) runPipeline(ctx context.Context, pipeline Pipeline, variables Variables) ([]StepResult, bool) {
	results := make([]StepResult, 0, len(pipeline.Commands))

	for i, raw := range pipeline.Commands {
		line := Substitute(raw, variables, r.Scheduler.Environ)
		cmd := NewCommand(Tokenize(line))

		// log the raw line, the substituted one may contain secrets
		r.Logger.Info("running step", "pipeline", pipeline.Name, "step", i+1, "command", raw)
		result := r.Executor.RunStep(ctx, cmd)
		results = append(results, result)

		if result.Failed() {
			attrs := []any{"pipeline", pipeline.Name, "step", i + 1, "command", raw}
			if result.ExitCode != nil {
				attrs = append(attrs, "exit_code", *result.ExitCode)
			}
			r.Logger.Error("step failed", attrs...)
			return results, true
		}
	}

	return results, false
}
