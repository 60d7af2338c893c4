package core

// StepStatus tells whether a step succeeded.
type StepStatus int

const (
	StepSuccess StepStatus = iota
	StepFailure
)

func (s StepStatus) String() string {
	if s == StepSuccess {
		return "success"
	}
	return "failure"
}

// StepResult is the outcome of one executed command.
type StepResult struct {
	Status  StepStatus
	Command string // canonical form, see Command.String
	Output  string // combined stdout and stderr, one "\n" per line

	// ExitCode is set for failures of processes that exited on their own.
	// It is nil when the process was killed, terminated by a signal or
	// never started.
	ExitCode *int

	// Signaled is set when the process was terminated by a signal. A failure
	// with neither ExitCode nor Signaled never ran to completion: it did not
	// start or its output could not be read, and Output says why.
	Signaled bool
}

// Failed reports whether the step failed.
func (r StepResult) Failed() bool {
	return r.Status == StepFailure
}

func stepSuccess(command, output string) StepResult {
	return StepResult{Status: StepSuccess, Command: command, Output: output}
}

func stepFailure(command, output string, exitCode *int) StepResult {
	return StepResult{Status: StepFailure, Command: command, Output: output, ExitCode: exitCode}
}

func stepSignaled(command, output string) StepResult {
	return StepResult{Status: StepFailure, Command: command, Output: output, Signaled: true}
}

// ExecutionResult is the outcome of a whole run. It is one of NoExecution,
// Succeeded or Failed; callers switch on the concrete type.
type ExecutionResult interface {
	executionResult()
}

// NoExecution means every pipeline was guarded out.
type NoExecution struct{}

// Succeeded holds the steps of all pipelines that ran, in order.
type Succeeded struct {
	Steps []StepResult
}

// Failed holds the steps of the pipeline that failed, ending with the
// failing step. Steps of pipelines that succeeded earlier in the same run
// are not included.
type Failed struct {
	Steps []StepResult
}

func (NoExecution) executionResult() {}
func (Succeeded) executionResult()   {}
func (Failed) executionResult()      {}

// FailingStep returns the step that aborted the run.
func (f Failed) FailingStep() StepResult {
	return f.Steps[len(f.Steps)-1]
}
