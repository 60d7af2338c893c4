package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Executor is responsible for running steps (commands)
type Executor struct {
	// WorkDir is the directory children run in. Empty means the current
	// directory of this process.
	WorkDir string

	// Console receives every output line as it arrives.
	Console io.Writer

	// wrapOutput, when set, wraps the read side of the output pipe.
	wrapOutput func(io.Reader) io.Reader
}

// NewExecutor creates an executor that runs commands in workDir and echoes
// their output to stdout.
func NewExecutor(workDir string) *Executor {
	return &Executor{WorkDir: workDir, Console: os.Stdout}
}

// RunStep starts cmd with stdout and stderr merged into one pipe and reads
// it line by line. Every line is echoed to the console and captured.
//
// If reading fails the child is killed and a failure without exit code is
// returned, keeping the output read so far. Otherwise the exit status
// decides: zero is a success, a non-zero exit is a failure carrying the code,
// and a signal is a failure marked Signaled.
// Cancelling ctx kills the child; RunStep itself sets no deadline.
func (e *Executor) RunStep(ctx context.Context, cmd Command) StepResult {
	commandString := cmd.String()
	if cmd.Program == "" {
		return stepFailure(commandString, "empty command\n", nil)
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return stepFailure(commandString, fmt.Sprintf("cannot create output pipe: %v\n", err), nil)
	}
	defer reader.Close()

	child := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	child.Dir = e.WorkDir
	child.Stdout = writer
	child.Stderr = writer

	if err := child.Start(); err != nil {
		writer.Close()
		return stepFailure(commandString, fmt.Sprintf("cannot start %s: %v\n", cmd.Program, err), nil)
	}
	// the child holds its own copy; without closing ours EOF never arrives
	writer.Close()

	waited := false
	defer func() {
		if !waited {
			_ = child.Process.Kill()
			_ = child.Wait()
		}
	}()

	var source io.Reader = reader
	if e.wrapOutput != nil {
		source = e.wrapOutput(reader)
	}

	var output strings.Builder
	lines := bufio.NewReader(source)
	for {
		line, readErr := lines.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			e.echo(line)
			output.WriteString(line)
			output.WriteString("\n")
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			// deferred kill releases the child
			output.WriteString(fmt.Sprintf("cannot read output: %v\n", readErr))
			return stepFailure(commandString, output.String(), nil)
		}
	}

	waited = true
	if err := child.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code >= 0 {
				return stepFailure(commandString, output.String(), &code)
			}
			// -1 after a completed Wait means a signal ended the process
			return stepSignaled(commandString, output.String())
		}
		output.WriteString(fmt.Sprintf("cannot wait for %s: %v\n", cmd.Program, err))
		return stepFailure(commandString, output.String(), nil)
	}

	return stepSuccess(commandString, output.String())
}

func (e *Executor) echo(line string) {
	if e.Console == nil {
		return
	}
	fmt.Fprintln(e.Console, line)
}
