package core_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinderella/internal/core"
)

func newTestRunner(t *testing.T) *core.Runner {
	t.Helper()
	runner := core.NewRunner(t.TempDir(), nil)
	runner.Executor.Console = nil
	return runner
}

func outputOf(result core.ExecutionResult) string {
	var steps []core.StepResult
	switch r := result.(type) {
	case core.Succeeded:
		steps = r.Steps
	case core.Failed:
		steps = r.Steps
	case core.NoExecution:
	}

	var sb strings.Builder
	for _, step := range steps {
		sb.WriteString(step.Output)
	}
	return sb.String()
}

func TestRun_Pipeline(t *testing.T) {
	pipelines := []core.Pipeline{{
		Name:     "my-test",
		Commands: []string{"echo 'this is my test'"},
	}}

	result := newTestRunner(t).Run(context.Background(), pipelines, core.NewVariables())

	require.IsType(t, core.Succeeded{}, result)
	assert.Contains(t, outputOf(result), "this is my test")
}

func TestRun_ErrorStatement(t *testing.T) {
	pipelines := []core.Pipeline{{
		Name:     "error-test",
		Commands: []string{`bash -c "exit 1"`},
	}}

	result := newTestRunner(t).Run(context.Background(), pipelines, core.NewVariables())

	failed, ok := result.(core.Failed)
	require.True(t, ok, "expected Failed, got %T", result)
	require.Len(t, failed.Steps, 1)
	assert.Equal(t, `bash -c "exit 1"`, failed.FailingStep().Command)
	require.NotNil(t, failed.FailingStep().ExitCode)
	assert.Equal(t, 1, *failed.FailingStep().ExitCode)
}

func TestRun_WithVariables(t *testing.T) {
	pipelines := []core.Pipeline{{
		Name:     "my-test",
		Commands: []string{"echo '%MYVAR'"},
	}}
	vars := core.NewVariables()
	vars.Set("myvar", "some value")

	result := newTestRunner(t).Run(context.Background(), pipelines, vars)

	assert.Contains(t, outputOf(result), "some value")
}

func TestRun_ConditionalFalse(t *testing.T) {
	pipelines := []core.Pipeline{{
		Name:     "my-test",
		Commands: []string{"echo 'Building non-master'"},
		When:     `"%BRANCH" != "master"`,
	}}
	vars := core.NewVariables()
	vars.Set("branch", "master")

	result := newTestRunner(t).Run(context.Background(), pipelines, vars)

	assert.Equal(t, core.NoExecution{}, result)
	assert.NotContains(t, outputOf(result), "non-master")
}

func TestRun_ConditionalTrue(t *testing.T) {
	pipelines := []core.Pipeline{{
		Name:     "my-test",
		Commands: []string{"echo 'Building master'"},
		When:     `"%BRANCH" == "master"`,
	}}
	vars := core.NewVariables()
	vars.Set("branch", "master")

	result := newTestRunner(t).Run(context.Background(), pipelines, vars)

	require.IsType(t, core.Succeeded{}, result)
	assert.Contains(t, outputOf(result), "Building master")
}

func TestRun_FailureKeepsOnlyFailingPipeline(t *testing.T) {
	pipelines := []core.Pipeline{
		{Name: "first", Commands: []string{"echo one", "echo two"}},
		{Name: "second", Commands: []string{`sh -c "echo broken; exit 2"`, "echo never"}},
		{Name: "third", Commands: []string{"echo unreachable"}},
	}

	result := newTestRunner(t).Run(context.Background(), pipelines, core.NewVariables())

	failed, ok := result.(core.Failed)
	require.True(t, ok, "expected Failed, got %T", result)
	require.Len(t, failed.Steps, 1)
	assert.Equal(t, core.StepFailure, failed.Steps[0].Status)
	assert.Equal(t, "broken\n", failed.Steps[0].Output)
	assert.NotContains(t, outputOf(result), "unreachable")
}

func TestRun_FailureMidPipeline(t *testing.T) {
	pipelines := []core.Pipeline{
		{Name: "only", Commands: []string{"echo ok", "false", "echo never"}},
	}

	result := newTestRunner(t).Run(context.Background(), pipelines, core.NewVariables())

	failed, ok := result.(core.Failed)
	require.True(t, ok)
	require.Len(t, failed.Steps, 2)
	assert.Equal(t, core.StepSuccess, failed.Steps[0].Status)
	assert.Equal(t, core.StepFailure, failed.Steps[1].Status)
}

func TestRun_SuccessCollectsAllPipelines(t *testing.T) {
	pipelines := []core.Pipeline{
		{Name: "a", Commands: []string{"echo a1", "echo a2"}},
		{Name: "skipped", Commands: []string{"echo s"}, When: "false"},
		{Name: "b", Commands: []string{"echo b1"}},
	}

	result := newTestRunner(t).Run(context.Background(), pipelines, core.NewVariables())

	succeeded, ok := result.(core.Succeeded)
	require.True(t, ok)
	require.Len(t, succeeded.Steps, 3)
	assert.Equal(t, "a1\na2\nb1\n", outputOf(result))
}

func TestRun_AllGuardedOut(t *testing.T) {
	pipelines := []core.Pipeline{
		{Name: "a", Commands: []string{"echo a"}, When: "false"},
		{Name: "b", Commands: []string{"echo b"}, When: "not valid ((("},
	}

	result := newTestRunner(t).Run(context.Background(), pipelines, core.NewVariables())

	assert.Equal(t, core.NoExecution{}, result)
}

func TestRun_EmptyPipelineStillExecutes(t *testing.T) {
	pipelines := []core.Pipeline{{Name: "empty", Commands: []string{}}}

	result := newTestRunner(t).Run(context.Background(), pipelines, core.NewVariables())

	succeeded, ok := result.(core.Succeeded)
	require.True(t, ok)
	assert.Empty(t, succeeded.Steps)
}

func TestRun_CommandsRunInWorkDir(t *testing.T) {
	runner := newTestRunner(t)
	pipelines := []core.Pipeline{{Name: "files", Commands: []string{"touch created.txt", "ls"}}}

	result := runner.Run(context.Background(), pipelines, core.NewVariables())

	assert.Contains(t, outputOf(result), "created.txt")
}
