package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cinderella/internal/core"
)

func noEnv() []string { return nil }

func TestSubstitute_PipelineVariables(t *testing.T) {
	vars := core.NewVariables()
	vars.Set("branch", "master")
	vars.Set("Token", "s3cr3t")

	got := core.Substitute("deploy %BRANCH --token=%TOKEN %BRANCH", vars, noEnv)
	assert.Equal(t, "deploy master --token=s3cr3t master", got)
}

func TestSubstitute_UnknownPlaceholdersStay(t *testing.T) {
	vars := core.NewVariables()
	vars.Set("branch", "dev")

	got := core.Substitute(`printf "100%% %UNKNOWN $NOPE %BRANCH"`, vars, noEnv)
	assert.Equal(t, `printf "100%% %UNKNOWN $NOPE dev"`, got)
}

func TestSubstitute_LowercasePlaceholderIsNotReplaced(t *testing.T) {
	vars := core.NewVariables()
	vars.Set("branch", "dev")

	assert.Equal(t, "echo %branch", core.Substitute("echo %branch", vars, noEnv))
}

func TestSubstitute_LongerNamesFirst(t *testing.T) {
	vars := core.NewVariables()
	vars.Set("BRANCH", "short")
	vars.Set("BRANCH_NAME", "long")

	got := core.Substitute("%BRANCH_NAME %BRANCH", vars, noEnv)
	assert.Equal(t, "long short", got)
}

func TestSubstitute_Environment(t *testing.T) {
	env := func() []string {
		return []string{"HOME=/home/ci", "CI_TOKEN=abc", "BROKEN", "=x"}
	}

	got := core.Substitute("cd $HOME && echo $CI_TOKEN $MISSING", core.NewVariables(), env)
	assert.Equal(t, "cd /home/ci && echo abc $MISSING", got)
}

func TestSubstitute_VariablesBeforeEnvironment(t *testing.T) {
	vars := core.NewVariables()
	vars.Set("target", "$HOME/out")
	env := func() []string { return []string{"HOME=/root"} }

	got := core.Substitute("cp build %TARGET", vars, env)
	assert.Equal(t, "cp build /root/out", got)
}

func TestSubstitute_NoRecursion(t *testing.T) {
	vars := core.NewVariables()
	vars.Set("a", "%A%A")

	assert.Equal(t, "%A%A", core.Substitute("%A", vars, noEnv))
}

func TestVariables_CaseInsensitive(t *testing.T) {
	vars := core.NewVariables()
	vars.Set("Branch", "main")
	vars.Merge(map[string]string{"api_key": "k"})

	assert.Equal(t, core.Variables{"BRANCH": "main", "API_KEY": "k"}, vars)
}
