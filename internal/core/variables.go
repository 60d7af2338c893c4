package core

import (
	"os"
	"sort"
	"strings"
)

// Variables maps pipeline variable names to values. Names are case-insensitive
// and stored uppercased; commands reference them as %NAME.
type Variables map[string]string

// NewVariables creates an empty variable map.
func NewVariables() Variables {
	return make(Variables)
}

// Set stores value under the uppercased name.
func (v Variables) Set(name, value string) {
	v[strings.ToUpper(name)] = value
}

// Merge copies all entries of values into v, overwriting existing names.
func (v Variables) Merge(values map[string]string) {
	for name, value := range values {
		v.Set(name, value)
	}
}

// Environ returns the environment as KEY=VALUE pairs, like os.Environ.
type Environ func() []string

// Substitute replaces %NAME placeholders with pipeline variables, then $NAME
// placeholders with environment variables taken from environ (os.Environ when
// nil). Replacement is plain substring substitution; placeholders without a
// matching variable are left untouched.
//
// Within each pass longer names are replaced first so that %BRANCH does not
// eat the prefix of %BRANCH_NAME.
func Substitute(text string, variables Variables, environ Environ) string {
	if environ == nil {
		environ = os.Environ
	}

	result := text
	for _, name := range sortedNames(variables) {
		result = strings.ReplaceAll(result, "%"+strings.ToUpper(name), variables[name])
	}

	env := make(map[string]string)
	for _, entry := range environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	for _, key := range sortedNames(env) {
		result = strings.ReplaceAll(result, "$"+strings.ToUpper(key), env[key])
	}

	return result
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}
