package core

// Pipeline is one named section of a pipeline definition file.
// Pipelines run in definition order; Commands run in order inside a pipeline.
type Pipeline struct {
	Name     string   `yaml:"-" toml:"-"`
	Commands []string `yaml:"commands" toml:"commands"` // raw command lines, variables not yet substituted
	When     string   `yaml:"when" toml:"when"`         // optional guard expression, empty means always run
}
