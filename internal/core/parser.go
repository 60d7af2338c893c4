package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrNoPipelineFile is returned when a repository carries no pipeline definition.
var ErrNoPipelineFile = errors.New("no pipeline definition found")

// DefaultPipelineFiles are looked up, in this order, in the root of a checkout.
var DefaultPipelineFiles = []string{".cinderella.toml", ".cinderella.yaml", ".cinderella.yml"}

// FindPipelineFile returns the first default pipeline file present in dir.
func FindPipelineFile(dir string) (string, error) {
	for _, name := range DefaultPipelineFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoPipelineFile
}

// LoadPipelines reads a pipeline definition file. The format is chosen by
// extension: .yaml/.yml is YAML, anything else TOML.
func LoadPipelines(path string) ([]Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoPipelineFile, path)
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParsePipelinesYAML(data)
	default:
		return ParsePipelinesTOML(data)
	}
}

// ParsePipelinesTOML parses TOML content where every top-level table is a
// pipeline:
//
//	[build]
//	commands = ["make"]
//	when = "\"%BRANCH\" == \"master\""
//
// Top-level keys that are not tables are ignored. Table order is kept.
func ParsePipelinesTOML(data []byte) ([]Pipeline, error) {
	var raw map[string]toml.Primitive
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("parse pipeline definition: %w", err)
	}

	pipelines := make([]Pipeline, 0, len(raw))
	for _, key := range md.Keys() {
		if len(key) != 1 || md.Type(key...) != "Hash" {
			continue
		}
		name := key[0]

		var p Pipeline
		if err := md.PrimitiveDecode(raw[name], &p); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		if !md.IsDefined(name, "commands") {
			return nil, fmt.Errorf("pipeline %q: missing commands", name)
		}
		p.Name = name
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

// ParsePipelinesYAML parses YAML content of the same shape as the TOML
// format: a mapping from pipeline name to {commands, when}. Mapping order is
// kept.
func ParsePipelinesYAML(data []byte) ([]Pipeline, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse pipeline definition: %w", err)
	}
	if len(root.Content) == 0 {
		return []Pipeline{}, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse pipeline definition: top level must be a mapping")
	}

	pipelines := make([]Pipeline, 0, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		keyNode, valueNode := doc.Content[i], doc.Content[i+1]
		if valueNode.Kind != yaml.MappingNode {
			continue
		}

		var p Pipeline
		if err := valueNode.Decode(&p); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", keyNode.Value, err)
		}
		if p.Commands == nil {
			return nil, fmt.Errorf("pipeline %q: missing commands", keyNode.Value)
		}
		p.Name = keyNode.Value
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}
