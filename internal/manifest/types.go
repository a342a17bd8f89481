// Package manifest parses the component manifest and answers the
// questions downstream analyses ask of it: which component owns a file,
// which docs a touch-set loads, how fresh those docs are, and whether
// the declared dependency graph is sound.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Stability is a change-frequency hint used by planners.
type Stability string

const (
	StabilityStable       Stability = "stable"
	StabilityActive       Stability = "active"
	StabilityExperimental Stability = "experimental"
)

// PathList is a component's directory path(s). The manifest accepts a
// single scalar or a sequence; the parsed form is always a list, but the
// original shape is preserved so serialization round-trips.
type PathList struct {
	Paths  []string
	single bool
}

// NewPathList builds a PathList from explicit paths. One path keeps the
// scalar shape on serialization.
func NewPathList(paths ...string) PathList {
	return PathList{Paths: paths, single: len(paths) == 1}
}

// UnmarshalYAML accepts "dir" or ["dir1", "dir2"].
func (p *PathList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		p.Paths = []string{s}
		p.single = true
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		p.Paths = list
		p.single = false
		return nil
	default:
		return fmt.Errorf("path must be a string or list of strings (line %d)", node.Line)
	}
}

// MarshalYAML emits the same shape that was parsed.
func (p PathList) MarshalYAML() (interface{}, error) {
	if p.single && len(p.Paths) == 1 {
		return p.Paths[0], nil
	}
	return p.Paths, nil
}

// Component is a named subtree of the repository.
type Component struct {
	Path      PathList  `yaml:"path" json:"path"`
	Deps      []string  `yaml:"deps,omitempty" json:"deps,omitempty"`
	Docs      []string  `yaml:"docs,omitempty" json:"docs,omitempty"`
	Tags      []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	Test      string    `yaml:"test,omitempty" json:"test,omitempty"`
	Env       []string  `yaml:"env,omitempty" json:"env,omitempty"`
	Stability Stability `yaml:"stability,omitempty" json:"stability,omitempty"`
}

// HasTag reports whether the component carries the given tag.
func (c *Component) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Manifest is the parsed component manifest. Dir is the directory the
// manifest was loaded from; relative component paths resolve against it.
type Manifest struct {
	Version    string                `yaml:"version" json:"version"`
	Components map[string]*Component `yaml:"components" json:"components"`

	Dir string `yaml:"-" json:"-"`
}

// Component returns the named component, or nil.
func (m *Manifest) Component(name string) *Component {
	return m.Components[name]
}

// ComponentNames returns all component names in sorted order.
func (m *Manifest) ComponentNames() []string {
	names := make([]string, 0, len(m.Components))
	for name := range m.Components {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

// Serialize renders the manifest back to YAML. Parse(Serialize(m))
// yields a manifest equal to m.
func (m *Manifest) Serialize() ([]byte, error) {
	return yaml.Marshal(m)
}
