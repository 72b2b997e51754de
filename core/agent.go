package core

import "strings"

// Skill is one capability advertised by an agent descriptor.
type Skill struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// AgentDescriptor is the routable metadata of a specialist agent. It is
// uniquely keyed by Name and treated as immutable once loaded.
//
// Endpoint is serialized as "url" to stay compatible with A2A agent cards.
type AgentDescriptor struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Version     string  `json:"version,omitempty" yaml:"version,omitempty"`
	Skills      []Skill `json:"skills" yaml:"skills"`
	Endpoint    string  `json:"url" yaml:"url"`
}

// SearchText builds the text embedded for semantic matching: name,
// description and every skill description, in that order.
func (d AgentDescriptor) SearchText() string {
	descs := make([]string, 0, len(d.Skills))
	for _, s := range d.Skills {
		descs = append(descs, s.Description)
	}
	return "Name: " + d.Name + ". Description: " + d.Description + ". Skills: " + strings.Join(descs, " ")
}

// Clone returns a deep copy so callers cannot mutate registry-held descriptors.
func (d AgentDescriptor) Clone() AgentDescriptor {
	c := d
	if d.Skills != nil {
		c.Skills = make([]Skill, len(d.Skills))
		for i, s := range d.Skills {
			c.Skills[i] = s
			c.Skills[i].Tags = append([]string(nil), s.Tags...)
			c.Skills[i].Examples = append([]string(nil), s.Examples...)
		}
	}
	return c
}
