// Package profile loads agent persona profiles from YAML.
//
// A profile overrides the reply directive and, optionally, the provider and
// model:
//
//	name: concierge
//	provider: openai
//	model: gpt-4o-mini
//	directive: |
//	  You are a helpful assistant responding only to new incoming messages.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is an agent persona.
type Profile struct {
	Name      string `yaml:"name"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Directive string `yaml:"directive"`
}

// Load reads a profile file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile document. Unknown keys are rejected.
func Parse(data []byte) (Profile, error) {
	var p Profile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Provider = strings.ToLower(strings.TrimSpace(p.Provider))
	p.Model = strings.TrimSpace(p.Model)
	p.Directive = strings.TrimSpace(p.Directive)
	if p.Directive == "" {
		return Profile{}, fmt.Errorf("directive is required")
	}
	return p, nil
}
