// Package manifest loads a run's graph.yaml root manifest — provider
// wiring and default role-template/scheduler settings — and resolves it
// into the two lookups internal/runner.Resolver needs: a node's
// provider spec and its role template's prompt text.
//
// The YAML-tag struct shape and the loader's error-wrapping idiom are
// grounded on the teacher's internal/manifest (a Persona/Adapter-keyed
// pipeline manifest loaded with gopkg.in/yaml.v3); this repo generalizes
// "persona" to "role template" and drops the pipeline-step-oriented
// fields (skill_mounts, routing, meta-pipeline) the graph engine has no
// use for.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the parsed graph.yaml root document.
type Manifest struct {
	APIVersion    string                    `yaml:"apiVersion"`
	Kind          string                    `yaml:"kind"`
	Metadata      Metadata                  `yaml:"metadata"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	RoleTemplates map[string]string         `yaml:"roleTemplates,omitempty"`
	Scheduler     SchedulerConfig           `yaml:"scheduler,omitempty"`
}

type Metadata struct {
	Name string `yaml:"name"`
}

// ProviderConfig is one provider's adapter wiring.
type ProviderConfig struct {
	Binary          string  `yaml:"binary"`
	Transport       string  `yaml:"transport"` // cli | cli-interactive | api | mock
	Protocol        string  `yaml:"protocol"`  // jsonl | raw | stream-json
	ResumeSupported bool    `yaml:"resumeSupported"`
	Endpoint        string  `yaml:"endpoint,omitempty"`
	APIKeyEnv       string  `yaml:"apiKeyEnv,omitempty"`
	RequestsPerSec  float64 `yaml:"requestsPerSec,omitempty"`
	PromptPattern   string  `yaml:"promptPattern,omitempty"`
}

// SchedulerConfig is the scheduler's tunable knobs (§4.2, §4.6).
type SchedulerConfig struct {
	TickMS         int `yaml:"tickMs,omitempty"`
	StallThreshold int `yaml:"stallThreshold,omitempty"`
}

// Load reads and parses a graph.yaml file at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return &m, nil
}
