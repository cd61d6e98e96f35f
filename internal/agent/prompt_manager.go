package agent

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds template overrides. An empty field means "use the built-in
// template" of the consuming package.
type Prompts struct {
	Summarizer string `yaml:"summarizer"`
	Training   string `yaml:"training"`
}

// PromptManager loads prompt templates from a YAML file such as:
//
//	summarizer: |
//	  Summarize this abstract.
//	  {{.Text}}
//	  Summary:
type PromptManager struct {
	Path string
}

func NewPromptManager(path string) *PromptManager {
	return &PromptManager{Path: path}
}

// Load reads the prompt file. A missing file or empty path yields empty
// Prompts.
func (pm *PromptManager) Load() (Prompts, error) {
	var p Prompts
	if pm.Path == "" {
		return p, nil
	}
	data, err := os.ReadFile(pm.Path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse prompts file %s: %w", pm.Path, err)
	}
	return p, nil
}
