package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptManager_Load(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "prompts.yaml")
	content := `summarizer: |
  Summarize briefly.
  {{.Text}}
  Summary:
training: "Paper: {{.Article}}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	pm := NewPromptManager(path)
	p, err := pm.Load()
	require.NoError(t, err)

	assert.Equal(t, "Summarize briefly.\n{{.Text}}\nSummary:\n", p.Summarizer)
	assert.Equal(t, "Paper: {{.Article}}", p.Training)
}

func TestPromptManager_MissingFile(t *testing.T) {
	pm := NewPromptManager(filepath.Join(t.TempDir(), "none.yaml"))
	p, err := pm.Load()
	require.NoError(t, err)
	assert.Empty(t, p.Summarizer)
	assert.Empty(t, p.Training)

	p, err = NewPromptManager("").Load()
	require.NoError(t, err)
	assert.Equal(t, Prompts{}, p)
}

func TestPromptManager_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("summarizer: [unclosed"), 0644))

	_, err := NewPromptManager(path).Load()
	assert.Error(t, err)
}
