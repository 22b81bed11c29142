package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/datapilot/internal/config"
)

func TestNewModel_Ollama(t *testing.T) {
	model, err := NewModel(config.Config{
		LLMProvider: config.ProviderOllama,
		LLMModel:    "llama3.2",
		OllamaHost:  "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", model.Model())
}

func TestNewModel_MissingKeys(t *testing.T) {
	_, err := NewModel(config.Config{LLMProvider: config.ProviderOpenAI, LLMModel: "gpt-4o"})
	assert.ErrorContains(t, err, "OpenAI API key required")

	_, err = NewModel(config.Config{LLMProvider: config.ProviderAnthropic, LLMModel: "claude-sonnet-4-5"})
	assert.ErrorContains(t, err, "Anthropic API key required")
}

func TestNewModel_UnsupportedProvider(t *testing.T) {
	_, err := NewModel(config.Config{LLMProvider: "bedrock"})
	assert.ErrorContains(t, err, "unsupported LLM provider")
}
