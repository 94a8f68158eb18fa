package factory

import (
	"testing"

	"infra-assistant-be/pkg/llm"
	"infra-assistant-be/pkg/llm/gemini"
	"infra-assistant-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(Settings{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", p.(*ollama.OllamaProvider).BaseURL)

	p, err = NewLLMProvider(Settings{Provider: "gemini", ApiKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &gemini.GeminiProvider{}, p)

	_, err = NewLLMProvider(Settings{Provider: "gemini"})
	assert.Error(t, err)
	_, err = NewLLMProvider(Settings{Provider: "huggingface"})
	assert.Error(t, err)
	_, err = NewLLMProvider(Settings{Provider: "gpt"})
	assert.Error(t, err)
}

func TestNewResponderDefaultsToEcho(t *testing.T) {
	for _, name := range []string{"", "echo"} {
		r, err := NewResponder(Settings{Provider: name})
		require.NoError(t, err)
		assert.IsType(t, llm.NewEchoResponder(), r)
	}
}
