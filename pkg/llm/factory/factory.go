package factory

import (
	"fmt"

	"infra-assistant-be/pkg/llm"
	"infra-assistant-be/pkg/llm/gemini"
	"infra-assistant-be/pkg/llm/huggingface"
	"infra-assistant-be/pkg/llm/ollama"
)

type Settings struct {
	Provider string // "echo", "ollama", "gemini" or "huggingface"
	Model    string
	BaseURL  string
	ApiKey   string
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "ollama":
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, s.Model), nil
	case "gemini":
		if s.ApiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(s.ApiKey, s.BaseURL, s.Model), nil
	case "huggingface":
		if s.ApiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(s.ApiKey, s.BaseURL, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

// NewResponder returns the template responder for "echo" and a model-backed
// responder otherwise.
func NewResponder(s Settings) (llm.Responder, error) {
	if s.Provider == "" || s.Provider == "echo" {
		return llm.NewEchoResponder(), nil
	}
	provider, err := NewLLMProvider(s)
	if err != nil {
		return nil, err
	}
	return llm.NewChatResponder(provider, llm.WithMaxTokens(600)), nil
}
