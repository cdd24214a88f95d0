package generator

import "fmt"

// New builds the generator for a provider name.
func New(provider, baseURL string) (Generator, error) {
	switch provider {
	case "", "gemini":
		return NewGeminiGenerator(baseURL), nil
	case "ollama":
		return NewOllamaGenerator(baseURL), nil
	case "openrouter":
		return NewOpenRouterGenerator(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
