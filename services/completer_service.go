package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"google.golang.org/genai"
)

// Completer is the language-model boundary: one prompt in, free text
// out. The answer pipeline never sees which backend is configured.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OllamaCompleter generates completions from a local Ollama model.
type OllamaCompleter struct {
	llm *ollama.LLM
}

// NewOllamaCompleter creates the default completion backend. The
// timeout bounds every model call so a hung backend cannot block a
// request forever.
func NewOllamaCompleter(serverURL, model string, timeout time.Duration) (*OllamaCompleter, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create ollama llm client: %w", err)
	}
	return &OllamaCompleter{llm: llm}, nil
}

// Complete implements Completer.
func (c *OllamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: ollama completion failed: %v", ErrServiceUnavailable, err)
	}
	return strings.TrimSpace(completion), nil
}

// GeminiCompleter generates completions through the Google Gemini API.
// Selected with llm.provider="gemini" in the config.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates the Gemini backend. Requires
// GEMINI_API_KEY in the environment. The timeout bounds every model
// call.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}
	log.Println("Successfully connected to Google Gemini.")
	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini api call failed: %v", ErrServiceUnavailable, err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrServiceUnavailable)
	}
	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(responseText.String()), nil
}
