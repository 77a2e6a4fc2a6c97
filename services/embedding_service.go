package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/qazlegal/constitution-assistant/models"
)

// EmbeddingProvider maps text to a fixed-dimension vector. The vector
// index and the answer pipeline only ever talk to this interface so
// tests can substitute a fake.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// OllamaEmbedder is the primary embedding backend, talking to a local
// Ollama server over HTTP.
type OllamaEmbedder struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllamaEmbedder creates the Ollama-backed embedder. The caller
// injects the http.Client so request timeouts are set in one place.
func NewOllamaEmbedder(client *http.Client, baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{httpClient: client, baseURL: baseURL, model: model}
}

// Embed generates an embedding for a single text using Ollama.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return ollamaResp.Embedding, nil
}

// EmbedBatch embeds each text in order. Ollama's embeddings endpoint is
// single-prompt, so this is a sequential loop.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("could not embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// OpenAIEmbedder is the secondary embedding backend, speaking the
// OpenAI-compatible /embeddings protocol.
type OpenAIEmbedder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAIEmbedder creates the fallback embedder. The API key is read
// from the environment variable named by apiKeyEnv; an empty key is
// allowed for keyless local deployments.
func NewOpenAIEmbedder(client *http.Client, baseURL, apiKeyEnv, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		httpClient: client,
		baseURL:    baseURL,
		apiKey:     os.Getenv(apiKeyEnv),
		model:      model,
	}
}

type openAIEmbedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding through the OpenAI-compatible endpoint.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(openAIEmbedRequest{Input: text, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call embeddings api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var out openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings api returned no embedding")
	}
	return out.Data[0].Embedding, nil
}

// EmbedBatch embeds each text in order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("could not embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// FallbackEmbedder tries the primary provider and, on failure, the
// secondary. When both fail the error wraps ErrServiceUnavailable; a
// zero vector is never substituted.
type FallbackEmbedder struct {
	primary   EmbeddingProvider
	secondary EmbeddingProvider
}

// NewFallbackEmbedder composes the primary/secondary chain. secondary
// may be nil when no fallback is configured.
func NewFallbackEmbedder(primary, secondary EmbeddingProvider) *FallbackEmbedder {
	return &FallbackEmbedder{primary: primary, secondary: secondary}
}

// Embed implements EmbeddingProvider.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, primaryErr := f.primary.Embed(ctx, text)
	if primaryErr == nil {
		return vec, nil
	}
	if f.secondary == nil {
		return nil, fmt.Errorf("%w: primary embedder failed: %v", ErrServiceUnavailable, primaryErr)
	}
	log.Printf("EMBEDDER WARN: primary embedder failed, trying fallback: %v", primaryErr)
	vec, secondaryErr := f.secondary.Embed(ctx, text)
	if secondaryErr == nil {
		return vec, nil
	}
	return nil, fmt.Errorf("%w: primary: %v; fallback: %v", ErrServiceUnavailable, primaryErr, secondaryErr)
}

// EmbedBatch implements EmbeddingProvider. The whole batch goes to one
// provider so all vectors of an ingestion share a model and dimension.
func (f *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, primaryErr := f.primary.EmbedBatch(ctx, texts)
	if primaryErr == nil {
		return vectors, nil
	}
	if f.secondary == nil {
		return nil, fmt.Errorf("%w: primary embedder failed: %v", ErrServiceUnavailable, primaryErr)
	}
	log.Printf("EMBEDDER WARN: primary embedder failed, trying fallback: %v", primaryErr)
	vectors, secondaryErr := f.secondary.EmbedBatch(ctx, texts)
	if secondaryErr == nil {
		return vectors, nil
	}
	return nil, fmt.Errorf("%w: primary: %v; fallback: %v", ErrServiceUnavailable, primaryErr, secondaryErr)
}
