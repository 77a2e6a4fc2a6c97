package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// ChromaConfig contains connection details for the Chroma vector database.
type ChromaConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

// OllamaEmbedderConfig configures the primary (Ollama) embedding backend.
type OllamaEmbedderConfig struct {
	URL         string `yaml:"url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// FallbackEmbedderConfig configures the OpenAI-compatible secondary
// embedding backend used when Ollama is unreachable.
type FallbackEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedding providers.
type EmbedderConfig struct {
	Ollama   OllamaEmbedderConfig   `yaml:"ollama"`
	Fallback FallbackEmbedderConfig `yaml:"fallback"`
}

// LLMConfig selects the completion backend. Provider is "ollama" or
// "gemini"; Model is the provider's model identifier.
type LLMConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrieverConfig configures the MMR retrieval stage.
type RetrieverConfig struct {
	TopK   int     `yaml:"top_k"`
	FetchK int     `yaml:"fetch_k"`
	Lambda float64 `yaml:"lambda"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	Server      ServerConfig    `yaml:"server"`
	Chroma      ChromaConfig    `yaml:"chroma"`
	Embedder    EmbedderConfig  `yaml:"embedder"`
	LLM         LLMConfig       `yaml:"llm"`
	Chunker     ChunkerConfig   `yaml:"chunker"`
	Retriever   RetrieverConfig `yaml:"retriever"`
	CorpusPath  string          `yaml:"corpus_path"`
	UploadsDir  string          `yaml:"uploads_dir"`
	WatchUpload bool            `yaml:"watch_uploads"`
	HistoryPath string          `yaml:"history_path"`
}

// Load reads the config from path. A missing file yields the defaults,
// not an error, so a bare checkout runs against local Ollama and Chroma.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Port: "8080"},
		Chroma: ChromaConfig{URL: "http://localhost:8000", Collection: "constitution-assistant"},
		Embedder: EmbedderConfig{
			Ollama: OllamaEmbedderConfig{
				URL:         "http://localhost:11434",
				Model:       "nomic-embed-text:v1.5",
				TimeoutSecs: 30,
			},
			Fallback: FallbackEmbedderConfig{
				BaseURL:     "https://api.openai.com/v1",
				APIKeyEnv:   "OPENAI_API_KEY",
				Model:       "text-embedding-3-small",
				TimeoutSecs: 30,
			},
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "mistral",
			OllamaURL:   "http://localhost:11434",
			TimeoutSecs: 120,
		},
		Chunker:     ChunkerConfig{Size: 1000, Overlap: 200},
		Retriever:   RetrieverConfig{TopK: 5, FetchK: 10, Lambda: 0.5},
		CorpusPath:  "documents/constitution_kazakhstan.pdf",
		UploadsDir:  "temp_uploads",
		HistoryPath: "chat_history.csv",
	}
}

func applyDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Server.Port == "" {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Chroma.URL == "" {
		cfg.Chroma.URL = def.Chroma.URL
	}
	if cfg.Chroma.Collection == "" {
		cfg.Chroma.Collection = def.Chroma.Collection
	}
	if cfg.Embedder.Ollama.URL == "" {
		cfg.Embedder.Ollama.URL = def.Embedder.Ollama.URL
	}
	if cfg.Embedder.Ollama.Model == "" {
		cfg.Embedder.Ollama.Model = def.Embedder.Ollama.Model
	}
	if cfg.Embedder.Ollama.TimeoutSecs == 0 {
		cfg.Embedder.Ollama.TimeoutSecs = def.Embedder.Ollama.TimeoutSecs
	}
	if cfg.Embedder.Fallback.BaseURL == "" {
		cfg.Embedder.Fallback.BaseURL = def.Embedder.Fallback.BaseURL
	}
	if cfg.Embedder.Fallback.APIKeyEnv == "" {
		cfg.Embedder.Fallback.APIKeyEnv = def.Embedder.Fallback.APIKeyEnv
	}
	if cfg.Embedder.Fallback.Model == "" {
		cfg.Embedder.Fallback.Model = def.Embedder.Fallback.Model
	}
	if cfg.Embedder.Fallback.TimeoutSecs == 0 {
		cfg.Embedder.Fallback.TimeoutSecs = def.Embedder.Fallback.TimeoutSecs
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.OllamaURL == "" {
		cfg.LLM.OllamaURL = def.LLM.OllamaURL
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = def.LLM.TimeoutSecs
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = def.Chunker.Size
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = def.Chunker.Overlap
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = def.Retriever.TopK
	}
	if cfg.Retriever.FetchK == 0 {
		cfg.Retriever.FetchK = def.Retriever.FetchK
	}
	if cfg.Retriever.Lambda == 0 {
		cfg.Retriever.Lambda = def.Retriever.Lambda
	}
	if cfg.CorpusPath == "" {
		cfg.CorpusPath = def.CorpusPath
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = def.UploadsDir
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = def.HistoryPath
	}
}

// applyEnvOverrides lets deployments retarget backends without editing
// the config file. Only the connection-level settings are overridable.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CHROMA_URL"); v != "" {
		cfg.Chroma.URL = v
	}
	if v := os.Getenv("CHROMA_COLLECTION"); v != "" {
		cfg.Chroma.Collection = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Embedder.Ollama.URL = v
		cfg.LLM.OllamaURL = v
	}
	if v := os.Getenv("EMBED_MODEL"); v != "" {
		cfg.Embedder.Ollama.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("CORPUS_PATH"); v != "" {
		cfg.CorpusPath = v
	}
	if v := os.Getenv("HISTORY_PATH"); v != "" {
		cfg.HistoryPath = v
	}
}
