package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/qazlegal/constitution-assistant/config"
	"github.com/qazlegal/constitution-assistant/controller"
	"github.com/qazlegal/constitution-assistant/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load config: %v", err)
	}

	// Create Chroma client using v2 API
	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.Chroma.URL))
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if cerr := chromaClient.Close(); cerr != nil {
			log.Printf("Warning: Failed to close chroma client: %v", cerr)
		}
	}()

	embedder := buildEmbedder(cfg)
	completer := buildCompleter(cfg)

	index := services.NewChromaIndex(chromaClient, embedder, cfg.Chroma.Collection, cfg.Retriever.Lambda)
	if opened, err := index.Open(context.Background()); err != nil {
		log.Printf("Warning: Could not open persisted index: %v", err)
	} else if opened {
		log.Printf("Found persisted index in collection %q.", cfg.Chroma.Collection)
	}

	chunker := services.NewChunkerService(cfg.Chunker.Size, cfg.Chunker.Overlap)
	ingestion := services.NewIngestionService(chunker, index, cfg.CorpusPath)
	answer := services.NewAnswerService(embedder, index, completer, cfg.Retriever.TopK, cfg.Retriever.FetchK)
	history := services.NewHistoryService(cfg.HistoryPath)
	sessions := services.NewSessionService(answer, ingestion, history, index)

	uploads, err := services.NewUploadStore(cfg.UploadsDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to create uploads dir: %v", err)
	}

	if cfg.WatchUpload {
		go ingestion.WatchUploads(context.Background(), uploads.Dir)
	}

	assistantController := controller.NewAssistantController(sessions, history, uploads)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware for testing
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Constitution Assistant API",
			"version": "1.0.0",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/corpus/load", assistantController.LoadCorpus)
		apiV1.POST("/documents", assistantController.UploadDocuments)
		apiV1.POST("/query", assistantController.Query)
		apiV1.GET("/history", assistantController.GetHistory)
		apiV1.GET("/history/export", assistantController.ExportHistory)
		apiV1.DELETE("/index", assistantController.ClearIndex)
	}

	log.Printf("Constitution Assistant backend starting on http://localhost:%s", cfg.Server.Port)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.Server.Port)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// buildEmbedder composes the primary Ollama embedder with the
// OpenAI-compatible fallback.
func buildEmbedder(cfg *config.AppConfig) services.EmbeddingProvider {
	primary := services.NewOllamaEmbedder(
		&http.Client{Timeout: time.Duration(cfg.Embedder.Ollama.TimeoutSecs) * time.Second},
		cfg.Embedder.Ollama.URL,
		cfg.Embedder.Ollama.Model,
	)
	secondary := services.NewOpenAIEmbedder(
		&http.Client{Timeout: time.Duration(cfg.Embedder.Fallback.TimeoutSecs) * time.Second},
		cfg.Embedder.Fallback.BaseURL,
		cfg.Embedder.Fallback.APIKeyEnv,
		cfg.Embedder.Fallback.Model,
	)
	return services.NewFallbackEmbedder(primary, secondary)
}

// buildCompleter selects the language-model backend from config.
func buildCompleter(cfg *config.AppConfig) services.Completer {
	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second
	switch cfg.LLM.Provider {
	case "gemini":
		completer, err := services.NewGeminiCompleter(context.Background(), os.Getenv("GEMINI_API_KEY"), cfg.LLM.Model, timeout)
		if err != nil {
			log.Fatalf("FATAL: Failed to create Gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
		}
		return completer
	default:
		completer, err := services.NewOllamaCompleter(cfg.LLM.OllamaURL, cfg.LLM.Model, timeout)
		if err != nil {
			log.Fatalf("FATAL: Failed to create Ollama LLM client: %v", err)
		}
		return completer
	}
}
