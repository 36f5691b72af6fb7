package main

import (
	"context"
	"log"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"github.com/unidoc/unipdf/v3/common/license"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ichakraborty/docquery/config"
	"github.com/ichakraborty/docquery/controller"
	"github.com/ichakraborty/docquery/services"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("FATAL: Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.UnidocLicenseKey != "" {
		if err := license.SetMeteredKey(cfg.UnidocLicenseKey); err != nil {
			logger.Warn("failed to set unidoc license key", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	index, cleanup, err := newVectorIndex(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up vector index", zap.Error(err))
	}
	defer cleanup()

	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Fatal("failed to create gemini client", zap.Error(err))
	}
	logger.Info("connected to gemini", zap.String("model", cfg.GenerationModel))

	embedder := services.NewOpenAIEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	chunker := services.NewChunkerService(cfg.ChunkSize, cfg.ChunkOverlap)
	generator := services.NewGeminiGenerator(geminiClient, cfg.GenerationModel)

	analytics := services.NewSessionAnalytics()
	if stats := index.Stats(ctx); stats.Error == "" {
		analytics.SetTotalChunks(stats.RowCount)
	} else {
		logger.Warn("could not read initial index stats", zap.String("error", stats.Error))
	}

	lifecycle, err := services.NewLifecycleManager(cfg.UploadsDir, chunker, embedder, index, analytics, logger)
	if err != nil {
		logger.Fatal("failed to set up uploads directory", zap.Error(err))
	}

	retriever := services.NewRetriever(embedder, index, cfg.TopK)
	synthesizer := services.NewSynthesizer(generator)
	ragController := controller.NewRAGController(lifecycle, retriever, synthesizer, analytics, index)

	watcher := services.NewUploadsWatcher(lifecycle, logger)
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			logger.Warn("uploads watcher stopped", zap.Error(err))
		}
	}()

	router := gin.Default()

	// CORS for browser clients.
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
			"service": "DocQuery API",
			"version": "1.0.0",
		})
	})

	apiV1 := router.Group("/api/v1")
	ragController.Register(apiV1)

	logger.Info("starting server", zap.String("port", cfg.ServerPort))
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newVectorIndex builds the configured index backend. The returned cleanup
// releases backend resources and is safe to call once.
func newVectorIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.VectorIndex, func(), error) {
	if cfg.VectorStoreType == "memory" {
		logger.Info("using in-memory vector index")
		return services.NewMemoryIndex(cfg.EmbeddingDimension), func() {}, nil
	}

	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := chromaClient.Close(); err != nil {
			logger.Warn("failed to close chroma client", zap.Error(err))
		}
	}

	index := services.NewChromaIndex(chromaClient, cfg.CollectionName, cfg.EmbeddingDimension)
	if err := index.EnsureCollection(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("connected to chromadb",
		zap.String("url", cfg.ChromaURL),
		zap.String("collection", cfg.CollectionName),
	)
	return index, cleanup, nil
}
