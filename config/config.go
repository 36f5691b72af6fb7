package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every externally supplied setting for the service. All values
// come from the environment (optionally via a .env file); nothing is read
// from the environment after Load returns.
type Config struct {
	// OpenAI-compatible embeddings endpoint.
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	EmbeddingModel     string
	EmbeddingDimension int

	// Gemini generation.
	GeminiAPIKey    string
	GenerationModel string

	// Vector store. VectorStoreType selects "chroma" (default) or "memory"
	// for credential-free local runs.
	VectorStoreType string
	ChromaURL       string
	CollectionName  string

	// Document processing.
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	UploadsDir       string
	ServerPort       string
	UnidocLicenseKey string
	Debug            bool
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	return &Config{
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:     envOr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large"),
		EmbeddingDimension: envIntOr("EMBEDDING_DIMENSION", 3072),

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GenerationModel: envOr("GEMINI_MODEL", "gemini-2.5-flash"),

		VectorStoreType: envOr("VECTOR_STORE", "chroma"),
		ChromaURL:       envOr("CHROMA_URL", "http://localhost:8000"),
		CollectionName:  envOr("COLLECTION_NAME", "document_knowledge"),

		ChunkSize:    envIntOr("CHUNK_SIZE", 1000),
		ChunkOverlap: envIntOr("CHUNK_OVERLAP", 200),
		TopK:         envIntOr("TOP_K", 5),

		UploadsDir:       envOr("UPLOADS_DIR", "data/uploads"),
		ServerPort:       envOr("SERVER_PORT", "8080"),
		UnidocLicenseKey: os.Getenv("UNIDOC_LICENSE_KEY"),
		Debug:            os.Getenv("DEBUG") == "true",
	}
}

// Validate fails fast with a descriptive error when required credentials or
// endpoints are missing, or when processing parameters are inconsistent.
func (c *Config) Validate() error {
	var missing []string
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s (set in environment or .env file)", strings.Join(missing, ", "))
	}

	switch c.VectorStoreType {
	case "chroma":
		if c.ChromaURL == "" {
			return fmt.Errorf("CHROMA_URL must be set when VECTOR_STORE is %q", c.VectorStoreType)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown VECTOR_STORE %q (expected chroma or memory)", c.VectorStoreType)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d with chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
