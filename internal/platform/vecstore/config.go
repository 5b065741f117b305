package vecstore

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	VectorDim  int
}

type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("vecstore config: %s %s", e.Field, e.Reason)
}

// ResolveConfigFromEnv reads the remote-store settings. PROVIDER=memory
// callers never get here; everything below is required for qdrant.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:        strings.TrimSpace(os.Getenv("QDRANT_URL")),
		APIKey:     strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		Collection: strings.TrimSpace(os.Getenv("QDRANT_COLLECTION")),
	}
	if cfg.URL == "" {
		return Config{}, &ConfigError{Field: "QDRANT_URL", Reason: "is required"}
	}
	if cfg.Collection == "" {
		return Config{}, &ConfigError{Field: "QDRANT_COLLECTION", Reason: "is required"}
	}
	dimStr := strings.TrimSpace(os.Getenv("QDRANT_VECTOR_DIM"))
	if dimStr == "" {
		return Config{}, &ConfigError{Field: "QDRANT_VECTOR_DIM", Reason: "is required"}
	}
	dim, err := strconv.Atoi(dimStr)
	if err != nil || dim <= 0 {
		return Config{}, &ConfigError{Field: "QDRANT_VECTOR_DIM", Reason: fmt.Sprintf("must be a positive integer, got %q", dimStr)}
	}
	cfg.VectorDim = dim
	return cfg, nil
}
