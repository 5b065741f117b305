package vecstore

import (
	"errors"
	"testing"
)

func TestResolveConfigFromEnv_Valid(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("QDRANT_API_KEY", "k")
	t.Setenv("QDRANT_COLLECTION", "passages")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.URL != "http://localhost:6333" || cfg.Collection != "passages" || cfg.VectorDim != 1536 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}

func TestResolveConfigFromEnv_MissingURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_COLLECTION", "passages")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")

	_, err := ResolveConfigFromEnv()
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cerr.Field != "QDRANT_URL" {
		t.Fatalf("expected QDRANT_URL failure, got %s", cerr.Field)
	}
}

func TestResolveConfigFromEnv_BadDim(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("QDRANT_COLLECTION", "passages")

	for _, dim := range []string{"abc", "0", "-3"} {
		t.Setenv("QDRANT_VECTOR_DIM", dim)
		_, err := ResolveConfigFromEnv()
		var cerr *ConfigError
		if !errors.As(err, &cerr) || cerr.Field != "QDRANT_VECTOR_DIM" {
			t.Fatalf("dim=%q: expected QDRANT_VECTOR_DIM failure, got %v", dim, err)
		}
	}
}
