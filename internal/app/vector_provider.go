package app

import (
	"fmt"
	"strings"

	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/vecstore"
	"github.com/proofcast/proofcast-backend/internal/utils"
)

// selectVectorStore picks the embedding index implementation. qdrant is
// the production default; memory serves local runs and tests.
func selectVectorStore(log *logger.Logger) (vecstore.Store, error) {
	provider := strings.ToLower(utils.GetEnv("VECTOR_PROVIDER", "qdrant", log))
	switch provider {
	case "memory":
		dim := utils.GetEnvAsInt("VECTOR_DIM", 1536, log)
		return vecstore.NewMemoryStore(log, dim)
	case "qdrant":
		cfg, err := vecstore.ResolveConfigFromEnv()
		if err != nil {
			return nil, err
		}
		return vecstore.NewQdrantStore(log, cfg)
	default:
		return nil, fmt.Errorf("unknown VECTOR_PROVIDER %q", provider)
	}
}
