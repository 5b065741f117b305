package app

import (
	"time"

	"gorm.io/gorm"

	redisclient "github.com/proofcast/proofcast-backend/internal/clients/redis"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/openai"
	"github.com/proofcast/proofcast-backend/internal/platform/vecstore"
	"github.com/proofcast/proofcast-backend/internal/services"
	"github.com/proofcast/proofcast-backend/internal/utils"
)

type Services struct {
	Retrieval   services.EvidenceRetrievalService
	Assembler   services.ContextAssemblerService
	Synthesis   services.SynthesisService
	Annotations services.AnnotationService
	Coverage    services.CoverageService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	reposet Repos,
	vec vecstore.Store,
	ai openai.Client,
	bus redisclient.InvalidationBus,
) Services {
	retrieval := services.NewEvidenceRetrievalService(log, reposet.Claims, reposet.Documents, reposet.Passages, reposet.Links, vec, ai)
	assembler := services.NewContextAssemblerService(log, reposet.Claims, reposet.Links, reposet.Windows)
	genTimeout := time.Duration(utils.GetEnvAsInt("SYNTHESIS_TIMEOUT_SECONDS", 30, log)) * time.Second
	synthesis := services.NewSynthesisService(log, reposet.Artifacts, retrieval, assembler, ai, genTimeout)
	annotations := services.NewAnnotationService(log, db, reposet.Annotations, reposet.Artifacts, reposet.Claims, bus)
	coverage := services.NewCoverageService(log, reposet.Clusters, reposet.Members, reposet.Claims, reposet.Documents, reposet.Annotations)
	return Services{
		Retrieval:   retrieval,
		Assembler:   assembler,
		Synthesis:   synthesis,
		Annotations: annotations,
		Coverage:    coverage,
	}
}
