package app

import (
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type Repos struct {
	Documents   repos.DocumentRepo
	Passages    repos.PassageRepo
	Episodes    repos.EpisodeRepo
	Claims      repos.ClaimRepo
	Links       repos.EvidenceLinkRepo
	Clusters    repos.ClusterDefinitionRepo
	Members     repos.ClusterMembershipRepo
	Artifacts   repos.SynthesisArtifactRepo
	Windows     repos.TemporalWindowRepo
	Annotations repos.AnnotationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Documents:   repos.NewDocumentRepo(db, log),
		Passages:    repos.NewPassageRepo(db, log),
		Episodes:    repos.NewEpisodeRepo(db, log),
		Claims:      repos.NewClaimRepo(db, log),
		Links:       repos.NewEvidenceLinkRepo(db, log),
		Clusters:    repos.NewClusterDefinitionRepo(db, log),
		Members:     repos.NewClusterMembershipRepo(db, log),
		Artifacts:   repos.NewSynthesisArtifactRepo(db, log),
		Windows:     repos.NewTemporalWindowRepo(db, log),
		Annotations: repos.NewAnnotationRepo(db, log),
	}
}
