package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// ---- fakes ----

type fakeArtifactRepo struct {
	mu         sync.Mutex
	rows       map[string]*domain.SynthesisArtifact
	failUpsert bool
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{rows: map[string]*domain.SynthesisArtifact{}}
}

func artifactKey(claimID uuid.UUID, style string) string {
	return claimID.String() + "|" + style
}

func (r *fakeArtifactRepo) Get(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, style string) (*domain.SynthesisArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[artifactKey(claimID, style)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeArtifactRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*domain.SynthesisArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SynthesisArtifact
	for _, a := range r.rows {
		if a.ClaimID == claimID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeArtifactRepo) UpsertFresh(ctx context.Context, tx *gorm.DB, artifact *domain.SynthesisArtifact, expectedGeneration int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsert {
		return false, nil
	}
	key := artifactKey(artifact.ClaimID, artifact.Style)
	existing, ok := r.rows[key]
	if ok && existing.Generation != expectedGeneration {
		return false, nil
	}
	cp := *artifact
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.IsStale = false
	cp.Generation = expectedGeneration
	r.rows[key] = &cp
	return true, nil
}

func (r *fakeArtifactRepo) MarkStaleForClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.ClaimID == claimID {
			a.IsStale = true
			a.Generation++
		}
	}
	return nil
}

type fakeRetrieval struct {
	claim *domain.Claim
	calls atomic.Int64
}

func (f *fakeRetrieval) RetrieveForClaim(ctx context.Context, claimID uuid.UUID, opts RetrieveOpts) (*RetrievedEvidence, error) {
	f.calls.Add(1)
	return &RetrievedEvidence{
		Claim:   f.claim,
		Summary: SummarizeEvidence(nil, []*domain.EvidenceLink{{ClaimID: claimID, DocumentID: uuid.New(), Score: 0.8}}),
	}, nil
}

type fakeAssembler struct{}

func (fakeAssembler) AssembleContext(ctx context.Context, episodeID uuid.UUID, positionMs int64, opts AssembleOpts) (*ContextBundle, error) {
	return &ContextBundle{Items: []ContextItem{}, PositionMs: positionMs}, nil
}

type fakeGenClient struct {
	calls atomic.Int64
	gate  chan struct{} // when non-nil, GenerateText blocks until closed
}

func (f *fakeGenClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeGenClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeGenClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return "synthesized narrative", nil
}

func newSynthesisFixture(t *testing.T) (*fakeArtifactRepo, *fakeRetrieval, *fakeGenClient, SynthesisService, uuid.UUID) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	claim := &domain.Claim{ID: uuid.New(), EpisodeID: uuid.New(), Text: "creatine improves recall", AnchorMs: 30_000}
	artifacts := newFakeArtifactRepo()
	retrieval := &fakeRetrieval{claim: claim}
	gen := &fakeGenClient{}
	svc := NewSynthesisService(log, artifacts, retrieval, fakeAssembler{}, gen, time.Second)
	return artifacts, retrieval, gen, svc, claim.ID
}

// ---- tests ----

func TestGetOrCompute_CachesPerClaimAndStyle(t *testing.T) {
	_, retrieval, gen, svc, claimID := newSynthesisFixture(t)
	ctx := context.Background()

	first, err := svc.GetOrCompute(ctx, claimID, "concise")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Narrative != "synthesized narrative" || first.IsStale {
		t.Fatalf("unexpected artifact: %#v", first)
	}

	second, err := svc.GetOrCompute(ctx, claimID, "concise")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the cached artifact to be reused")
	}
	if gen.calls.Load() != 1 || retrieval.calls.Load() != 1 {
		t.Fatalf("expected one computation, got gen=%d retrieval=%d", gen.calls.Load(), retrieval.calls.Load())
	}

	// A different style computes separately.
	if _, err := svc.GetOrCompute(ctx, claimID, "detailed"); err != nil {
		t.Fatalf("styled call: %v", err)
	}
	if gen.calls.Load() != 2 {
		t.Fatalf("expected a second computation for the new style, got %d", gen.calls.Load())
	}
}

func TestGetOrCompute_ConcurrentCallsShareOneComputation(t *testing.T) {
	_, _, gen, svc, claimID := newSynthesisFixture(t)
	gen.gate = make(chan struct{})
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.GetOrCompute(ctx, claimID, "default")
		}(i)
	}
	// Let the callers pile up on the in-flight computation before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gen.gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := gen.calls.Load(); got != 1 {
		t.Fatalf("expected a single shared computation, got %d", got)
	}
}

func TestGetOrCompute_RecomputesAfterInvalidation(t *testing.T) {
	artifacts, _, gen, svc, claimID := newSynthesisFixture(t)
	ctx := context.Background()

	first, err := svc.GetOrCompute(ctx, claimID, "default")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	if err := artifacts.MarkStaleForClaim(ctx, nil, claimID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	second, err := svc.GetOrCompute(ctx, claimID, "default")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.IsStale {
		t.Fatalf("expected a fresh artifact after recompute")
	}
	if second.Generation <= first.Generation {
		t.Fatalf("expected generation to advance, got %d -> %d", first.Generation, second.Generation)
	}
	if gen.calls.Load() != 2 {
		t.Fatalf("expected recompute after invalidation, got %d calls", gen.calls.Load())
	}
}

func TestGetOrCompute_ReportsConflictWhenInvalidationKeepsRacing(t *testing.T) {
	artifacts, _, _, svc, claimID := newSynthesisFixture(t)
	artifacts.failUpsert = true
	ctx := context.Background()

	_, err := svc.GetOrCompute(ctx, claimID, "default")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !apierr.IsStaleWriteConflict(err) {
		t.Fatalf("expected a stale-write conflict, got %v", err)
	}
}
