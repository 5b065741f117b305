package vecstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

const (
	payloadVectorIDKey = "_pc_vector_id"
	maxErrorBodyBytes  = 1024
)

// Qdrant point IDs must be UUIDs or integers; application IDs are folded
// into a deterministic UUID and kept in the payload for recovery.
var pointIDNamespaceUUID = uuid.MustParse("7d8a2f43-91c6-44d0-bb09-3f6a1c25a9ce")

type qdrantStore struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewQdrantStore(log *logger.Logger, cfg Config) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.URL == "" || cfg.Collection == "" || cfg.VectorDim <= 0 {
		return nil, &ConfigError{Field: "config", Reason: "is incomplete"}
	}
	s := &qdrantStore{
		log:     log.With("service", "QdrantVectorStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	if err := s.ensureCollection(context.Background()); err != nil {
		return nil, err
	}
	log.Info(
		"Qdrant vector store ready",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"vector_dim", cfg.VectorDim,
	)
	return s, nil
}

func (s *qdrantStore) Dim() int { return s.cfg.VectorDim }

func (s *qdrantStore) ensureCollection(ctx context.Context) error {
	path := "/collections/" + s.cfg.Collection
	_, status, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	if status == http.StatusNotFound {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     s.cfg.VectorDim,
				"distance": "Cosine",
			},
		}
		if _, _, err := s.do(ctx, http.MethodPut, path, body); err != nil {
			return err
		}
		s.log.Info("Created qdrant collection", "collection", s.cfg.Collection)
	}
	return nil
}

func (s *qdrantStore) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	points := make([]map[string]any, 0, len(vectors))
	for _, v := range vectors {
		vectorID := strings.TrimSpace(v.ID)
		if vectorID == "" {
			return apierr.Validation(fmt.Errorf("vector id is required"))
		}
		if len(v.Values) != s.cfg.VectorDim {
			return apierr.DimensionMismatch(s.cfg.VectorDim, len(v.Values))
		}
		payload := make(map[string]any, len(v.Metadata)+1)
		for k, val := range v.Metadata {
			payload[k] = val
		}
		payload[payloadVectorIDKey] = vectorID
		points = append(points, map[string]any{
			"id":      uuid.NewSHA1(pointIDNamespaceUUID, []byte(vectorID)).String(),
			"vector":  v.Values,
			"payload": payload,
		})
	}
	body := map[string]any{"points": points}
	_, _, err := s.do(ctx, http.MethodPut, "/collections/"+s.cfg.Collection+"/points?wait=true", body)
	return err
}

func (s *qdrantStore) Search(ctx context.Context, query []float32, opts SearchOpts) ([]Match, error) {
	if err := checkDim(s.cfg.VectorDim, query); err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	body := map[string]any{
		"vector":       query,
		"limit":        opts.TopK,
		"with_payload": true,
	}
	if opts.Threshold > 0 {
		// Qdrant reports raw cosine in [-1,1]; our threshold is on the
		// shifted [0,1] score, so unshift it before sending.
		body["score_threshold"] = 2*opts.Threshold - 1
	}
	if f := searchFilter(opts.Filter); f != nil {
		body["filter"] = f
	}
	raw, _, err := s.do(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/search", body)
	if err != nil {
		return nil, err
	}
	var items []qdrantSearchResultItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apierr.UpstreamUnavailable("qdrant", fmt.Errorf("decode search result: %w", err))
	}
	matches := make([]Match, 0, len(items))
	for _, item := range items {
		id, _ := item.Payload[payloadVectorIDKey].(string)
		if id == "" {
			continue
		}
		score := SimilarityScore(item.Score)
		if score < opts.Threshold {
			continue
		}
		matches = append(matches, Match{ID: id, Score: score, Metadata: item.Payload})
	}
	// Qdrant orders by score only; apply the recency tie-break locally.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return metadataYear(matches[i].Metadata) > metadataYear(matches[j].Metadata)
	})
	return matches, nil
}

func (s *qdrantStore) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	points := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		points = append(points, uuid.NewSHA1(pointIDNamespaceUUID, []byte(id)).String())
	}
	body := map[string]any{"points": points}
	_, _, err := s.do(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/delete?wait=true", body)
	return err
}

func searchFilter(f *Filter) map[string]any {
	if f == nil {
		return nil
	}
	must := []map[string]any{}
	if f.YearFrom > 0 || f.YearTo > 0 {
		rng := map[string]any{}
		if f.YearFrom > 0 {
			rng["gte"] = f.YearFrom
		}
		if f.YearTo > 0 {
			rng["lte"] = f.YearTo
		}
		must = append(must, map[string]any{"key": PayloadYearKey, "range": rng})
	}
	if f.Section != "" {
		must = append(must, map[string]any{"key": PayloadSectionKey, "match": map[string]any{"value": f.Section}})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func (s *qdrantStore) do(ctx context.Context, method, path string, body any) (json.RawMessage, int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, 0, apierr.Timeout("qdrant "+method+" "+path, err)
		}
		return nil, 0, apierr.UpstreamUnavailable("qdrant", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, resp.StatusCode, apierr.NotFound("qdrant resource", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, resp.StatusCode, apierr.UpstreamUnavailable("qdrant", fmt.Errorf("%s %s: status=%d body=%s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	var env qdrantEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, apierr.UpstreamUnavailable("qdrant", fmt.Errorf("decode response: %w", err))
	}
	return env.Result, resp.StatusCode, nil
}
