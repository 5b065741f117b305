package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/app"
	"github.com/proofcast/proofcast-backend/internal/platform/vecstore"
)

func main() {
	var batchSize int
	var limit int
	var dryRun bool
	flag.IntVar(&batchSize, "batch", 64, "passages embedded per request")
	flag.IntVar(&limit, "limit", 0, "stop after this many passages (0 = all)")
	flag.BoolVar(&dryRun, "dry-run", false, "print planned work without embedding")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	processed := 0
	for {
		fetch := batchSize
		if limit > 0 && limit-processed < fetch {
			fetch = limit - processed
		}
		if fetch <= 0 {
			break
		}
		passages, err := application.Repos.Passages.GetMissingEmbeddings(ctx, nil, fetch)
		if err != nil {
			fmt.Printf("load passages: %v\n", err)
			os.Exit(1)
		}
		if len(passages) == 0 {
			break
		}
		if dryRun {
			for _, p := range passages {
				fmt.Printf("[dry-run] embed passage_id=%s document_id=%s tokens=%d\n", p.ID.String(), p.DocumentID.String(), p.TokenCount)
			}
			processed += len(passages)
			// nothing is written in dry-run, so the next fetch would return
			// the same rows again
			break
		}

		texts := make([]string, len(passages))
		for i, p := range passages {
			texts[i] = p.Text
		}
		embs, err := application.AI.Embed(ctx, texts)
		if err != nil {
			fmt.Printf("embed batch: %v\n", err)
			os.Exit(1)
		}
		if len(embs) != len(passages) {
			fmt.Printf("embed batch: got %d embeddings for %d passages\n", len(embs), len(passages))
			os.Exit(1)
		}

		docIDs := make([]uuid.UUID, 0, len(passages))
		seen := map[uuid.UUID]bool{}
		for _, p := range passages {
			if !seen[p.DocumentID] {
				seen[p.DocumentID] = true
				docIDs = append(docIDs, p.DocumentID)
			}
		}
		docs, err := application.Repos.Documents.GetByIDs(ctx, nil, docIDs)
		if err != nil {
			fmt.Printf("load documents: %v\n", err)
			os.Exit(1)
		}
		yearByDoc := make(map[uuid.UUID]int, len(docs))
		for _, d := range docs {
			yearByDoc[d.ID] = d.Year
		}

		vectors := make([]vecstore.Vector, 0, len(passages))
		for i, p := range passages {
			if err := application.Repos.Passages.UpdateEmbedding(ctx, nil, p.ID, embs[i]); err != nil {
				fmt.Printf("store embedding for passage %s: %v\n", p.ID.String(), err)
				os.Exit(1)
			}
			vectors = append(vectors, vecstore.Vector{
				ID:     p.ID.String(),
				Values: embs[i],
				Metadata: map[string]any{
					vecstore.PayloadDocumentIDKey: p.DocumentID.String(),
					vecstore.PayloadPassageIDKey:  p.ID.String(),
					vecstore.PayloadYearKey:       yearByDoc[p.DocumentID],
					vecstore.PayloadSectionKey:    p.SectionLabel,
				},
			})
		}
		if err := application.Vec.Upsert(ctx, vectors); err != nil {
			fmt.Printf("upsert vectors: %v\n", err)
			os.Exit(1)
		}
		processed += len(passages)
		fmt.Printf("embedded %d passages (total %d)\n", len(passages), processed)
	}

	fmt.Printf("done; processed=%d\n", processed)
}
