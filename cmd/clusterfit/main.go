package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/proofcast/proofcast-backend/internal/app"
	"github.com/proofcast/proofcast-backend/internal/modules/taxonomy"
	"github.com/proofcast/proofcast-backend/internal/modules/taxonomy/steps"
)

func main() {
	var configPath string
	var numClusters int
	var seed int64
	flag.StringVar(&configPath, "config", "", "path to taxonomy config yaml (optional)")
	flag.IntVar(&numClusters, "clusters", 0, "override num_clusters from config")
	flag.Int64Var(&seed, "seed", 0, "override seed from config")
	flag.Parse()

	cfg, err := taxonomy.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("load config: %v\n", err)
		os.Exit(1)
	}
	if numClusters > 0 {
		cfg.NumClusters = numClusters
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	out, err := steps.ClusterFit(context.Background(), steps.ClusterFitDeps{
		DB:       application.DB,
		Log:      application.Log,
		Docs:     application.Repos.Documents,
		Passages: application.Repos.Passages,
		Claims:   application.Repos.Claims,
		Links:    application.Repos.Links,
		Clusters: application.Repos.Clusters,
		Members:  application.Repos.Members,
		AI:       application.AI,
	}, steps.ClusterFitInput{
		NumClusters:  cfg.NumClusters,
		MinPosterior: cfg.MinPosterior,
		MaxIter:      cfg.MaxIter,
		Seed:         cfg.Seed,
	})
	if err != nil {
		fmt.Printf("cluster fit failed: %v\n", err)
		os.Exit(1)
	}

	raw, _ := json.Marshal(out)
	fmt.Println(string(raw))
}
