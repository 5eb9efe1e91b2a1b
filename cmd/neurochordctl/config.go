package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	chordapi "neurochord/pkg/neurochord"
)

// analyzeConfig is the on-disk shape of an analyze request. YAML and JSON
// are both accepted.
type analyzeConfig struct {
	Manifest   string `yaml:"manifest"`
	Clusters   int    `yaml:"clusters"`
	MaxK       int    `yaml:"max_k"`
	Components int    `yaml:"components"`
	Seed       *int64 `yaml:"seed"`
}

func loadAnalyzeRequestFromConfig(path string) (chordapi.AnalyzeRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chordapi.AnalyzeRequest{}, err
	}
	var cfg analyzeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return chordapi.AnalyzeRequest{}, err
	}
	if cfg.Seed != nil && (*cfg.Seed < 0 || *cfg.Seed > int64(^uint32(0))) {
		return chordapi.AnalyzeRequest{}, fmt.Errorf("seed %d out of range", *cfg.Seed)
	}
	if cfg.Clusters < 0 {
		return chordapi.AnalyzeRequest{}, fmt.Errorf("clusters must be >= 0, got %d", cfg.Clusters)
	}

	req := chordapi.AnalyzeRequest{
		ManifestPath: cfg.Manifest,
		Clusters:     cfg.Clusters,
		MaxK:         cfg.MaxK,
		Components:   cfg.Components,
	}
	if cfg.Seed != nil {
		seed := uint32(*cfg.Seed)
		req.Seed = &seed
	}
	return req, nil
}

func loadOrDefaultAnalyzeRequest(configPath string) (chordapi.AnalyzeRequest, error) {
	if configPath == "" {
		return chordapi.AnalyzeRequest{}, nil
	}
	req, err := loadAnalyzeRequestFromConfig(configPath)
	if err != nil {
		return chordapi.AnalyzeRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func overrideFromFlags(req *chordapi.AnalyzeRequest, set map[string]bool, manifest string, clusters, maxK, components int, seed int64) {
	if set["manifest"] {
		req.ManifestPath = manifest
	}
	if set["clusters"] {
		req.Clusters = clusters
	}
	if set["max-k"] {
		req.MaxK = maxK
	}
	if set["components"] {
		req.Components = components
	}
	if set["seed"] && seed >= 0 {
		s := uint32(seed)
		req.Seed = &s
	}
}
