package dataextract

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"neurochord/internal/model"
)

// Manifest describes one recording on disk. File paths are resolved
// relative to the manifest's own directory.
type Manifest struct {
	Name       string  `yaml:"name"`
	FPS        float64 `yaml:"fps"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	TracesFile string  `yaml:"traces_file"`
	TracesOpts struct {
		HasHeader bool `yaml:"has_header"`
		Transpose bool `yaml:"transpose"`
	} `yaml:"traces"`
	OutlinesFile string `yaml:"outlines_file"`
	OutlinesOpts struct {
		HasHeader bool `yaml:"has_header"`
	} `yaml:"outlines"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strippedName(path)
	}
	if m.FPS <= 0 {
		return Manifest{}, fmt.Errorf("manifest %s: fps must be positive, got %v", path, m.FPS)
	}
	if m.TracesFile == "" {
		return Manifest{}, fmt.Errorf("manifest %s: traces_file is required", path)
	}
	return m, nil
}

// LoadDataset reads the manifest at path and assembles the full dataset.
func LoadDataset(path string) (model.Dataset, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return model.Dataset{}, err
	}
	dir := filepath.Dir(path)

	tracesFile, err := os.Open(filepath.Join(dir, manifest.TracesFile))
	if err != nil {
		return model.Dataset{}, err
	}
	defer tracesFile.Close()

	traces, err := ReadTraces(tracesFile, TraceOptions{
		HasHeader: manifest.TracesOpts.HasHeader,
		Transpose: manifest.TracesOpts.Transpose,
	})
	if err != nil {
		return model.Dataset{}, fmt.Errorf("traces %s: %w", manifest.TracesFile, err)
	}
	for i := 1; i < len(traces); i++ {
		if len(traces[i]) != len(traces[0]) {
			return model.Dataset{}, fmt.Errorf("neuron %d has %d frames, want %d", i, len(traces[i]), len(traces[0]))
		}
	}

	dataset := model.Dataset{
		Name:   manifest.Name,
		FPS:    manifest.FPS,
		Width:  manifest.Width,
		Height: manifest.Height,
	}
	for _, trace := range traces {
		dataset.Neurons = append(dataset.Neurons, model.Neuron{Trace: trace})
	}

	if manifest.OutlinesFile != "" {
		outlinesFile, err := os.Open(filepath.Join(dir, manifest.OutlinesFile))
		if err != nil {
			return model.Dataset{}, err
		}
		defer outlinesFile.Close()

		outlines, err := ReadOutlines(outlinesFile, len(dataset.Neurons), manifest.OutlinesOpts.HasHeader)
		if err != nil {
			return model.Dataset{}, fmt.Errorf("outlines %s: %w", manifest.OutlinesFile, err)
		}
		for i := range dataset.Neurons {
			dataset.Neurons[i].Outline = outlines[i]
		}
	}

	return dataset, nil
}

func strippedName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
