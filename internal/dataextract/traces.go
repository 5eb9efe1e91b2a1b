// Package dataextract loads recordings from disk into the in-memory dataset
// form the analysis core consumes: a fluorescence trace matrix, optional
// region outlines, and a YAML manifest tying them together. Remote fetching,
// archive handling and image decoding are outside this package; it only
// reads already-extracted tabular files.
package dataextract

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"neurochord/internal/model"
)

// TraceOptions controls trace matrix parsing.
type TraceOptions struct {
	// HasHeader skips the first row.
	HasHeader bool
	// Transpose treats rows as neurons instead of frames.
	Transpose bool
}

// ReadTraces parses a CSV matrix with one column per neuron and one row per
// frame (or the transpose) and returns the per-neuron traces. Every cell
// must be a finite number and every row must have the same width.
func ReadTraces(in io.Reader, opts TraceOptions) ([][]float64, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trace csv: %w", err)
	}
	if opts.HasHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, nil
	}

	width := len(rows[0])
	matrix := make([][]float64, len(rows))
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d", r+1, len(row), width)
		}
		values := make([]float64, width)
		for c, cell := range row {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", r+1, c+1, err)
			}
			values[c] = v
		}
		matrix[r] = values
	}

	if opts.Transpose {
		return matrix, nil
	}
	// Frames-by-neurons on disk becomes neurons-by-frames in memory.
	traces := make([][]float64, width)
	for n := range traces {
		trace := make([]float64, len(matrix))
		for f := range matrix {
			trace[f] = matrix[f][n]
		}
		traces[n] = trace
	}
	return traces, nil
}

// ReadOutlines parses a CSV of neuron,x,y rows (optionally with a header)
// into per-neuron outline point lists. Neuron indices beyond count are
// rejected; neurons without rows simply end up with no outline.
func ReadOutlines(in io.Reader, count int, hasHeader bool) ([][]model.Point, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read outline csv: %w", err)
	}
	if hasHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	outlines := make([][]model.Point, count)
	for r, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("outline row %d has %d columns, want 3", r+1, len(row))
		}
		idx, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("outline row %d neuron index: %w", r+1, err)
		}
		if idx < 0 || idx >= count {
			return nil, fmt.Errorf("outline row %d: neuron %d out of range [0,%d)", r+1, idx, count)
		}
		x, err := parseCell(row[1])
		if err != nil {
			return nil, fmt.Errorf("outline row %d x: %w", r+1, err)
		}
		y, err := parseCell(row[2])
		if err != nil {
			return nil, fmt.Errorf("outline row %d y: %w", r+1, err)
		}
		outlines[idx] = append(outlines[idx], model.Point{X: x, Y: y})
	}
	return outlines, nil
}

func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value: %q", cell)
	}
	return v, nil
}
