package api

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/CEA-LIST/sgntx/pkg/catalog"
	"github.com/CEA-LIST/sgntx/pkg/codec"
	"github.com/CEA-LIST/sgntx/pkg/vcf"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port         int
	Bind         string
	APIKey       string     // empty disables authentication
	DefaultMode  codec.Mode // used when a request has no mode parameter
	MaxBodyBytes int64      // <= 0 means DefaultMaxBodyBytes
}

// RunStore is the read side of the run catalog.
type RunStore interface {
	GetRun(id ksuid.KSUID) (*catalog.Run, error)
	ListRuns(limit int) ([]*catalog.Run, error)
}

// RecordResponse is the JSON form of a decoded record.
type RecordResponse struct {
	Chromosome   uint64 `json:"chromosome"`
	Position     uint64 `json:"position"`
	ID           string `json:"id"`
	Ref          string `json:"ref"`
	Alt          string `json:"alt"`
	Heterozygous bool   `json:"heterozygous"`
	Zygosity     string `json:"zygosity"`
}

func newRecordResponse(r *codec.Record) RecordResponse {
	zygosity := vcf.HomozygousLabel
	if r.Heterozygous {
		zygosity = vcf.HeterozygousLabel
	}
	return RecordResponse{
		Chromosome:   r.Chromosome,
		Position:     r.Position,
		ID:           r.ID,
		Ref:          r.Ref,
		Alt:          r.Alt,
		Heterozygous: r.Heterozygous,
		Zygosity:     zygosity,
	}
}

// RunSummary is the list view of a run.
type RunSummary struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	InputDir   string `json:"input_dir"`
	OutputDir  string `json:"output_dir"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Files      int    `json:"files"`
	Failed     int    `json:"failed"`
	Records    int64  `json:"records"`
}

func newRunSummary(run *catalog.Run) RunSummary {
	return RunSummary{
		ID:         run.ID.String(),
		Mode:       run.Mode,
		InputDir:   run.InputDir,
		OutputDir:  run.OutputDir,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		FinishedAt: run.FinishedAt.Format(time.RFC3339),
		Files:      len(run.Files),
		Failed:     run.Failed(),
		Records:    run.Records(),
	}
}
