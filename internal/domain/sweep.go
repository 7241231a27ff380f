package domain

import (
	"context"
	"time"
)

type SweepReport struct {
	Scanned      int      `json:"scanned"`
	Resolved     []uint64 `json:"resolved"`
	OldestActive uint64   `json:"oldest_active"`
}

type SweepStats struct {
	Runs        uint64    `json:"runs"`
	Resolved    uint64    `json:"resolved"`
	LastRun     time.Time `json:"last_run"`
	LastFailure string    `json:"last_failure,omitempty"`
}

type SweepUseCase interface {
	Run(ctx context.Context) error
	SweepOnce(ctx context.Context) (SweepReport, error)
	Stats() SweepStats
}

type HealthCheckResponse struct {
	Status string     `json:"status"`
	Store  string     `json:"store"`
	Sweep  SweepStats `json:"sweep"`
}
