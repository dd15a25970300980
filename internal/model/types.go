package model

import (
	"time"

	"genesearch/internal/impact"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ActionImpactRecord holds the gene impacts of one action, sorted by id.
type ActionImpactRecord struct {
	ActionName  string               `json:"action_name"`
	GeneImpacts []*impact.GeneImpact `json:"gene_impacts"`
}

type StructureRecord struct {
	Key       string  `json:"key"`
	Size      int     `json:"size"`
	Times     int     `json:"times"`
	BestTotal float64 `json:"best_total"`
}

// ImpactSnapshot is the state of the impacts of one individual after a
// round of a run.
type ImpactSnapshot struct {
	VersionedRecord
	ID             string               `json:"id"`
	RunID          string               `json:"run_id"`
	Round          int                  `json:"round"`
	CreatedAt      time.Time            `json:"created_at"`
	Abstract       bool                 `json:"abstract"`
	TemplateKeys   []string             `json:"template_keys,omitempty"`
	Initialization []ActionImpactRecord `json:"initialization,omitempty"`
	Actions        []ActionImpactRecord `json:"actions"`
	Reached        map[int]float64      `json:"reached,omitempty"`
	Structure      []StructureRecord    `json:"structure,omitempty"`
}

// RunRecord summarizes one mutation session.
type RunRecord struct {
	VersionedRecord
	ID           string         `json:"id"`
	Seed         int64          `json:"seed"`
	Strategy     string         `json:"strategy"`
	Rounds       int            `json:"rounds"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	BestTotal    float64        `json:"best_total"`
	Improvements int            `json:"improvements"`
	Operators    map[string]int `json:"operators,omitempty"`
	// History is the best total fitness after each round.
	History []float64 `json:"history,omitempty"`
}
