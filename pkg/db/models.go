package db

import "time"

// Run is one invocation of the trainer.
type Run struct {
	ID            string
	SrcLang       string
	TrgLang       string
	Arithmetic    string
	Config        string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Iterations    int
	Converged     bool
	PriorIn       float64
	Ignored       int
	OutDomainSize int
}

// Result is one ranked mixed sentence of an iteration. Sentence is 1-based.
type Result struct {
	Rank     int
	Sentence int
	Score    float64
	LMScore  float64
}

// OutDomainEntry is one sentence of the burn-in ranking.
type OutDomainEntry struct {
	Rank     int
	Sentence int
	Score    float64
	Selected bool
}
