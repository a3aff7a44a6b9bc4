package model

import (
	"time"
)

// TriggerType indicates what started a run.
type TriggerType string

const (
	TriggerDaily    TriggerType = "DAILY"
	TriggerStartup  TriggerType = "STARTUP"
	TriggerHTTP     TriggerType = "HTTP"
	TriggerTelegram TriggerType = "TELEGRAM"
	TriggerManual   TriggerType = "MANUAL"
)

// Outcome classifies what happened to one symbol during a run.
type Outcome string

const (
	OutcomeStored      Outcome = "stored"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeStoreFailed Outcome = "store_failed"
)

// Result is the per-symbol outcome of a fetch.
type Result struct {
	Symbol      string        `json:"symbol"`
	Exchange    string        `json:"exchange"`
	Outcome     Outcome       `json:"outcome"`
	Err         error         `json:"-"`
	Reason      string        `json:"reason,omitempty"`
	Observation *Observation  `json:"observation,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// Fail marks the result with the given outcome and error.
func (r *Result) Fail(outcome Outcome, err error) {
	r.Outcome = outcome
	r.Err = err
	if err != nil {
		r.Reason = err.Error()
	}
}

// RunReport aggregates the results of one pass over the watchlist.
type RunReport struct {
	RunID      string      `json:"run_id"`
	Trigger    TriggerType `json:"trigger"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Results    []Result    `json:"results"`
}

// Count returns how many results have the given outcome.
func (r *RunReport) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Stored returns the observations that reached the store, in watchlist order.
func (r *RunReport) Stored() []Observation {
	var obs []Observation
	for _, res := range r.Results {
		if res.Outcome == OutcomeStored && res.Observation != nil {
			obs = append(obs, *res.Observation)
		}
	}
	return obs
}
