package models

import "time"

// Outcome is the terminal state of processing one variant.
type Outcome string

const (
	OutcomeSkipped      Outcome = "skipped"
	OutcomeToggleFailed Outcome = "toggle_failed"
	OutcomeUnchanged    Outcome = "unchanged"
	OutcomePriced       Outcome = "priced"
	OutcomePriceFailed  Outcome = "price_failed"
)

// AdjustmentRecord is created once per processed variant and never mutated.
type AdjustmentRecord struct {
	Product string `json:"product"`
	Variant string `json:"variant"`

	// PreviousPrice has ProvenanceUnknown when no price was readable.
	PreviousPrice PriceFact `json:"previous_price"`
	TargetPrice   int       `json:"target_price"`

	ToggleSucceeded bool `json:"toggle_succeeded"`
	PriceSucceeded  bool `json:"price_succeeded"`

	Outcome          Outcome `json:"outcome"`
	Basis            Basis   `json:"basis,omitempty"`
	ReferenceVariant string  `json:"reference_variant,omitempty"`
	Attempts         int     `json:"attempts"`
	Strategy         string  `json:"strategy,omitempty"`
	Message          string  `json:"message,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// PageResult aggregates the records of one result page, or of a whole run
// when produced by batch.Summarize.
type PageResult struct {
	Page              int                `json:"page"`
	TotalVariantsSeen int                `json:"total_variants_seen"`
	ToggleSuccesses   int                `json:"toggle_successes"`
	PriceSuccesses    int                `json:"price_successes"`
	Records           []AdjustmentRecord `json:"records"`

	// Skipped is set when the page could not be processed; SkipReason says why.
	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// Add appends a record and updates the counters.
func (r *PageResult) Add(rec AdjustmentRecord) {
	r.TotalVariantsSeen++
	if rec.ToggleSucceeded {
		r.ToggleSuccesses++
	}
	if rec.PriceSucceeded {
		r.PriceSuccesses++
	}
	r.Records = append(r.Records, rec)
}
