package models

// Provenance records where a normalized price came from.
type Provenance string

const (
	ProvenanceExplicit Provenance = "EXPLICIT"
	ProvenanceOriginal Provenance = "ORIGINAL"
	ProvenanceRate     Provenance = "RATE"
	ProvenanceComputed Provenance = "COMPUTED"
	ProvenanceUnknown  Provenance = "UNKNOWN"
)

// PriceFact is a price normalized to whole base-currency units.
//
// For ProvenanceRate, Amount holds the rounded raw rate and Rate the exact
// value; it is not a price until combined with an original price.
type PriceFact struct {
	Amount     int        `json:"amount"`
	Provenance Provenance `json:"provenance"`

	// Original is the original (pre-discount) price when the page showed one.
	Original int `json:"original,omitempty"`

	// Rate is the discount rate on a 10-point scale ("5.0折" → 5.0).
	Rate float64 `json:"rate,omitempty"`
}

// UnknownPrice is the fact for a variant with no usable price signal.
var UnknownPrice = PriceFact{Provenance: ProvenanceUnknown}

// IsPrice reports whether Amount is an actual price in base currency units.
func (f PriceFact) IsPrice() bool {
	switch f.Provenance {
	case ProvenanceExplicit, ProvenanceOriginal, ProvenanceComputed:
		return f.Amount > 0
	}
	return false
}

// OriginalPrice returns the known pre-discount price, if any.
func (f PriceFact) OriginalPrice() (int, bool) {
	if f.Original > 0 {
		return f.Original, true
	}
	if f.Provenance == ProvenanceOriginal && f.Amount > 0 {
		return f.Amount, true
	}
	return 0, false
}

// Basis names the rule that produced a price suggestion.
type Basis string

const (
	BasisUniform    Basis = "uniform"
	BasisSimilarity Basis = "similarity"
	BasisCurrent    Basis = "current"
	BasisFallback   Basis = "fallback"
)

// Suggestion is the price inference result for one target variant.
type Suggestion struct {
	// Price is the suggested price; zero when Found is false.
	Price int `json:"price"`

	// Reference is the sibling variant the price was taken from, if any.
	Reference string `json:"reference,omitempty"`

	NeedsChange bool      `json:"needs_change"`
	Basis       Basis     `json:"basis,omitempty"`
	Current     PriceFact `json:"current"`

	// Found is false when the target variant is not part of the product.
	Found bool `json:"found"`
}
