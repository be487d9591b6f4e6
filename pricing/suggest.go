package pricing

import (
	"strings"

	"github.com/use-agent/variantsync/classify"
	"github.com/use-agent/variantsync/models"
)

// DefaultFallbackPrice is suggested when neither the target nor any active
// sibling carries a usable price. It is a policy value with no grounding in
// storefront data; deployments override it via VARIANTSYNC_FALLBACK_PRICE.
const DefaultFallbackPrice = 99

// Similarity tiers between two variant labels.
const (
	ScoreExact    = 1.0
	ScoreContains = 0.7
	ScoreKeyword  = 0.5
	ScoreNone     = 0.2
)

// Inferer suggests target prices for variants.
type Inferer struct {
	// FallbackPrice is used when no pricing signal exists at all.
	FallbackPrice int
}

// NewInferer returns an Inferer with the given fallback price. A non-positive
// fallback selects DefaultFallbackPrice.
func NewInferer(fallbackPrice int) *Inferer {
	if fallbackPrice <= 0 {
		fallbackPrice = DefaultFallbackPrice
	}
	return &Inferer{FallbackPrice: fallbackPrice}
}

var defaultInferer = NewInferer(DefaultFallbackPrice)

// Suggest runs price inference with DefaultFallbackPrice.
func Suggest(p models.Product, target string) models.Suggestion {
	return defaultInferer.Suggest(p, target)
}

// Suggest decides the price the target variant should carry.
//
// Only siblings that are toggled ON with a positive price are references.
// A uniformly priced reference set wins outright; otherwise the most similar
// reference (first one on ties) provides the price. With no references the
// target keeps its own price, or gets the fallback price if it has none.
func (in *Inferer) Suggest(p models.Product, target string) models.Suggestion {
	tv, ok := p.Variant(target)
	if !ok {
		return models.Suggestion{Current: models.UnknownPrice}
	}
	current := Normalize(tv)

	type reference struct {
		variant models.Variant
		price   int
	}
	var eligible []reference
	for _, v := range p.Variants {
		if v.Name == target || v.ToggleState != models.ToggleOn {
			continue
		}
		if f := Normalize(v); f.IsPrice() {
			eligible = append(eligible, reference{variant: v, price: f.Amount})
		}
	}

	s := models.Suggestion{Current: current, Found: true}
	switch {
	case len(eligible) > 0 && uniform(eligible, func(r reference) int { return r.price }):
		s.Price = eligible[0].price
		s.Reference = eligible[0].variant.Name
		s.Basis = models.BasisUniform

	case len(eligible) > 0:
		best, bestScore := eligible[0], -1.0
		for _, r := range eligible {
			if score := Similarity(tv.Name, r.variant.Name); score > bestScore {
				best, bestScore = r, score
			}
		}
		s.Price = best.price
		s.Reference = best.variant.Name
		s.Basis = models.BasisSimilarity

	case current.IsPrice():
		s.Price = current.Amount
		s.Basis = models.BasisCurrent

	default:
		s.Price = in.FallbackPrice
		s.Basis = models.BasisFallback
	}

	s.NeedsChange = !current.IsPrice() || current.Amount != s.Price
	return s
}

// Similarity scores how alike two variant labels are, from ScoreNone to
// ScoreExact, using their classified category and text.
func Similarity(a, b string) float64 {
	ca, cb := classify.Classify(a), classify.Classify(b)
	ta, tb := strings.ToLower(ca.NormalizedText), strings.ToLower(cb.NormalizedText)

	switch {
	case ca.Category == cb.Category && ta == tb:
		return ScoreExact
	case ta != "" && tb != "" && (strings.Contains(ta, tb) || strings.Contains(tb, ta)):
		return ScoreContains
	case classify.SharesKeyword(a, b):
		return ScoreKeyword
	}
	return ScoreNone
}

func uniform[T any](items []T, key func(T) int) bool {
	for _, it := range items[1:] {
		if key(it) != key(items[0]) {
			return false
		}
	}
	return true
}
