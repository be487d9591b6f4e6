package pricing

import (
	"testing"

	"github.com/use-agent/variantsync/models"
)

func priced(name string, state models.ToggleState, texts ...string) models.Variant {
	return models.Variant{
		Name:        name,
		Stock:       5,
		ToggleState: state,
		RawPrice:    models.RawPrice{Texts: texts},
	}
}

func TestSuggest_UniformPriceWins(t *testing.T) {
	p := models.Product{
		Name: "Fee-Shirt",
		Variants: []models.Variant{
			priced("ABC123", models.ToggleOn, "¥300"),
			priced("上衣黑色", models.ToggleOff),
			priced("XYZ-9", models.ToggleOn, "¥300"),
			priced("Other", models.ToggleOn, "¥300"),
		},
	}

	got := Suggest(p, "上衣黑色")
	if got.Price != 300 || got.Basis != models.BasisUniform || !got.NeedsChange {
		t.Errorf("Suggest() = %+v, want price 300, basis uniform, needs change", got)
	}
	if got.Reference != "ABC123" {
		t.Errorf("Suggest().Reference = %q, want %q", got.Reference, "ABC123")
	}
}

func TestSuggest_UniformPriceAlreadySet(t *testing.T) {
	p := models.Product{
		Name: "Fee-Shirt",
		Variants: []models.Variant{
			priced("Black", models.ToggleOn, "¥300"),
			priced("White", models.ToggleOn, "¥300"),
		},
	}
	got := Suggest(p, "White")
	if got.Price != 300 || got.NeedsChange {
		t.Errorf("Suggest() = %+v, want price 300 without change", got)
	}
}

func TestSuggest_SimilarityPicksClosestSibling(t *testing.T) {
	p := models.Product{
		Name: "Tee",
		Variants: []models.Variant{
			priced("ABC", models.ToggleOn, "¥100"),
			priced("上衣黑色", models.ToggleOn, "¥260"),
			priced("上衣XL", models.ToggleOn, "¥200"),
			priced("上衣白色", models.ToggleOff, "¥1"),
		},
	}

	got := Suggest(p, "上衣白色")
	if got.Price != 260 || got.Reference != "上衣黑色" || got.Basis != models.BasisSimilarity {
		t.Errorf("Suggest() = %+v, want 260 from 上衣黑色 by similarity", got)
	}
	if !got.NeedsChange {
		t.Error("Suggest().NeedsChange = false, want true")
	}
}

func TestSuggest_SimilarityTieGoesToFirst(t *testing.T) {
	p := models.Product{
		Name: "Tee",
		Variants: []models.Variant{
			priced("Target", models.ToggleOff),
			priced("Alpha", models.ToggleOn, "¥120"),
			priced("Beta", models.ToggleOn, "¥150"),
		},
	}
	got := Suggest(p, "Target")
	if got.Reference != "Alpha" || got.Price != 120 {
		t.Errorf("Suggest() = %+v, want first-encountered Alpha at 120", got)
	}
}

func TestSuggest_IgnoresInactiveAndUnpricedSiblings(t *testing.T) {
	p := models.Product{
		Name: "Tee",
		Variants: []models.Variant{
			priced("Red", models.ToggleOff, "¥999"),
			priced("Blue", models.ToggleOn),
			priced("Rate only", models.ToggleOn, "5折"),
			priced("Green", models.ToggleOn, "¥180"),
		},
	}
	got := Suggest(p, "Pink")
	if got.Found {
		t.Fatalf("Suggest() for missing variant = %+v, want not found", got)
	}

	p.Variants = append(p.Variants, priced("Pink", models.ToggleOff))
	got = Suggest(p, "Pink")
	if got.Price != 180 || got.Reference != "Green" {
		t.Errorf("Suggest() = %+v, want 180 from Green", got)
	}
}

func TestSuggest_KeepsOwnPriceWithoutReferences(t *testing.T) {
	p := models.Product{
		Name:     "Solo",
		Variants: []models.Variant{priced("Only", models.ToggleOn, "¥420")},
	}
	got := Suggest(p, "Only")
	if got.Price != 420 || got.NeedsChange || got.Basis != models.BasisCurrent {
		t.Errorf("Suggest() = %+v, want own price 420, no change", got)
	}
}

func TestSuggest_Fallback(t *testing.T) {
	p := models.Product{
		Name:     "Solo",
		Variants: []models.Variant{priced("Only", models.ToggleOff)},
	}

	got := Suggest(p, "Only")
	if got.Price != DefaultFallbackPrice || !got.NeedsChange || got.Basis != models.BasisFallback {
		t.Errorf("Suggest() = %+v, want fallback %d with change", got, DefaultFallbackPrice)
	}

	got = NewInferer(150).Suggest(p, "Only")
	if got.Price != 150 {
		t.Errorf("Inferer(150).Suggest().Price = %d, want 150", got.Price)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"上衣黑色", "上衣白色", ScoreExact},
		{"上衣黑色", "上衣XL", ScoreContains},
		{"上衣黑色", "上衣加绒黑色", ScoreContains},
		{"ABC黑色", "XYZ黑色", ScoreKeyword},
		{"ABC", "XYZ", ScoreNone},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
