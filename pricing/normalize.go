// Package pricing turns the storefront's raw price renderings into canonical
// integer prices and infers the price a variant should carry.
package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/variantsync/models"
)

// rateCeiling is the exclusive upper bound of a bare number read as a
// discount rate; "5.5" is a rate, "10" is a price.
const rateCeiling = 10.0

var (
	// currencyPattern matches "¥1,000", "￥ 99.5", "$20", "RMB300" and "300元".
	currencyPattern = regexp.MustCompile(`(?:[¥￥$]|RMB)\s*(\d[\d,]*(?:\.\d+)?)|(\d[\d,]*(?:\.\d+)?)\s*元`)

	// ratePattern matches "5.0折" and "8 折".
	ratePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*折`)

	// barePattern matches a lone number, optionally with a currency sign.
	barePattern = regexp.MustCompile(`^[¥￥$]?\s*(\d[\d,]*(?:\.\d+)?)$`)
)

// Normalize parses a variant's raw price representation.
//
// Precedence:
//  1. A text blob carrying two or more currency amounts: the last is the
//     discounted (EXPLICIT) price, the first the original.
//  2. A discount rate next to a currency amount or a plausible original
//     input: COMPUTED as round(original * rate / 10).
//  3. A rate alone: RATE.
//  4. Exactly one currency amount: EXPLICIT, or ORIGINAL when labeled 原价.
//     A sibling input below 10 turns it into COMPUTED.
//  5. Bare input values: below 10 is a rate (COMPUTED with a sibling original,
//     else RATE), otherwise an EXPLICIT price.
//  6. UNKNOWN.
func Normalize(v models.Variant) models.PriceFact {
	if v.RawPrice.Empty() {
		return models.UnknownPrice
	}

	var texts []string
	for _, t := range v.RawPrice.Texts {
		if t = strings.TrimSpace(t); t != "" {
			texts = append(texts, t)
		}
	}

	for _, t := range texts {
		if money := currencyValues(t); len(money) >= 2 {
			return models.PriceFact{
				Amount:     roundInt(money[len(money)-1]),
				Provenance: models.ProvenanceExplicit,
				Original:   roundInt(money[0]),
			}
		}
	}

	var money, rates, inputs []float64
	labeledOriginal := false
	for _, t := range texts {
		m := currencyValues(t)
		r := rateValues(t)
		if len(m) > 0 && strings.Contains(t, "原价") {
			labeledOriginal = true
		}
		if len(m) == 0 && len(r) == 0 {
			if n, ok := bareNumber(t); ok {
				inputs = append(inputs, n)
			}
		}
		money = append(money, m...)
		rates = append(rates, r...)
	}
	for _, in := range v.RawPrice.Inputs {
		if n, ok := bareNumber(in); ok {
			inputs = append(inputs, n)
		}
	}

	smallInput, hasSmall := firstMatching(inputs, func(n float64) bool { return n > 0 && n < rateCeiling })
	largeInput, hasLarge := firstMatching(inputs, func(n float64) bool { return n >= rateCeiling })

	if len(rates) > 0 {
		switch {
		case len(money) > 0:
			return computed(money[0], rates[0])
		case hasLarge:
			return computed(largeInput, rates[0])
		}
		return rateFact(rates[0])
	}

	switch {
	case len(money) == 1 && hasSmall:
		return computed(money[0], smallInput)
	case len(money) == 1 && labeledOriginal:
		return models.PriceFact{Amount: roundInt(money[0]), Provenance: models.ProvenanceOriginal}
	case len(money) == 1:
		return models.PriceFact{Amount: roundInt(money[0]), Provenance: models.ProvenanceExplicit}
	case len(money) > 1:
		// Amounts spread over separate blobs: same reading as a single pair.
		return models.PriceFact{
			Amount:     roundInt(money[len(money)-1]),
			Provenance: models.ProvenanceExplicit,
			Original:   roundInt(money[0]),
		}
	}

	switch {
	case hasSmall && hasLarge:
		return computed(largeInput, smallInput)
	case hasSmall:
		return rateFact(smallInput)
	case hasLarge:
		return models.PriceFact{Amount: roundInt(largeInput), Provenance: models.ProvenanceExplicit}
	}
	return models.UnknownPrice
}

// ApplyRate converts a discount rate into a price: round(original * rate / 10).
func ApplyRate(original, rate float64) int {
	return roundInt(original * rate / 10)
}

// DiscountRate is the inverse of ApplyRate, rounded to one decimal:
// round(target / original * 10, 1).
func DiscountRate(target, original int) float64 {
	if original <= 0 {
		return 0
	}
	return math.Round(float64(target)/float64(original)*100) / 10
}

// FormatPrice renders a price the way the storefront's price input expects it.
func FormatPrice(amount int) string {
	return strconv.Itoa(amount)
}

// FormatRate renders a discount rate with one decimal ("5.0").
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 1, 64)
}

func computed(original, rate float64) models.PriceFact {
	return models.PriceFact{
		Amount:     ApplyRate(original, rate),
		Provenance: models.ProvenanceComputed,
		Original:   roundInt(original),
		Rate:       rate,
	}
}

func rateFact(rate float64) models.PriceFact {
	return models.PriceFact{
		Amount:     roundInt(rate),
		Provenance: models.ProvenanceRate,
		Rate:       rate,
	}
}

func currencyValues(t string) []float64 {
	var out []float64
	for _, m := range currencyPattern.FindAllStringSubmatch(t, -1) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if n, ok := parseNumber(raw); ok {
			out = append(out, n)
		}
	}
	return out
}

func rateValues(t string) []float64 {
	var out []float64
	for _, m := range ratePattern.FindAllStringSubmatch(t, -1) {
		if n, ok := parseNumber(m[1]); ok && n > 0 && n <= rateCeiling {
			out = append(out, n)
		}
	}
	return out
}

func bareNumber(t string) (float64, bool) {
	m := barePattern.FindStringSubmatch(strings.TrimSpace(t))
	if m == nil {
		return 0, false
	}
	return parseNumber(m[1])
}

func parseNumber(raw string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func firstMatching(values []float64, keep func(float64) bool) (float64, bool) {
	for _, v := range values {
		if keep(v) {
			return v, true
		}
	}
	return 0, false
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
