package models

import "strings"

// ToggleState is the campaign participation switch of a variant.
type ToggleState string

const (
	ToggleOn  ToggleState = "ON"
	ToggleOff ToggleState = "OFF"
)

// RawPrice is the price as the storefront renders it for one variant row.
// The same row may show a single discounted amount, an (original, discounted)
// pair, or a discount rate depending on UI state, so both the displayed text
// blobs and the numeric input values are kept verbatim.
type RawPrice struct {
	// Texts are the displayed price blobs, e.g. "¥1000 ¥800" or "5.0折".
	Texts []string `json:"texts,omitempty"`

	// Inputs are the current values of the numeric input fields in the row.
	Inputs []string `json:"inputs,omitempty"`
}

// Empty reports whether no price signal was captured at all.
func (r RawPrice) Empty() bool {
	for _, t := range r.Texts {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	for _, in := range r.Inputs {
		if strings.TrimSpace(in) != "" {
			return false
		}
	}
	return true
}

// Variant is one purchasable option of a product as extracted from the page.
// Variants are extracted fresh on every page visit and never persisted.
type Variant struct {
	Name        string      `json:"name"`
	Stock       int         `json:"stock"`
	RawPrice    RawPrice    `json:"raw_price"`
	ToggleState ToggleState `json:"toggle_state"`
	Disabled    bool        `json:"disabled"`
}

// Eligible reports whether the variant may be toggled or priced at all.
func (v Variant) Eligible() bool {
	return v.Stock > 0 && !v.Disabled
}

// Product groups variants in extraction order.
type Product struct {
	Name     string    `json:"name"`
	Variants []Variant `json:"variants"`
}

// Variant returns the variant with the given name.
func (p Product) Variant(name string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// FindProduct returns the product with the given name from an extraction.
func FindProduct(products []Product, name string) (Product, bool) {
	for _, p := range products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

// Category is the coarse kind of a variant label.
type Category string

const (
	CategorySize    Category = "SIZE"
	CategoryColor   Category = "COLOR"
	CategoryStyle   Category = "STYLE"
	CategoryGeneric Category = "GENERIC"
)

// ClassifiedLabel is derived from a variant name on demand.
type ClassifiedLabel struct {
	Category       Category `json:"category"`
	NormalizedText string   `json:"normalized_text"`
}
