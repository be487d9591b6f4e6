// Package drivertest provides an in-memory, scripted driver.PageDriver for
// tests of the adjustment core.
package drivertest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/use-agent/variantsync/driver"
	"github.com/use-agent/variantsync/models"
)

// Fake simulates a paginated campaign page. Zero-valued knobs behave like a
// well-mannered storefront: toggles stick, prices are accepted, pagination
// runs until the last page.
type Fake struct {
	mu sync.Mutex

	pages    [][]models.Product
	page     int
	editMode bool
	pending  map[string]string
	invalid  map[string]bool

	// ToggleFails makes ToggleVariant report failure for the given Key values.
	ToggleFails map[string]bool

	// ToggleNoEffect makes ToggleVariant report success without changing state.
	ToggleNoEffect map[string]bool

	// MissingSurface makes LocatePriceSurface find nothing for a strategy.
	MissingSurface map[driver.Strategy]bool

	// AlwaysInvalid makes every confirmed value a validation error.
	AlwaysInvalid bool

	// RateOnly makes the field reject any value of 10 or more.
	RateOnly bool

	// RateHint is copied onto every located surface.
	RateHint bool

	// NavFailAt makes the n-th GoToNextPage call (1-based) fail.
	NavFailAt int

	// EditModeLostOn drops edit mode when arriving on these pages (1-based).
	EditModeLostOn map[int]bool

	// EnterEditModeFails makes EnterEditMode fail.
	EnterEditModeFails bool

	// StuckPagination makes GoToNextPage succeed without changing the page.
	StuckPagination bool

	// Call counters.
	Extracts, Toggles, Locates, Sets, Confirms, NextCalls, EnterCalls int

	// Values records every SetValue text in order.
	Values []string

	// Strategies records the strategy of every LocatePriceSurface call.
	Strategies []driver.Strategy
}

// New returns a Fake in edit mode showing the first of the given pages.
func New(pages ...[]models.Product) *Fake {
	cp := make([][]models.Product, len(pages))
	for i, p := range pages {
		cp[i] = cloneProducts(p)
	}
	return &Fake{
		pages:    cp,
		editMode: true,
		pending:  make(map[string]string),
		invalid:  make(map[string]bool),
	}
}

// Key builds the product/variant key used by the knob maps.
func Key(product, variant string) string {
	return product + keySep + variant
}

const keySep = "\x00"

// Page returns the current 1-based page number.
func (f *Fake) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page + 1
}

// Variant returns the current state of a variant on the current page.
func (f *Fake) Variant(product, variant string) (models.Variant, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := f.find(product, variant); v != nil {
		return *v, true
	}
	return models.Variant{}, false
}

func (f *Fake) ExtractProducts(_ context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Extracts++
	if f.page >= len(f.pages) {
		return nil, nil
	}
	return cloneProducts(f.pages[f.page]), nil
}

func (f *Fake) ToggleVariant(_ context.Context, product, variant string) (driver.ToggleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Toggles++
	key := Key(product, variant)
	v := f.find(product, variant)
	switch {
	case v == nil:
		return driver.ToggleResult{}, fmt.Errorf("drivertest: variant %q of %q not on page", variant, product)
	case f.ToggleFails[key]:
		return driver.ToggleResult{Success: false, Message: "toggle rejected"}, nil
	case f.ToggleNoEffect[key]:
		return driver.ToggleResult{Success: true, Message: "clicked"}, nil
	}
	v.ToggleState = models.ToggleOn
	return driver.ToggleResult{Success: true, Message: "toggled on"}, nil
}

func (f *Fake) LocatePriceSurface(_ context.Context, product, variant string, strategy driver.Strategy) (*driver.Surface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Locates++
	f.Strategies = append(f.Strategies, strategy)
	if f.MissingSurface[strategy] || f.find(product, variant) == nil {
		return nil, nil
	}
	return &driver.Surface{Ref: Key(product, variant), Strategy: strategy, RateHint: f.RateHint}, nil
}

func (f *Fake) SetValue(_ context.Context, s *driver.Surface, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sets++
	f.Values = append(f.Values, text)
	f.pending[s.Ref] = text
	return nil
}

func (f *Fake) Confirm(_ context.Context, s *driver.Surface) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Confirms++
	text := f.pending[s.Ref]
	n, err := strconv.ParseFloat(text, 64)
	switch {
	case f.AlwaysInvalid, err != nil, f.RateOnly && n >= 10:
		f.invalid[s.Ref] = true
		return nil
	}
	f.invalid[s.Ref] = false

	product, variant, _ := strings.Cut(s.Ref, keySep)
	if v := f.find(product, variant); v != nil {
		if f.RateOnly {
			v.RawPrice.Inputs = []string{text}
		} else {
			v.RawPrice = models.RawPrice{Texts: []string{"¥" + text}}
		}
	}
	return nil
}

func (f *Fake) HasValidationError(_ context.Context, s *driver.Surface) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalid[s.Ref], nil
}

func (f *Fake) GoToNextPage(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NextCalls++
	if f.NextCalls == f.NavFailAt || f.page+1 >= len(f.pages) {
		return false, nil
	}
	if f.StuckPagination {
		return true, nil
	}
	f.page++
	if f.EditModeLostOn[f.page+1] {
		f.editMode = false
	}
	return true, nil
}

func (f *Fake) IsEditMode(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editMode, nil
}

func (f *Fake) EnterEditMode(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EnterCalls++
	if f.EnterEditModeFails {
		return false, nil
	}
	f.editMode = true
	return true, nil
}

func (f *Fake) Snapshot(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("page %d", f.page+1), nil
}

func (f *Fake) find(product, variant string) *models.Variant {
	if f.page >= len(f.pages) {
		return nil
	}
	for i := range f.pages[f.page] {
		p := &f.pages[f.page][i]
		if p.Name != product {
			continue
		}
		for j := range p.Variants {
			if p.Variants[j].Name == variant {
				return &p.Variants[j]
			}
		}
	}
	return nil
}

func cloneProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i, p := range in {
		out[i] = models.Product{Name: p.Name, Variants: make([]models.Variant, len(p.Variants))}
		for j, v := range p.Variants {
			v.RawPrice = models.RawPrice{
				Texts:  append([]string(nil), v.RawPrice.Texts...),
				Inputs: append([]string(nil), v.RawPrice.Inputs...),
			}
			out[i].Variants[j] = v
		}
	}
	return out
}

var _ driver.PageDriver = (*Fake)(nil)
