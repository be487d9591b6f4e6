// Package driver defines the narrow contract between the adjustment core and
// whatever automates the storefront's campaign-editing page.
package driver

import (
	"context"

	"github.com/use-agent/variantsync/models"
)

// Strategy names one way of locating a variant's price-entry field.
type Strategy string

const (
	// StrategyCurrencyPrefixed picks the input rendered right after a currency sign.
	StrategyCurrencyPrefixed Strategy = "currency-prefixed"

	// StrategyLabeled picks the input whose label or placeholder mentions price or rate.
	StrategyLabeled Strategy = "labeled"

	// StrategyPositional picks among several numeric inputs by position.
	StrategyPositional Strategy = "positional"

	// StrategyExploratory scans price-like regions of the row for any input.
	StrategyExploratory Strategy = "exploratory"
)

// DefaultStrategies is the fixed priority order of price-surface strategies.
var DefaultStrategies = []Strategy{
	StrategyCurrencyPrefixed,
	StrategyLabeled,
	StrategyPositional,
	StrategyExploratory,
}

// Surface is an opaque handle to a located price-entry field.
type Surface struct {
	// Ref identifies the field to the driver that produced it.
	Ref string

	// Strategy is the strategy that located the field.
	Strategy Strategy

	// RateHint is set when the field looks like it takes a discount rate
	// (a 折 suffix, a max of 10) rather than an absolute price.
	RateHint bool
}

// ToggleResult reports the driver's view of a toggle click.
type ToggleResult struct {
	Success bool
	Message string
}

// PageDriver is the page-automation collaborator. Implementations are used
// from a single goroutine; every mutating call must have settled (or been
// polled to completion) before it returns.
type PageDriver interface {
	// ExtractProducts snapshots the currently rendered products and variants.
	ExtractProducts(ctx context.Context) ([]models.Product, error)

	// ToggleVariant flips the campaign switch of one variant.
	ToggleVariant(ctx context.Context, product, variant string) (ToggleResult, error)

	// LocatePriceSurface finds the variant's price field using one strategy.
	// It returns nil without error when the strategy finds nothing.
	LocatePriceSurface(ctx context.Context, product, variant string, strategy Strategy) (*Surface, error)

	// SetValue replaces the field's content with text.
	SetValue(ctx context.Context, s *Surface, text string) error

	// Confirm commits the entered value (blur, enter or a confirm button).
	Confirm(ctx context.Context, s *Surface) error

	// HasValidationError reports whether the page rejected the committed value.
	HasValidationError(ctx context.Context, s *Surface) (bool, error)

	// GoToNextPage advances the result list; false means there is no next page
	// or the navigation did not happen.
	GoToNextPage(ctx context.Context) (bool, error)

	// IsEditMode reports whether toggles and price fields are editable.
	IsEditMode(ctx context.Context) (bool, error)

	// EnterEditMode tries to switch the page into edit mode.
	EnterEditMode(ctx context.Context) (bool, error)

	// Snapshot returns a compact text rendering of the product region for logs.
	Snapshot(ctx context.Context) (string, error)
}
