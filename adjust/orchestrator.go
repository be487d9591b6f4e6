// Package adjust brings one variant at a time into campaign shape: switched
// on, and priced consistently with its siblings.
package adjust

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/variantsync/driver"
	"github.com/use-agent/variantsync/models"
	"github.com/use-agent/variantsync/pricing"
)

// DefaultMaxAttempts bounds the price phase.
const DefaultMaxAttempts = 5

// Options tunes the orchestrator. Zero values are valid and mean no waiting.
type Options struct {
	// MaxAttempts bounds the price-set attempt loop; <= 0 means DefaultMaxAttempts.
	MaxAttempts int

	// SettleDelay is waited after every mutating page action before reading back.
	SettleDelay time.Duration

	// BackoffBase and BackoffStep shape the pause before price attempt n (n >= 2):
	// BackoffBase + (n-2)*BackoffStep.
	BackoffBase time.Duration
	BackoffStep time.Duration

	// Strategies is the price-surface priority order; empty means driver.DefaultStrategies.
	Strategies []driver.Strategy

	// FallbackPrice is passed to the price inferer; <= 0 means pricing.DefaultFallbackPrice.
	FallbackPrice int

	Logger *slog.Logger
	Now    func() time.Time
}

// Orchestrator runs the toggle-then-price workflow for single variants.
// It is not safe for concurrent use: it shares one page driver session.
type Orchestrator struct {
	drv     driver.PageDriver
	inferer *pricing.Inferer
	memory  *StrategyMemory
	opts    Options
	logger  *slog.Logger

	// dirty is set once this page has been mutated; the next variant then
	// re-extracts so inference sees earlier toggles and prices.
	dirty bool
}

// New creates an Orchestrator over the given driver.
func New(drv driver.PageDriver, opts Options) *Orchestrator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = driver.DefaultStrategies
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		drv:     drv,
		inferer: pricing.NewInferer(opts.FallbackPrice),
		memory:  NewStrategyMemory(),
		opts:    opts,
		logger:  logger,
	}
}

// Memory exposes the strategy memory (shared across pages of a run).
func (o *Orchestrator) Memory() *StrategyMemory {
	return o.memory
}

// BeginPage marks a freshly extracted page; nothing on it has been mutated yet.
func (o *Orchestrator) BeginPage() {
	o.dirty = false
}

// Process drives one variant to a terminal state and returns exactly one record.
// Failures are captured in the record, never returned.
func (o *Orchestrator) Process(ctx context.Context, product models.Product, variant models.Variant) models.AdjustmentRecord {
	if o.dirty {
		if fresh, ok := o.refresh(ctx, product.Name); ok {
			if fv, ok := fresh.Variant(variant.Name); ok {
				product, variant = fresh, fv
			}
		}
	}

	rec := models.AdjustmentRecord{
		Product:       product.Name,
		Variant:       variant.Name,
		PreviousPrice: pricing.Normalize(variant),
	}
	log := o.logger.With("product", product.Name, "variant", variant.Name)

	// ── Eligibility gate ────────────────────────────────────────────
	if !variant.Eligible() {
		rec.Outcome = models.OutcomeSkipped
		rec.Message = skipReason(variant)
		log.Debug("variant skipped", "reason", rec.Message)
		return o.finish(rec)
	}

	// ── Toggle phase ────────────────────────────────────────────────
	if variant.ToggleState != models.ToggleOn {
		fresh, fv, msg, ok := o.toggle(ctx, product, variant)
		if !ok {
			rec.Outcome = models.OutcomeToggleFailed
			rec.Message = msg
			log.Warn("toggle failed", "reason", msg)
			return o.finish(rec)
		}
		product, variant = fresh, fv
		log.Info("variant toggled on")
	}
	rec.ToggleSucceeded = true

	// ── Price phase ─────────────────────────────────────────────────
	s := o.inferer.Suggest(product, variant.Name)
	rec.TargetPrice = s.Price
	rec.Basis = s.Basis
	rec.ReferenceVariant = s.Reference
	if !s.NeedsChange {
		rec.Outcome = models.OutcomeUnchanged
		rec.PriceSucceeded = true
		return o.finish(rec)
	}

	current := pricing.Normalize(variant)
	strategy, attempts, msg, ok := o.setPrice(ctx, log, product.Name, variant.Name, s.Price, current)
	rec.Attempts = attempts
	rec.Strategy = string(strategy)
	rec.Message = msg
	if ok {
		rec.Outcome = models.OutcomePriced
		rec.PriceSucceeded = true
		log.Info("price set", "price", s.Price, "basis", s.Basis, "strategy", strategy, "attempts", attempts)
	} else {
		rec.Outcome = models.OutcomePriceFailed
		log.Warn("price not set", "price", s.Price, "attempts", attempts, "reason", msg)
	}
	return o.finish(rec)
}

// toggle switches a variant on with a single attempt and verifies it by
// re-extracting the page.
func (o *Orchestrator) toggle(ctx context.Context, product models.Product, variant models.Variant) (models.Product, models.Variant, string, bool) {
	res, err := o.drv.ToggleVariant(ctx, product.Name, variant.Name)
	o.dirty = true
	if err != nil {
		return product, variant, fmt.Sprintf("toggle: %v", err), false
	}
	if !res.Success {
		return product, variant, "toggle rejected: " + res.Message, false
	}
	o.sleep(ctx, o.opts.SettleDelay)

	fresh, ok := o.refresh(ctx, product.Name)
	if !ok {
		return product, variant, "toggle not verified: product vanished after toggle", false
	}
	fv, ok := fresh.Variant(variant.Name)
	if !ok {
		return product, variant, "toggle not verified: variant vanished after toggle", false
	}
	if fv.ToggleState != models.ToggleOn {
		return product, variant, "toggle not verified: variant still " + string(fv.ToggleState), false
	}
	return fresh, fv, "", true
}

// setPrice is the bounded attempt loop. Each attempt uses the next strategy
// in remembered-first order. A validation error on a field suspected to take
// a discount rate is retried once within the same attempt with the rate.
func (o *Orchestrator) setPrice(ctx context.Context, log *slog.Logger, product, variant string, target int, current models.PriceFact) (driver.Strategy, int, string, bool) {
	order := o.memory.Order(o.opts.Strategies)
	remembered := o.memory.Get()
	lastMsg := "no attempt made"

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			o.sleep(ctx, o.opts.BackoffBase+time.Duration(attempt-2)*o.opts.BackoffStep)
		}
		strategy := order[(attempt-1)%len(order)]
		alog := log.With("attempt", attempt, "strategy", strategy)

		surface, err := o.drv.LocatePriceSurface(ctx, product, variant, strategy)
		if err != nil || surface == nil {
			lastMsg = fmt.Sprintf("%s: price field not found", strategy)
			if err != nil {
				lastMsg = fmt.Sprintf("%s: %v", strategy, err)
			}
			if strategy == remembered {
				o.memory.Delete()
			}
			alog.Debug("price surface not located", "reason", lastMsg)
			continue
		}

		ok, invalid, msg := o.submit(ctx, surface, pricing.FormatPrice(target))
		if !ok && invalid && suspectsRate(surface, current) {
			if original, known := current.OriginalPrice(); known {
				rate := pricing.DiscountRate(target, original)
				alog.Debug("absolute price rejected, retrying as rate", "rate", rate, "original", original)
				ok, _, msg = o.submit(ctx, surface, pricing.FormatRate(rate))
			}
		}
		if ok {
			o.memory.Set(strategy)
			return strategy, attempt, "", true
		}
		lastMsg = fmt.Sprintf("%s: %s", strategy, msg)
		alog.Debug("price attempt failed", "reason", msg)
	}
	return "", o.opts.MaxAttempts, lastMsg, false
}

// submit enters text, confirms it and checks for a validation error.
// It returns (accepted, rejectedByValidation, reason).
func (o *Orchestrator) submit(ctx context.Context, s *driver.Surface, text string) (bool, bool, string) {
	o.dirty = true
	if err := o.drv.SetValue(ctx, s, text); err != nil {
		return false, false, fmt.Sprintf("set value %q: %v", text, err)
	}
	if err := o.drv.Confirm(ctx, s); err != nil {
		return false, false, fmt.Sprintf("confirm %q: %v", text, err)
	}
	o.sleep(ctx, o.opts.SettleDelay)

	invalid, err := o.drv.HasValidationError(ctx, s)
	switch {
	case err != nil:
		return false, false, fmt.Sprintf("validation check: %v", err)
	case invalid:
		return false, true, fmt.Sprintf("value %q rejected by validation", text)
	}
	return true, false, ""
}

func (o *Orchestrator) refresh(ctx context.Context, product string) (models.Product, bool) {
	products, err := o.drv.ExtractProducts(ctx)
	if err != nil {
		o.logger.Warn("re-extraction failed", "product", product, "error", err)
		return models.Product{}, false
	}
	o.dirty = false
	return models.FindProduct(products, product)
}

func (o *Orchestrator) finish(rec models.AdjustmentRecord) models.AdjustmentRecord {
	rec.Timestamp = o.opts.Now()
	return rec
}

// sleep waits for d or until ctx is done. Actions already dispatched are not
// interrupted; only the wait is cut short.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// suspectsRate reports whether a rejected absolute price may have been
// entered into a discount-rate field.
func suspectsRate(s *driver.Surface, current models.PriceFact) bool {
	if s.RateHint {
		return true
	}
	switch current.Provenance {
	case models.ProvenanceRate, models.ProvenanceComputed:
		return true
	}
	return false
}

func skipReason(v models.Variant) string {
	switch {
	case v.Disabled:
		return "no action needed: variant disabled"
	default:
		return "no action needed: out of stock"
	}
}
