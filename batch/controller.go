// Package batch repeats the adjustment workflow across the campaign's result
// pages and aggregates what happened.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/variantsync/adjust"
	"github.com/use-agent/variantsync/driver"
	"github.com/use-agent/variantsync/models"
	"github.com/use-agent/variantsync/simhash"
)

// Options configures a Controller.
type Options struct {
	// StallDetection treats a "next page" that shows the same products as
	// the previous page as a navigation failure.
	StallDetection bool

	// StallThreshold is the largest fingerprint distance (in bits) at which
	// two consecutive pages count as the same page. 0 means identical only.
	StallThreshold int

	// OnPage is called after each PageResult is appended, in page order.
	OnPage func(models.PageResult)

	Logger *slog.Logger
}

// Controller is the pagination loop. It shares the orchestrator's driver and
// is not safe for concurrent use.
type Controller struct {
	drv    driver.PageDriver
	orch   *adjust.Orchestrator
	opts   Options
	logger *slog.Logger
}

// NewController creates a Controller.
func NewController(drv driver.PageDriver, orch *adjust.Orchestrator, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{drv: drv, orch: orch, opts: opts, logger: logger}
}

// RunBatch processes up to pageCount pages starting from the current one.
// It never fails: navigation problems end the loop early and everything
// collected so far is returned. A cancelled ctx stops the loop between
// variants or pages.
func (c *Controller) RunBatch(ctx context.Context, pageCount int) []models.PageResult {
	results := make([]models.PageResult, 0, max(pageCount, 0))
	var prev uint64

	for page := 1; page <= pageCount; page++ {
		if ctx.Err() != nil {
			c.logger.Info("run cancelled", "page", page)
			return results
		}
		log := c.logger.With("page", page)

		res, fingerprint, stalled := c.runPage(ctx, page, prev, log)
		if stalled {
			log.Warn("pagination stalled: page repeats the previous one, stopping")
			return results
		}
		if fingerprint != 0 {
			prev = fingerprint
		}
		c.append(&results, res)

		if ctx.Err() != nil || page == pageCount {
			return results
		}
		moved, err := c.drv.GoToNextPage(ctx)
		if err != nil || !moved {
			log.Warn("next page navigation failed, stopping", "error", err)
			return results
		}
	}
	return results
}

// runPage handles one page and returns its product fingerprint (0 when the
// page was skipped). stalled reports that the page shows the same products as
// the page with fingerprint prev; nothing was processed in that case.
func (c *Controller) runPage(ctx context.Context, page int, prev uint64, log *slog.Logger) (res models.PageResult, fingerprint uint64, stalled bool) {
	res = models.PageResult{Page: page}

	if page > 1 {
		if reason, ok := c.ensureEditMode(ctx); !ok {
			log.Warn("skipping page", "reason", reason)
			res.Skipped = true
			res.SkipReason = reason
			return res, 0, false
		}
	}

	products, err := c.drv.ExtractProducts(ctx)
	if err != nil || len(products) == 0 {
		reason := "no products extracted"
		if err != nil {
			reason = fmt.Sprintf("extraction failed: %v", err)
		}
		snap, serr := c.drv.Snapshot(ctx)
		if serr != nil {
			snap = "(snapshot unavailable: " + serr.Error() + ")"
		}
		log.Warn("empty page, skipping", "reason", reason, "snapshot", snap)
		res.Skipped = true
		res.SkipReason = reason
		return res, 0, false
	}

	fingerprint = simhash.FingerprintProducts(products)
	if c.opts.StallDetection && page > 1 && simhash.Similar(fingerprint, prev, c.opts.StallThreshold) {
		return res, fingerprint, true
	}
	c.orch.BeginPage()

	for _, p := range products {
		for _, v := range p.Variants {
			if ctx.Err() != nil {
				log.Info("run cancelled mid-page", "product", p.Name, "variant", v.Name)
				return res, fingerprint, false
			}
			res.Add(c.orch.Process(ctx, p, v))
		}
	}
	log.Info("page done",
		"variants", res.TotalVariantsSeen,
		"toggled", res.ToggleSuccesses,
		"priced", res.PriceSuccesses,
	)
	return res, fingerprint, false
}

// ensureEditMode re-enters edit mode once if navigation dropped it.
func (c *Controller) ensureEditMode(ctx context.Context) (string, bool) {
	on, err := c.drv.IsEditMode(ctx)
	if err == nil && on {
		return "", true
	}
	c.logger.Info("edit mode lost, re-entering")
	entered, err := c.drv.EnterEditMode(ctx)
	switch {
	case err != nil:
		return fmt.Sprintf("edit mode lost and re-entry failed: %v", err), false
	case !entered:
		return "edit mode lost and re-entry failed", false
	}
	return "", true
}

func (c *Controller) append(results *[]models.PageResult, res models.PageResult) {
	*results = append(*results, res)
	if c.opts.OnPage != nil {
		c.opts.OnPage(res)
	}
}

// Summarize folds page results into one run-level result with the same shape.
// Records keep page order; Page is the number of pages summarized.
func Summarize(pages []models.PageResult) models.PageResult {
	sum := models.PageResult{Page: len(pages), Records: []models.AdjustmentRecord{}}
	for _, p := range pages {
		sum.TotalVariantsSeen += p.TotalVariantsSeen
		sum.ToggleSuccesses += p.ToggleSuccesses
		sum.PriceSuccesses += p.PriceSuccesses
		sum.Records = append(sum.Records, p.Records...)
	}
	return sum
}
