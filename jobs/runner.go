package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/variantsync/batch"
	"github.com/use-agent/variantsync/models"
	"github.com/use-agent/variantsync/webhook"
)

// BatchFunc runs the pagination loop over pages pages, reporting each
// finished page through onPage.
type BatchFunc func(ctx context.Context, pages int, onPage func(models.PageResult)) []models.PageResult

// Notifier delivers webhook events.
type Notifier interface {
	DeliverAsync(url, secret string, event *webhook.Event) <-chan struct{}
}

// Runner starts runs in the background, one at a time.
type Runner struct {
	store    *Store
	run      BatchFunc
	notifier Notifier
	logger   *slog.Logger

	// Default webhook target used when a request names none.
	webhookURL, webhookSecret string

	// base is cancelled on shutdown; runs stop at the next page or variant.
	base context.Context
	wg   sync.WaitGroup
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Notifier      Notifier
	WebhookURL    string
	WebhookSecret string
	Logger        *slog.Logger
}

// NewRunner creates a Runner. Runs started by it are cancelled with base.
func NewRunner(base context.Context, store *Store, run BatchFunc, opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:         store,
		run:           run,
		notifier:      opts.Notifier,
		logger:        logger,
		webhookURL:    opts.WebhookURL,
		webhookSecret: opts.WebhookSecret,
		base:          base,
	}
}

// Store returns the runner's job store.
func (r *Runner) Store() *Store {
	return r.store
}

// Start registers a run and executes it in the background.
func (r *Runner) Start(req models.RunRequest) (models.RunJob, error) {
	job, err := r.store.Begin(req.Pages)
	if err != nil {
		return models.RunJob{}, err
	}

	url, secret := req.WebhookURL, req.WebhookSecret
	if url == "" {
		url, secret = r.webhookURL, r.webhookSecret
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(job.ID, req.Pages, url, secret)
	}()
	return job, nil
}

// Wait blocks until every started run has finished and every webhook
// event it produced has been delivered or given up on.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Drain is Wait bounded by ctx. It returns ctx.Err() when deliveries are
// still pending at the deadline.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) execute(id string, pages int, url, secret string) {
	log := r.logger.With("run_id", id)
	log.Info("run started", "pages", pages)
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("run panicked", "panic", rec)
			job, _ := r.store.Get(id)
			r.complete(id, pages, url, secret, models.RunStatusPartial, job.Pages)
		}
	}()

	results := r.run(r.base, pages, func(page models.PageResult) {
		r.store.AppendPage(id, page)
		r.notify(url, secret, webhook.EventRunPage, id, page)
	})

	status := models.RunStatusPartial
	if len(results) == pages {
		status = models.RunStatusCompleted
	}
	summary := r.complete(id, pages, url, secret, status, results)

	log.Info("run finished",
		"status", status,
		"pages", len(results),
		"variants", summary.TotalVariantsSeen,
		"toggled", summary.ToggleSuccesses,
		"priced", summary.PriceSuccesses,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
}

// complete records the final status and sends run.completed.
func (r *Runner) complete(id string, pages int, url, secret, status string, results []models.PageResult) models.PageResult {
	summary := batch.Summarize(results)
	r.store.Finish(id, status, summary)
	r.notify(url, secret, webhook.EventRunCompleted, id, models.RunStatusResponse{
		ID:          id,
		Status:      status,
		PagesWanted: pages,
		Pages:       results,
		Summary:     summary,
	})
	return summary
}

func (r *Runner) notify(url, secret, eventType, id string, data interface{}) {
	if url == "" || r.notifier == nil {
		return
	}
	done := r.notifier.DeliverAsync(url, secret, &webhook.Event{
		Type:      eventType,
		RunID:     id,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		<-done
	}()
}
