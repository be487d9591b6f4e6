package batch

import (
	"context"
	"testing"

	"github.com/use-agent/variantsync/adjust"
	"github.com/use-agent/variantsync/driver/drivertest"
	"github.com/use-agent/variantsync/models"
	"github.com/use-agent/variantsync/simhash"
)

func product(name string, variants ...models.Variant) models.Product {
	return models.Product{Name: name, Variants: variants}
}

func on(name, price string) models.Variant {
	return models.Variant{Name: name, Stock: 5, ToggleState: models.ToggleOn, RawPrice: models.RawPrice{Texts: []string{price}}}
}

func off(name string) models.Variant {
	return models.Variant{Name: name, Stock: 5, ToggleState: models.ToggleOff}
}

func threePages() [][]models.Product {
	return [][]models.Product{
		{product("Tee", on("Black", "¥300"), off("White"))},
		{product("Coat", on("Black", "¥800"), off("White"), off("Red"))},
		{product("Hat", on("Black", "¥50"), off("White"))},
	}
}

func newController(fake *drivertest.Fake, opts Options) *Controller {
	return NewController(fake, adjust.New(fake, adjust.Options{}), opts)
}

func TestRunBatch_AllPages(t *testing.T) {
	fake := drivertest.New(threePages()...)
	var notified []int
	c := newController(fake, Options{OnPage: func(r models.PageResult) { notified = append(notified, r.Page) }})

	results := c.RunBatch(context.Background(), 3)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	wantSeen := []int{2, 3, 2}
	for i, r := range results {
		if r.Page != i+1 || r.Skipped {
			t.Errorf("results[%d] = page %d skipped=%v", i, r.Page, r.Skipped)
		}
		if r.TotalVariantsSeen != wantSeen[i] || r.ToggleSuccesses != wantSeen[i] || r.PriceSuccesses != wantSeen[i] {
			t.Errorf("page %d counters = %d/%d/%d, want all %d",
				r.Page, r.TotalVariantsSeen, r.ToggleSuccesses, r.PriceSuccesses, wantSeen[i])
		}
	}
	if len(notified) != 3 || notified[2] != 3 {
		t.Errorf("OnPage calls = %v, want [1 2 3]", notified)
	}
	if fake.NextCalls != 2 {
		t.Errorf("next page calls = %d, want 2", fake.NextCalls)
	}
}

func TestRunBatch_NavigationFailureKeepsPartialResults(t *testing.T) {
	fake := drivertest.New(threePages()...)
	fake.NavFailAt = 2
	c := newController(fake, Options{})

	results := c.RunBatch(context.Background(), 3)

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[1].Page != 2 || results[1].TotalVariantsSeen != 3 {
		t.Errorf("results[1] = %+v, want page 2 with 3 variants", results[1])
	}
}

func TestRunBatch_RecordsFollowExtractionOrder(t *testing.T) {
	fake := drivertest.New(threePages()[1])
	c := newController(fake, Options{})

	results := c.RunBatch(context.Background(), 1)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	var got []string
	for _, r := range results[0].Records {
		got = append(got, r.Variant)
	}
	want := []string{"Black", "White", "Red"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("record order = %v, want %v", got, want)
		}
	}
}

func TestRunBatch_EmptyPageIsSkipped(t *testing.T) {
	pages := threePages()
	pages[1] = nil
	fake := drivertest.New(pages...)
	c := newController(fake, Options{})

	results := c.RunBatch(context.Background(), 3)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if !results[1].Skipped || results[1].SkipReason == "" || results[1].TotalVariantsSeen != 0 {
		t.Errorf("results[1] = %+v, want skipped empty page", results[1])
	}
	if results[2].Skipped || results[2].PriceSuccesses != 2 {
		t.Errorf("results[2] = %+v, want processed page", results[2])
	}
}

func TestRunBatch_EditModeReentry(t *testing.T) {
	t.Run("re-entered", func(t *testing.T) {
		fake := drivertest.New(threePages()...)
		fake.EditModeLostOn = map[int]bool{2: true}
		c := newController(fake, Options{})

		results := c.RunBatch(context.Background(), 3)
		if len(results) != 3 || results[1].Skipped {
			t.Fatalf("results = %+v, want page 2 processed", results)
		}
		if fake.EnterCalls != 1 {
			t.Errorf("enter edit mode calls = %d, want 1", fake.EnterCalls)
		}
	})

	t.Run("re-entry fails", func(t *testing.T) {
		fake := drivertest.New(threePages()...)
		fake.EditModeLostOn = map[int]bool{2: true}
		fake.EnterEditModeFails = true
		c := newController(fake, Options{})

		results := c.RunBatch(context.Background(), 3)
		if len(results) != 3 {
			t.Fatalf("len(results) = %d, want 3", len(results))
		}
		for _, r := range results[1:] {
			if !r.Skipped || len(r.Records) != 0 {
				t.Errorf("page %d = %+v, want skipped", r.Page, r)
			}
		}
		if fake.EnterCalls != 2 {
			t.Errorf("enter edit mode calls = %d, want one per affected page", fake.EnterCalls)
		}
		if fake.Toggles != 1 {
			t.Errorf("toggles = %d, want 1 (page 1 only)", fake.Toggles)
		}
	})
}

func TestRunBatch_StalledPaginationStops(t *testing.T) {
	fake := drivertest.New(threePages()...)
	fake.StuckPagination = true
	c := newController(fake, Options{StallDetection: true})

	results := c.RunBatch(context.Background(), 3)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if fake.NextCalls != 1 {
		t.Errorf("next page calls = %d, want 1", fake.NextCalls)
	}
}

func TestRunBatch_StallThresholdToleratesDrift(t *testing.T) {
	first := []models.Product{product("Tee", on("Black", "¥300"), off("White"))}
	drifted := []models.Product{product("Tee", on("Black", "¥300"), off("White"))}
	drifted[0].Variants[0].Stock = 4
	dist := simhash.Distance(simhash.FingerprintProducts(first), simhash.FingerprintProducts(drifted))
	if dist == 0 {
		t.Fatal("stock drift did not change the fingerprint")
	}

	tests := []struct {
		name      string
		threshold int
		want      int
	}{
		{"below distance", dist - 1, 2},
		{"within threshold", dist, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := drivertest.New(first, drifted)
			c := newController(fake, Options{StallDetection: true, StallThreshold: tt.threshold})

			results := c.RunBatch(context.Background(), 2)
			if len(results) != tt.want {
				t.Errorf("len(results) = %d, want %d (distance %d, threshold %d)", len(results), tt.want, dist, tt.threshold)
			}
		})
	}
}

func TestRunBatch_StallDetectionDisabled(t *testing.T) {
	fake := drivertest.New(threePages()...)
	fake.StuckPagination = true
	c := newController(fake, Options{})

	results := c.RunBatch(context.Background(), 3)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	// Page 1 was already adjusted; repeating it changes nothing.
	if results[1].ToggleSuccesses != 2 || results[1].Records[1].Outcome != models.OutcomeUnchanged {
		t.Errorf("results[1] = %+v, want unchanged repeat of page 1", results[1])
	}
}

func TestRunBatch_CancelledContext(t *testing.T) {
	fake := drivertest.New(threePages()...)
	c := newController(fake, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if results := c.RunBatch(ctx, 3); len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
	if fake.Extracts != 0 {
		t.Errorf("extracts = %d, want 0", fake.Extracts)
	}
}

func TestRunBatch_ZeroPages(t *testing.T) {
	fake := drivertest.New(threePages()...)
	c := newController(fake, Options{})
	if results := c.RunBatch(context.Background(), 0); len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestSummarize(t *testing.T) {
	pages := []models.PageResult{
		{Page: 1, TotalVariantsSeen: 2, ToggleSuccesses: 2, PriceSuccesses: 1,
			Records: []models.AdjustmentRecord{{Variant: "a"}, {Variant: "b"}}},
		{Page: 2, Skipped: true, SkipReason: "no products extracted"},
		{Page: 3, TotalVariantsSeen: 1, ToggleSuccesses: 0, PriceSuccesses: 0,
			Records: []models.AdjustmentRecord{{Variant: "c"}}},
	}

	sum := Summarize(pages)
	if sum.TotalVariantsSeen != 3 || sum.ToggleSuccesses != 2 || sum.PriceSuccesses != 1 {
		t.Errorf("Summarize() counters = %d/%d/%d, want 3/2/1", sum.TotalVariantsSeen, sum.ToggleSuccesses, sum.PriceSuccesses)
	}
	if sum.Page != 3 || len(sum.Records) != 3 || sum.Records[2].Variant != "c" {
		t.Errorf("Summarize() = %+v", sum)
	}

	empty := Summarize(nil)
	if empty.Records == nil || empty.TotalVariantsSeen != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero counters and empty records", empty)
	}
}
