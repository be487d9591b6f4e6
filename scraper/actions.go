package scraper

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/variantsync/driver"
)

const (
	rowAttr     = "data-vs-row"
	surfaceAttr = "data-vs-surface"
)

// rowQuery identifies one variant row for the in-page helpers.
type rowQuery struct {
	ProductRow  string `json:"productRow"`
	ProductName string `json:"productName"`
	VariantRow  string `json:"variantRow"`
	VariantName string `json:"variantName"`
	Product     string `json:"product"`
	Variant     string `json:"variant"`
	Attr        string `json:"attr"`
}

// markRowJS tags the matching variant row with rowAttr. Names are compared
// after whitespace collapsing, the same way extraction reads them.
const markRowJS = `(q) => {
	const norm = s => (s || '').replace(/\s+/g, ' ').trim();
	document.querySelectorAll('[' + q.attr + ']').forEach(el => el.removeAttribute(q.attr));
	for (const prow of document.querySelectorAll(q.productRow)) {
		const pn = prow.querySelector(q.productName);
		if (!pn || norm(pn.textContent) !== q.product) continue;
		for (const vrow of prow.querySelectorAll(q.variantRow)) {
			const vn = vrow.querySelector(q.variantName);
			if (vn && norm(vn.textContent) === q.variant) {
				vrow.setAttribute(q.attr, '1');
				vrow.scrollIntoView({block: 'center'});
				return true;
			}
		}
	}
	return false;
}`

// row finds and returns the variant's row element.
func (d *Driver) row(p *rod.Page, product, variant string) (*rod.Element, error) {
	res, err := p.Eval(markRowJS, rowQuery{
		ProductRow:  d.sel.ProductRowSelector,
		ProductName: d.sel.ProductNameSelector,
		VariantRow:  d.sel.VariantRowSelector,
		VariantName: d.sel.VariantNameSelector,
		Product:     product,
		Variant:     variant,
		Attr:        rowAttr,
	})
	if err != nil {
		return nil, categorizeError(err, "failed to locate variant row")
	}
	if !res.Value.Bool() {
		return nil, fmt.Errorf("variant %q of %q not on page", variant, product)
	}
	el, err := p.Sleeper(rod.NotFoundSleeper).Element(fmt.Sprintf("[%s=%q]", rowAttr, "1"))
	if err != nil {
		return nil, categorizeError(err, "variant row vanished")
	}
	return el, nil
}

// ToggleVariant clicks the variant's campaign switch once.
func (d *Driver) ToggleVariant(ctx context.Context, product, variant string) (driver.ToggleResult, error) {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	row, err := d.row(p, product, variant)
	if err != nil {
		return driver.ToggleResult{}, err
	}
	has, toggle, err := row.Has(d.sel.ToggleSelector)
	if err != nil {
		return driver.ToggleResult{}, categorizeError(err, "toggle lookup failed")
	}
	if !has {
		return driver.ToggleResult{Success: false, Message: "no toggle in variant row"}, nil
	}
	if disabled, _ := toggle.Matches(d.sel.DisabledSelector); disabled {
		return driver.ToggleResult{Success: false, Message: "toggle is disabled"}, nil
	}
	if err := toggle.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return driver.ToggleResult{}, categorizeError(err, "toggle click failed")
	}
	d.waitStable(p)
	return driver.ToggleResult{Success: true, Message: "clicked"}, nil
}

// SetValue replaces the field's content with text.
func (d *Driver) SetValue(ctx context.Context, s *driver.Surface, text string) error {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	el, err := d.surface(p, s)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return categorizeError(err, "failed to select field text")
	}
	if err := el.Input(text); err != nil {
		return categorizeError(err, "failed to type value")
	}
	return nil
}

// Confirm commits the entered value with the row's confirm button, or with
// Enter and a blur when the storefront has none.
func (d *Driver) Confirm(ctx context.Context, s *driver.Surface) error {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	el, err := d.surface(p, s)
	if err != nil {
		return err
	}
	if d.sel.ConfirmSelector != "" {
		btn, err := p.Sleeper(rod.NotFoundSleeper).Element(fmt.Sprintf("[%s=%q] %s", rowAttr, "1", d.sel.ConfirmSelector))
		if err != nil {
			return categorizeError(err, "confirm button not found")
		}
		if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return categorizeError(err, "confirm click failed")
		}
	} else {
		if err := el.Type(input.Enter); err != nil {
			return categorizeError(err, "failed to press enter")
		}
		if err := el.Blur(); err != nil {
			d.logger.Debug("blur after confirm failed", "error", err)
		}
	}
	d.waitStable(p)
	return nil
}

const validationJS = `(q) => {
	const el = document.querySelector('[' + q.attr + '="' + q.ref + '"]');
	if (el && (el.getAttribute('aria-invalid') === 'true' || (el.validity && !el.validity.valid))) return true;
	const row = (el && el.closest(q.variantRow)) || document.querySelector('[' + q.rowAttr + '="1"]');
	if (!row) return false;
	for (const tip of row.querySelectorAll(q.errorSel)) {
		const st = getComputedStyle(tip);
		if (st.display !== 'none' && st.visibility !== 'hidden' && tip.textContent.trim() !== '') return true;
	}
	return false;
}`

// HasValidationError reports a visible error tip in the field's row or a
// field the browser itself marks invalid.
func (d *Driver) HasValidationError(ctx context.Context, s *driver.Surface) (bool, error) {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	res, err := p.Eval(validationJS, map[string]string{
		"attr":       surfaceAttr,
		"ref":        s.Ref,
		"rowAttr":    rowAttr,
		"variantRow": d.sel.VariantRowSelector,
		"errorSel":   d.sel.ValidationErrorSelector,
	})
	if err != nil {
		return false, categorizeError(err, "validation check failed")
	}
	return res.Value.Bool(), nil
}

// GoToNextPage clicks the pager's next button. It reports false when there
// is no enabled next button.
func (d *Driver) GoToNextPage(ctx context.Context) (bool, error) {
	p, cancel := d.bind(ctx, d.browserCfg.NavigationTimeout)
	defer cancel()

	has, next, err := p.Has(d.sel.NextPageSelector)
	if err != nil {
		return false, categorizeError(err, "next page lookup failed")
	}
	if !has {
		return false, nil
	}
	if err := next.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, categorizeError(err, "next page click failed")
	}
	d.waitStable(p)
	return true, nil
}

// IsEditMode reports whether the edit-mode marker is present.
func (d *Driver) IsEditMode(ctx context.Context) (bool, error) {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	has, _, err := p.Has(d.sel.EditModeSelector)
	if err != nil {
		return false, categorizeError(err, "edit mode probe failed")
	}
	return has, nil
}

// EnterEditMode clicks the edit button and checks the marker afterwards.
func (d *Driver) EnterEditMode(ctx context.Context) (bool, error) {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	has, btn, err := p.Has(d.sel.EnterEditSelector)
	if err != nil {
		return false, categorizeError(err, "edit button lookup failed")
	}
	if !has {
		return false, nil
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, categorizeError(err, "edit button click failed")
	}
	d.waitStable(p)

	on, _, err := p.Has(d.sel.EditModeSelector)
	if err != nil {
		return false, categorizeError(err, "edit mode probe failed")
	}
	return on, nil
}

func (d *Driver) surface(p *rod.Page, s *driver.Surface) (*rod.Element, error) {
	el, err := p.Sleeper(rod.NotFoundSleeper).Element(fmt.Sprintf("[%s=%q]", surfaceAttr, s.Ref))
	if err != nil {
		return nil, categorizeError(err, "price field vanished")
	}
	return el, nil
}
