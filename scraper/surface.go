package scraper

import (
	"context"

	"github.com/use-agent/variantsync/driver"
	"github.com/ysmood/gson"
)

// locateJS finds the price field of the marked row with one strategy, tags
// it with the surface attribute and reports whether it looks like a
// discount-rate field.
const locateJS = `(q) => {
	const row = document.querySelector('[' + q.rowAttr + '="1"]');
	if (!row) return {found: false};

	const skip = ['checkbox', 'radio', 'hidden', 'button', 'submit'];
	const inputs = Array.from(row.querySelectorAll('input')).filter(el =>
		!el.disabled && !el.readOnly && !skip.includes((el.type || '').toLowerCase()));

	const near = (el, dir) => {
		let t = '';
		for (let n = el[dir]; n && t.trim() === ''; n = n[dir]) t = n.textContent || '';
		if (t.trim() === '' && el.parentElement) {
			const sib = dir === 'previousSibling' ? el.parentElement.previousElementSibling : el.parentElement.nextElementSibling;
			if (sib) t = sib.textContent || '';
		}
		return t.trim();
	};
	const label = el => {
		const byFor = el.id ? document.querySelector('label[for="' + el.id + '"]') : null;
		const wrap = el.closest('label');
		return [el.placeholder, el.getAttribute('aria-label'), el.name,
			byFor && byFor.textContent, wrap && wrap.textContent]
			.filter(Boolean).join(' ').toLowerCase();
	};
	const numeric = el => el.type === 'number' || el.inputMode === 'decimal' ||
		el.inputMode === 'numeric' || /^\s*[\d.,]*\s*$/.test(el.value);

	let pick = null;
	switch (q.strategy) {
	case 'currency-prefixed':
		pick = inputs.find(el => /(?:[¥￥$]|RMB)\s*$/.test(near(el, 'previousSibling')));
		break;
	case 'labeled':
		pick = inputs.find(el => /价|price|折|rate|discount/.test(label(el)));
		break;
	case 'positional': {
		const nums = inputs.filter(numeric);
		pick = nums.length ? nums[nums.length - 1] : null;
		break;
	}
	case 'exploratory':
		pick = inputs.find(el => el.closest('[class*="price"],[class*="Price"],[class*="discount"]')) || inputs[0] || null;
		break;
	}
	if (!pick) return {found: false};

	document.querySelectorAll('[' + q.attr + ']').forEach(el => el.removeAttribute(q.attr));
	pick.setAttribute(q.attr, q.ref);
	const max = parseFloat(pick.getAttribute('max'));
	const rateHint = /^折/.test(near(pick, 'nextSibling')) ||
		/折|rate|discount/.test(label(pick)) || (!isNaN(max) && max <= 10);
	return {found: true, rateHint: rateHint};
}`

// LocatePriceSurface finds the variant's price field with one strategy.
func (d *Driver) LocatePriceSurface(ctx context.Context, product, variant string, strategy driver.Strategy) (*driver.Surface, error) {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	if _, err := d.row(p, product, variant); err != nil {
		return nil, err
	}
	ref := d.nextSurfaceRef()
	res, err := p.Eval(locateJS, map[string]string{
		"rowAttr":  rowAttr,
		"attr":     surfaceAttr,
		"ref":      ref,
		"strategy": string(strategy),
	})
	if err != nil {
		return nil, categorizeError(err, "price field lookup failed")
	}
	found, rateHint := locateResult(res.Value)
	if !found {
		return nil, nil
	}
	return &driver.Surface{
		Ref:      ref,
		Strategy: strategy,
		RateHint: rateHint,
	}, nil
}

// locateResult reads the object returned by locateJS.
func locateResult(v gson.JSON) (found, rateHint bool) {
	if !v.Get("found").Bool() {
		return false, false
	}
	return true, v.Get("rateHint").Bool()
}
