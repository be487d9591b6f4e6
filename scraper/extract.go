package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/variantsync/config"
	"github.com/use-agent/variantsync/models"
)

// valueAttr carries live input values into the serialized DOM; the value
// attribute only reflects the initial markup.
const valueAttr = "data-vs-value"

// ExtractProducts snapshots the rendered campaign table.
func (d *Driver) ExtractProducts(ctx context.Context) ([]models.Product, error) {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	if _, err := p.Eval(`(attr) => {
		document.querySelectorAll('input').forEach(el => el.setAttribute(attr, el.value));
	}`, valueAttr); err != nil {
		return nil, categorizeError(err, "failed to capture input values")
	}
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	return parseProducts(rawHTML, d.sel)
}

// parseProducts reads products and variants from the page HTML in document
// order. Rows without a name are ignored.
func parseProducts(rawHTML string, sel config.StorefrontConfig) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	var products []models.Product
	doc.Find(sel.ProductRowSelector).Each(func(_ int, row *goquery.Selection) {
		name := cleanText(row.Find(sel.ProductNameSelector).First().Text())
		if name == "" {
			return
		}
		p := models.Product{Name: name}
		row.Find(sel.VariantRowSelector).Each(func(_ int, vrow *goquery.Selection) {
			if v, ok := parseVariant(vrow, sel); ok {
				p.Variants = append(p.Variants, v)
			}
		})
		products = append(products, p)
	})
	return products, nil
}

func parseVariant(row *goquery.Selection, sel config.StorefrontConfig) (models.Variant, bool) {
	name := cleanText(row.Find(sel.VariantNameSelector).First().Text())
	if name == "" {
		return models.Variant{}, false
	}
	v := models.Variant{
		Name:        name,
		Stock:       leadingInt(row.Find(sel.StockSelector).First().Text()),
		ToggleState: models.ToggleOff,
	}

	toggle := row.Find(sel.ToggleSelector).First()
	if matchesSelfOrChild(toggle, sel.ToggleOnSelector) {
		v.ToggleState = models.ToggleOn
	}
	v.Disabled = toggle.Length() == 0 || matchesSelfOrChild(toggle, sel.DisabledSelector)

	row.Find(sel.PriceTextSelector).Each(func(_ int, s *goquery.Selection) {
		if t := cleanText(s.Text()); t != "" {
			v.RawPrice.Texts = append(v.RawPrice.Texts, t)
		}
	})
	row.Find("input").Each(func(_ int, s *goquery.Selection) {
		switch strings.ToLower(s.AttrOr("type", "text")) {
		case "checkbox", "radio", "hidden", "button", "submit":
			return
		}
		val, ok := s.Attr(valueAttr)
		if !ok {
			val = s.AttrOr("value", "")
		}
		if val = strings.TrimSpace(val); val != "" {
			v.RawPrice.Inputs = append(v.RawPrice.Inputs, val)
		}
	})
	return v, true
}

func matchesSelfOrChild(s *goquery.Selection, selector string) bool {
	if s.Length() == 0 || selector == "" {
		return false
	}
	return s.Is(selector) || s.Find(selector).Length() > 0
}

// cleanText collapses whitespace runs.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// leadingInt returns the first run of digits in s ("库存: 12 件" → 12), or 0.
func leadingInt(s string) int {
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0
	}
	return n
}
