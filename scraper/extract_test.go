package scraper

import (
	"reflect"
	"testing"

	"github.com/use-agent/variantsync/config"
	"github.com/use-agent/variantsync/models"
)

func testSelectors() config.StorefrontConfig {
	return config.StorefrontConfig{
		ProductRowSelector:  ".product-item",
		ProductNameSelector: ".product-title",
		VariantRowSelector:  ".sku-item",
		VariantNameSelector: ".sku-name",
		StockSelector:       ".sku-stock",
		ToggleSelector:      ".sku-switch",
		ToggleOnSelector:    ".is-checked, [aria-checked=true]",
		DisabledSelector:    ".is-disabled, [disabled]",
		PriceTextSelector:   ".sku-price",
	}
}

const campaignHTML = `<html><body><div class="product-list">
<div class="product-item">
  <div class="product-title">  Fee-Shirt
  </div>
  <div class="sku-item">
    <span class="sku-name">Black</span><span class="sku-stock">库存: 12 件</span>
    <button class="sku-switch is-checked"></button>
    <span class="sku-price">¥300</span>
    <input type="text" value="300" data-vs-value="300">
  </div>
  <div class="sku-item">
    <span class="sku-name">White</span><span class="sku-stock">5</span>
    <button class="sku-switch" aria-checked="false"></button>
    <input type="text" value="" data-vs-value="">
    <input type="checkbox" value="on">
  </div>
  <div class="sku-item">
    <span class="sku-name">Red</span><span class="sku-stock">0</span>
    <button class="sku-switch is-disabled"></button>
    <span class="sku-price">原价¥1000</span>
    <input type="text" value="9" data-vs-value="8.0">
  </div>
  <div class="sku-item"><span class="sku-name"> </span></div>
</div>
<div class="product-item"><div class="product-title"></div></div>
<div class="product-item">
  <div class="product-title">Coat</div>
  <div class="sku-item">
    <span class="sku-name">Grey   XL</span><span class="sku-stock">3</span>
    <span class="sku-switch"><i class="inner" aria-checked="true"></i></span>
  </div>
</div>
</div></body></html>`

func TestParseProducts(t *testing.T) {
	got, err := parseProducts(campaignHTML, testSelectors())
	if err != nil {
		t.Fatalf("parseProducts() error = %v", err)
	}

	want := []models.Product{
		{Name: "Fee-Shirt", Variants: []models.Variant{
			{Name: "Black", Stock: 12, ToggleState: models.ToggleOn,
				RawPrice: models.RawPrice{Texts: []string{"¥300"}, Inputs: []string{"300"}}},
			{Name: "White", Stock: 5, ToggleState: models.ToggleOff},
			{Name: "Red", Stock: 0, ToggleState: models.ToggleOff, Disabled: true,
				RawPrice: models.RawPrice{Texts: []string{"原价¥1000"}, Inputs: []string{"8.0"}}},
		}},
		{Name: "Coat", Variants: []models.Variant{
			{Name: "Grey XL", Stock: 3, ToggleState: models.ToggleOn},
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseProducts() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestParseProducts_EmptyPage(t *testing.T) {
	got, err := parseProducts(`<html><body><p>暂无数据</p></body></html>`, testSelectors())
	if err != nil {
		t.Fatalf("parseProducts() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("parseProducts() = %+v, want no products", got)
	}
}

func TestParseProducts_MissingToggleIsDisabled(t *testing.T) {
	const page = `<div class="product-item"><div class="product-title">Hat</div>
<div class="sku-item"><span class="sku-name">Blue</span><span class="sku-stock">4</span></div></div>`
	got, err := parseProducts(page, testSelectors())
	if err != nil {
		t.Fatalf("parseProducts() error = %v", err)
	}
	if len(got) != 1 || len(got[0].Variants) != 1 || !got[0].Variants[0].Disabled {
		t.Errorf("parseProducts() = %+v, want one disabled variant", got)
	}
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"库存: 12 件", 12},
		{"stock 0", 0},
		{"", 0},
		{"无", 0},
		{"3/10", 3},
	}
	for _, tt := range tests {
		if got := leadingInt(tt.in); got != tt.want {
			t.Errorf("leadingInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
