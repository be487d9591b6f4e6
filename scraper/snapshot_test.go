package scraper

import (
	"strings"
	"testing"
)

func TestRenderSnapshot_RegionOnly(t *testing.T) {
	const page = `<html><body>
<nav>Seller Center Menu</nav>
<div class="product-list"><h3>Fee-Shirt</h3><table><tr><th>SKU</th><th>Price</th></tr>
<tr><td>Black</td><td>¥300</td></tr></table></div>
</body></html>`

	md, err := renderSnapshot(page, ".product-list")
	if err != nil {
		t.Fatalf("renderSnapshot() error = %v", err)
	}
	if strings.Contains(md, "Seller Center Menu") {
		t.Errorf("snapshot contains content outside the region:\n%s", md)
	}
	for _, want := range []string{"Fee-Shirt", "Black", "¥300"} {
		if !strings.Contains(md, want) {
			t.Errorf("snapshot missing %q:\n%s", want, md)
		}
	}
}

func TestRenderSnapshot_FallsBackToWholePage(t *testing.T) {
	md, err := renderSnapshot(`<html><body><p>暂无数据</p></body></html>`, ".product-list")
	if err != nil {
		t.Fatalf("renderSnapshot() error = %v", err)
	}
	if !strings.Contains(md, "暂无数据") {
		t.Errorf("snapshot = %q, want page text", md)
	}
}

func TestRenderSnapshot_BadSelector(t *testing.T) {
	if _, err := renderSnapshot("<p>x</p>", "div["); err == nil {
		t.Error("renderSnapshot() with invalid selector should fail")
	}
}

func TestRenderSnapshot_Truncates(t *testing.T) {
	long := "<p>" + strings.Repeat("价格", maxSnapshotLen) + "</p>"
	md, err := renderSnapshot(long, "")
	if err != nil {
		t.Fatalf("renderSnapshot() error = %v", err)
	}
	if !strings.HasSuffix(md, "(truncated)") {
		t.Errorf("long snapshot not truncated, len = %d", len(md))
	}
	body := strings.TrimSuffix(md, "\n…(truncated)")
	if len(body) > maxSnapshotLen || !strings.HasPrefix(body, "价格") {
		t.Errorf("truncated body len = %d", len(body))
	}
}
