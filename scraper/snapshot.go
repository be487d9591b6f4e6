package scraper

import (
	"bytes"
	"context"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// maxSnapshotLen bounds the markdown logged for one empty page.
const maxSnapshotLen = 4000

// snapshotConverter is goroutine-safe and reused across snapshots.
var snapshotConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// Snapshot renders the product region as markdown for diagnostics.
func (d *Driver) Snapshot(ctx context.Context) (string, error) {
	p, cancel := d.bind(ctx, d.browserCfg.ActionTimeout)
	defer cancel()

	rawHTML, err := p.HTML()
	if err != nil {
		return "", categorizeError(err, "failed to read page for snapshot")
	}
	return renderSnapshot(rawHTML, d.sel.ProductRegionSelector)
}

// renderSnapshot converts the nodes matching regionSelector to markdown.
// With no match, the whole body is used so an unexpected layout still shows up.
func renderSnapshot(rawHTML, regionSelector string) (string, error) {
	region := rawHTML
	if regionSelector != "" {
		sel, err := cascadia.ParseGroup(regionSelector)
		if err != nil {
			return "", err
		}
		doc, err := html.Parse(strings.NewReader(rawHTML))
		if err != nil {
			return "", err
		}
		if matches := cascadia.QueryAll(doc, sel); len(matches) > 0 {
			var buf bytes.Buffer
			for _, node := range matches {
				if err := html.Render(&buf, node); err != nil {
					return "", err
				}
			}
			region = buf.String()
		}
	}

	md, err := snapshotConverter.ConvertString(region)
	if err != nil {
		return "", err
	}
	md = strings.TrimSpace(md)
	if len(md) > maxSnapshotLen {
		md = truncateUTF8(md, maxSnapshotLen) + "\n…(truncated)"
	}
	return md, nil
}

func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
