// Package scraper drives the storefront's campaign page with go-rod. It is
// the production implementation of driver.PageDriver.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/variantsync/config"
	"github.com/use-agent/variantsync/driver"
	"github.com/use-agent/variantsync/models"
)

// Driver owns one browser tab showing the campaign page. It implements
// driver.PageDriver and must be used from one goroutine at a time.
type Driver struct {
	browser  *rod.Browser
	page     *rod.Page
	launched bool
	router   *rod.HijackRouter

	browserCfg config.BrowserConfig
	sel        config.StorefrontConfig
	logger     *slog.Logger

	// surfaceSeq numbers located price fields.
	surfaceSeq int
}

// Open attaches to the browser at BrowserConfig.CDPURL, or launches one, and
// returns a Driver bound to the campaign tab. Login is not automated: an
// attached browser is expected to be signed in already, a launched one keeps
// its session in UserDataDir.
func Open(ctx context.Context, browserCfg config.BrowserConfig, sel config.StorefrontConfig, logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{browserCfg: browserCfg, sel: sel, logger: logger}

	var err error
	if browserCfg.CDPURL != "" {
		err = d.attach()
	} else {
		err = d.launch()
	}
	if err != nil {
		return nil, err
	}

	page, err := d.campaignPage()
	if err != nil {
		d.Close()
		return nil, err
	}
	d.page = page

	if browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			logger.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	d.router = setupHijack(page, browserCfg.BlockedResourceTypes)

	if sel.CampaignURL != "" && !strings.HasPrefix(d.currentURL(), sel.CampaignURL) {
		navCtx, cancel := context.WithTimeout(ctx, browserCfg.NavigationTimeout)
		defer cancel()
		p := page.Context(navCtx)
		if navErr := p.Navigate(sel.CampaignURL); navErr != nil {
			d.Close()
			return nil, categorizeError(navErr, "navigation to campaign page failed")
		}
		d.waitStable(p)
	}
	logger.Info("campaign page ready", "url", d.currentURL(), "attached", !d.launched)
	return d, nil
}

func (d *Driver) attach() error {
	controlURL := d.browserCfg.CDPURL
	if !strings.HasPrefix(controlURL, "ws") {
		resolved, err := launcher.ResolveURL(controlURL)
		if err != nil {
			return models.NewRunError(models.ErrCodeBrowserCrash, "failed to resolve CDP URL", err)
		}
		controlURL = resolved
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return models.NewRunError(models.ErrCodeBrowserCrash, "failed to connect to CDP URL", err)
	}
	d.browser = browser
	return nil
}

func (d *Driver) launch() error {
	cfg := d.browserCfg
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return models.NewRunError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	d.logger.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return models.NewRunError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	d.browser = browser
	d.launched = true
	return nil
}

// campaignPage picks the open tab showing the campaign, or opens a new one.
func (d *Driver) campaignPage() (*rod.Page, error) {
	pages, err := d.browser.Pages()
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeBrowserCrash, "failed to list browser tabs", err)
	}
	var first *rod.Page
	for _, p := range pages {
		info, infoErr := p.Info()
		if infoErr != nil || info.Type != proto.TargetTargetInfoTypePage {
			continue
		}
		if first == nil {
			first = p
		}
		if d.sel.CampaignURL != "" && strings.HasPrefix(info.URL, d.sel.CampaignURL) {
			return p, nil
		}
	}
	if d.sel.CampaignURL == "" && first != nil {
		return first, nil
	}

	var page *rod.Page
	if d.browserCfg.Stealth {
		page, err = stealth.Page(d.browser)
	} else {
		page, err = d.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeBrowserCrash, "failed to open campaign tab", err)
	}
	return page, nil
}

// Close stops request blocking and kills a launched browser. An attached
// browser is left running with its tabs; the connection ends with the process.
func (d *Driver) Close() {
	if d.router != nil {
		_ = d.router.Stop()
	}
	if d.browser == nil || !d.launched {
		return
	}
	d.logger.Info("closing launched browser")
	if err := d.browser.Close(); err != nil {
		d.logger.Warn("browser close failed", "error", err)
	}
}

// bind scopes the tab to ctx with the given timeout.
func (d *Driver) bind(ctx context.Context, timeout time.Duration) (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return d.page.Context(ctx), cancel
}

func (d *Driver) waitStable(p *rod.Page) {
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		d.logger.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

func (d *Driver) currentURL() string {
	res, err := d.page.Eval(`() => window.location.href`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (d *Driver) nextSurfaceRef() string {
	d.surfaceSeq++
	return fmt.Sprintf("s%d", d.surfaceSeq)
}

var _ driver.PageDriver = (*Driver)(nil)
