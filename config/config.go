package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Storefront StorefrontConfig
	Adjust     AdjustConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Jobs       JobsConfig
	Webhook    WebhookConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8090
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser session.
type BrowserConfig struct {
	// CDPURL attaches to an already running, logged-in Chrome instead of
	// launching one.
	CDPURL string

	// Headless controls whether a launched browser runs headless.
	Headless bool // default: false (login and captcha need a window)

	// Stealth injects go-rod/stealth into the campaign page.
	Stealth bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserDataDir keeps the launched browser's profile (cookies, login).
	UserDataDir string

	// Proxy is the proxy URL for the launched browser.
	Proxy string

	// NavigationTimeout bounds opening the campaign page and pagination.
	NavigationTimeout time.Duration // default: 20s

	// ActionTimeout bounds a single click, input or probe.
	ActionTimeout time.Duration // default: 10s

	// BlockedResourceTypes lists resource types to block on the campaign page.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// StorefrontConfig describes the campaign page's markup. All selectors are
// CSS; row-scoped selectors are evaluated inside the row they belong to.
type StorefrontConfig struct {
	CampaignURL string

	ProductRowSelector  string // default: ".product-item"
	ProductNameSelector string // default: ".product-title"
	VariantRowSelector  string // default: ".sku-item"
	VariantNameSelector string // default: ".sku-name"
	StockSelector       string // default: ".sku-stock"
	ToggleSelector      string // default: ".sku-switch"

	// ToggleOnSelector matches the toggle element itself when it is on.
	ToggleOnSelector string // default: ".is-checked, [aria-checked=true]"

	// DisabledSelector matches the toggle element itself when it cannot be used.
	DisabledSelector string // default: ".is-disabled, [disabled]"

	PriceTextSelector string // default: ".sku-price"

	// ValidationErrorSelector matches an error tip inside a variant row.
	ValidationErrorSelector string // default: ".error-tip, .is-error"

	// ConfirmSelector is a row-scoped confirm button; empty means press Enter.
	ConfirmSelector string

	ProductRegionSelector string // default: ".product-list"
	NextPageSelector      string // default: ".pagination .next:not(.disabled)"
	EditModeSelector      string // default: ".batch-edit-active"
	EnterEditSelector     string // default: ".btn-batch-edit"
}

// AdjustConfig controls the adjustment workflow.
type AdjustConfig struct {
	// MaxAttempts bounds the price-set loop per variant.
	MaxAttempts int // default: 5

	// SettleDelay is waited after every toggle, price entry and navigation.
	SettleDelay time.Duration // default: 800ms

	// BackoffBase and BackoffStep shape the pause between price attempts.
	BackoffBase time.Duration // default: 500ms
	BackoffStep time.Duration // default: 250ms

	// FallbackPrice is used when no sibling reference and no current price exist.
	FallbackPrice int // default: 99

	// StallDetection stops the run when "next page" shows the same products.
	StallDetection bool // default: true

	// StallThreshold is the fingerprint distance in bits still treated as
	// the same page; raise it when the listing shows small drift (stock).
	StallThreshold int // default: 0

	// MaxPages caps the page count a run may request.
	MaxPages int // default: 500
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// JobsConfig controls the in-memory run store.
type JobsConfig struct {
	// TTL is how long a finished run stays queryable.
	TTL time.Duration // default: 24h

	// MaxEntries bounds the number of stored runs.
	MaxEntries int // default: 100
}

// WebhookConfig controls result delivery.
type WebhookConfig struct {
	// URL receives run events when a run request names none.
	URL string

	// Secret signs payloads sent to URL.
	Secret string

	// Timeout bounds one delivery attempt.
	Timeout time.Duration // default: 10s

	// DrainTimeout bounds how long shutdown waits for pending deliveries.
	DrainTimeout time.Duration // default: 45s
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("VARIANTSYNC_HOST", "127.0.0.1"),
			Port: envIntOr("VARIANTSYNC_PORT", 8090),
			Mode: envOr("VARIANTSYNC_MODE", "release"),
		},
		Browser: BrowserConfig{
			CDPURL:               os.Getenv("VARIANTSYNC_CDP_URL"),
			Headless:             envBoolOr("VARIANTSYNC_HEADLESS", false),
			Stealth:              envBoolOr("VARIANTSYNC_STEALTH", true),
			NoSandbox:            envBoolOr("VARIANTSYNC_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("VARIANTSYNC_BROWSER_BIN"),
			UserDataDir:          os.Getenv("VARIANTSYNC_USER_DATA_DIR"),
			Proxy:                os.Getenv("VARIANTSYNC_PROXY"),
			NavigationTimeout:    envDurationOr("VARIANTSYNC_NAV_TIMEOUT", 20*time.Second),
			ActionTimeout:        envDurationOr("VARIANTSYNC_ACTION_TIMEOUT", 10*time.Second),
			BlockedResourceTypes: envSliceOr("VARIANTSYNC_BLOCKED_RESOURCES", []string{"Font", "Media"}),
		},
		Storefront: StorefrontConfig{
			CampaignURL:             os.Getenv("VARIANTSYNC_CAMPAIGN_URL"),
			ProductRowSelector:      envOr("VARIANTSYNC_SEL_PRODUCT_ROW", ".product-item"),
			ProductNameSelector:     envOr("VARIANTSYNC_SEL_PRODUCT_NAME", ".product-title"),
			VariantRowSelector:      envOr("VARIANTSYNC_SEL_VARIANT_ROW", ".sku-item"),
			VariantNameSelector:     envOr("VARIANTSYNC_SEL_VARIANT_NAME", ".sku-name"),
			StockSelector:           envOr("VARIANTSYNC_SEL_STOCK", ".sku-stock"),
			ToggleSelector:          envOr("VARIANTSYNC_SEL_TOGGLE", ".sku-switch"),
			ToggleOnSelector:        envOr("VARIANTSYNC_SEL_TOGGLE_ON", ".is-checked, [aria-checked=true]"),
			DisabledSelector:        envOr("VARIANTSYNC_SEL_DISABLED", ".is-disabled, [disabled]"),
			PriceTextSelector:       envOr("VARIANTSYNC_SEL_PRICE_TEXT", ".sku-price"),
			ValidationErrorSelector: envOr("VARIANTSYNC_SEL_VALIDATION_ERROR", ".error-tip, .is-error"),
			ConfirmSelector:         os.Getenv("VARIANTSYNC_SEL_CONFIRM"),
			ProductRegionSelector:   envOr("VARIANTSYNC_SEL_PRODUCT_REGION", ".product-list"),
			NextPageSelector:        envOr("VARIANTSYNC_SEL_NEXT_PAGE", ".pagination .next:not(.disabled)"),
			EditModeSelector:        envOr("VARIANTSYNC_SEL_EDIT_MODE", ".batch-edit-active"),
			EnterEditSelector:       envOr("VARIANTSYNC_SEL_ENTER_EDIT", ".btn-batch-edit"),
		},
		Adjust: AdjustConfig{
			MaxAttempts:    envIntOr("VARIANTSYNC_MAX_ATTEMPTS", 5),
			SettleDelay:    envDurationOr("VARIANTSYNC_SETTLE_DELAY", 800*time.Millisecond),
			BackoffBase:    envDurationOr("VARIANTSYNC_BACKOFF_BASE", 500*time.Millisecond),
			BackoffStep:    envDurationOr("VARIANTSYNC_BACKOFF_STEP", 250*time.Millisecond),
			FallbackPrice:  envIntOr("VARIANTSYNC_FALLBACK_PRICE", 99),
			StallDetection: envBoolOr("VARIANTSYNC_STALL_DETECTION", true),
			StallThreshold: envIntOr("VARIANTSYNC_STALL_THRESHOLD", 0),
			MaxPages:       envIntOr("VARIANTSYNC_MAX_RUN_PAGES", 500),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("VARIANTSYNC_AUTH_ENABLED", true),
			APIKeys: envSliceOr("VARIANTSYNC_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("VARIANTSYNC_RATE_RPS", 5.0),
			Burst:             envIntOr("VARIANTSYNC_RATE_BURST", 10),
		},
		Jobs: JobsConfig{
			TTL:        envDurationOr("VARIANTSYNC_JOB_TTL", 24*time.Hour),
			MaxEntries: envIntOr("VARIANTSYNC_JOB_MAX_ENTRIES", 100),
		},
		Webhook: WebhookConfig{
			URL:          os.Getenv("VARIANTSYNC_WEBHOOK_URL"),
			Secret:       os.Getenv("VARIANTSYNC_WEBHOOK_SECRET"),
			Timeout:      envDurationOr("VARIANTSYNC_WEBHOOK_TIMEOUT", 10*time.Second),
			DrainTimeout: envDurationOr("VARIANTSYNC_WEBHOOK_DRAIN_TIMEOUT", 45*time.Second),
		},
		Log: LogConfig{
			Level:  envOr("VARIANTSYNC_LOG_LEVEL", "info"),
			Format: envOr("VARIANTSYNC_LOG_FORMAT", "text"),
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Browser.CDPURL == "" && c.Storefront.CampaignURL == "" {
		errs = append(errs, errors.New("one of VARIANTSYNC_CDP_URL or VARIANTSYNC_CAMPAIGN_URL is required"))
	}
	if c.Adjust.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be >= 1, got %d", c.Adjust.MaxAttempts))
	}
	if c.Adjust.FallbackPrice < 1 {
		errs = append(errs, fmt.Errorf("fallback price must be >= 1, got %d", c.Adjust.FallbackPrice))
	}
	if c.Adjust.StallThreshold < 0 || c.Adjust.StallThreshold > 64 {
		errs = append(errs, fmt.Errorf("stall threshold must be within 0..64, got %d", c.Adjust.StallThreshold))
	}
	if c.Adjust.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("max run pages must be >= 1, got %d", c.Adjust.MaxPages))
	}
	if c.Adjust.SettleDelay < 0 || c.Adjust.BackoffBase < 0 || c.Adjust.BackoffStep < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, errors.New("auth enabled but VARIANTSYNC_API_KEYS is empty"))
	}

	for name, sel := range c.Storefront.selectors() {
		if sel == "" {
			if name != "confirm" {
				errs = append(errs, fmt.Errorf("selector %s is empty", name))
			}
			continue
		}
		if _, err := cascadia.ParseGroup(sel); err != nil {
			errs = append(errs, fmt.Errorf("selector %s %q: %w", name, sel, err))
		}
	}
	return errors.Join(errs...)
}

func (s StorefrontConfig) selectors() map[string]string {
	return map[string]string{
		"product_row":      s.ProductRowSelector,
		"product_name":     s.ProductNameSelector,
		"variant_row":      s.VariantRowSelector,
		"variant_name":     s.VariantNameSelector,
		"stock":            s.StockSelector,
		"toggle":           s.ToggleSelector,
		"toggle_on":        s.ToggleOnSelector,
		"disabled":         s.DisabledSelector,
		"price_text":       s.PriceTextSelector,
		"validation_error": s.ValidationErrorSelector,
		"confirm":          s.ConfirmSelector,
		"product_region":   s.ProductRegionSelector,
		"next_page":        s.NextPageSelector,
		"edit_mode":        s.EditModeSelector,
		"enter_edit":       s.EnterEditSelector,
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
