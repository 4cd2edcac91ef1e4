package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/occasion-scraper/internal/fetch"
	"github.com/playwright-community/playwright-go"
)

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	timeout time.Duration
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	Locale         string
	TimezoneID     string
	ProxyServer    string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        fetch.DefaultTimeout,
		UserAgent:      fetch.DefaultUserAgent,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "fr-FR,fr;q=0.9,en;q=0.8",
		Locale:         "fr-FR",
		TimezoneID:     "Africa/Tunis",
	}
}

func New(opts *Options, logger *slog.Logger) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetch.DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}

	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{
			Server: opts.ProxyServer,
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:       &opts.UserAgent,
		AcceptDownloads: playwright.Bool(false),
		Locale:          &opts.Locale,
		TimezoneId:      &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": opts.AcceptLanguage,
		},
	}

	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		timeout: opts.Timeout,
		logger:  logger.With("component", "browser_fetcher"),
	}, nil
}

// Fetch opens a fresh page in the shared browser context, waits for the DOM
// and returns the rendered markup. Each call gets its own page so concurrent
// fetches do not interfere.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &fetch.Error{URL: url, Kind: fetch.KindTransport, Err: err}
	}

	page, err := b.context.NewPage()
	if err != nil {
		return "", &fetch.Error{URL: url, Kind: fetch.KindTransport, Err: fmt.Errorf("failed to create page: %w", err)}
	}
	defer page.Close()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(b.timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return "", &fetch.Error{URL: url, Kind: fetch.KindTimeout, Err: err}
		}
		return "", &fetch.Error{URL: url, Kind: fetch.KindTransport, Err: err}
	}
	if resp == nil {
		return "", &fetch.Error{URL: url, Kind: fetch.KindTransport, Err: errors.New("no response")}
	}
	if status := resp.Status(); status < 200 || status > 299 {
		return "", &fetch.Error{URL: url, Kind: fetch.KindStatus, StatusCode: status, Err: fetch.ErrStatus}
	}

	html, err := page.Content()
	if err != nil {
		return "", &fetch.Error{URL: url, Kind: fetch.KindTransport, Err: fmt.Errorf("failed to get page content: %w", err)}
	}

	b.logger.Debug("rendered page", "url", url, "status", resp.Status(), "bytes", len(html))
	return html, nil
}

func (b *Browser) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	return errors.Join(errs...)
}
