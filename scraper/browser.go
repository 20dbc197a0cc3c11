package scraper

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"realty_backoffice/config"
	"realty_backoffice/errs"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	minNavigationTimeout     = time.Second
)

// BrowserFetcher renders pages in headless Chromium, for portals that build the listing
// markup client-side. The browser is started on first use and reused until Close.
type BrowserFetcher struct {
	site    *config.SiteConfig
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewBrowserFetcher(site *config.SiteConfig) *BrowserFetcher {
	return &BrowserFetcher{site: site}
}

func (f *BrowserFetcher) ensureBrowser() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	f.pw = pw
	f.browser = browser
	return nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Upstream("fetch listing page", err)
	}
	if err := f.ensureBrowser(); err != nil {
		return nil, errs.Upstream("start browser", err)
	}

	timeout := navigationTimeout(ctx)

	bctx, err := f.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:        playwright.String(f.site.UserAgent),
		ExtraHttpHeaders: map[string]string{"Referer": f.site.Referer, "Accept-Language": "en-US,en;q=0.9"},
	})
	if err != nil {
		return nil, errs.Upstream("open browser context", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, errs.Upstream("open page", err)
	}

	resp, err := page.Goto(pageURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return nil, errs.Upstream("navigate to listing page", err)
	}
	if resp != nil && (resp.Status() < 200 || resp.Status() > 299) {
		return nil, errs.Upstream(fmt.Sprintf("fetch listing page: status %d", resp.Status()), nil)
	}

	html, err := page.Content()
	if err != nil {
		return nil, errs.Upstream("read rendered page", err)
	}
	return []byte(html), nil
}

func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		if err := f.browser.Close(); err != nil {
			log.Printf("Browser: close failed: %v", err)
		}
		f.browser = nil
	}
	if f.pw != nil {
		f.pw.Stop()
		f.pw = nil
	}
}

// navigationTimeout is the time left on ctx, or the default when ctx has no deadline.
// Playwright reads a zero timeout as "wait forever", so the result is never below a second.
func navigationTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultNavigationTimeout
	}
	return max(time.Until(deadline), minNavigationTimeout)
}
