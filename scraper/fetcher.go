package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"realty_backoffice/config"
	"realty_backoffice/errs"
	"realty_backoffice/httputil"
)

const maxPageSize = 10 * 1024 * 1024

// Fetcher retrieves the HTML of a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// NewFetcher picks the fetcher named by the site's handler.
func NewFetcher(site *config.SiteConfig, clients *httputil.Clients) Fetcher {
	switch site.Handler {
	case "browser":
		return NewBrowserFetcher(site)
	default:
		return NewHTTPFetcher(site, clients.Scraping)
	}
}

// HTTPFetcher downloads pages with a plain GET dressed up as a desktop browser.
type HTTPFetcher struct {
	site   *config.SiteConfig
	client *http.Client
}

func NewHTTPFetcher(site *config.SiteConfig, client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{site: site, client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errs.InvalidInput("invalid listing URL: %v", err)
	}
	httputil.SetBrowserHeaders(req, f.site.UserAgent, f.site.Referer, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errs.Upstream("fetch listing page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.Upstream(fmt.Sprintf("fetch listing page: status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, errs.Upstream("read listing page", err)
	}
	return body, nil
}
