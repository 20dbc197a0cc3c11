package httputil

import (
	"net/http"
	"net/url"
	"time"
)

const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Clients struct {
	Scraping *http.Client // listing pages on third-party portals
	Media    *http.Client // image downloads, longer timeout
}

func NewClients(scrapeTimeout time.Duration) *Clients {
	if scrapeTimeout <= 0 {
		scrapeTimeout = 30 * time.Second
	}

	return &Clients{
		Scraping: &http.Client{Timeout: scrapeTimeout},
		Media:    &http.Client{Timeout: 60 * time.Second},
	}
}

// SetBrowserHeaders makes a request look like it came from a desktop browser that
// navigated from referer. An empty referer is derived from the target's origin.
func SetBrowserHeaders(req *http.Request, userAgent, referer, accept string) {
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	if referer == "" {
		referer = Origin(req.URL) + "/"
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

func Origin(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
