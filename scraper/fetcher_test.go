package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"realty_backoffice/config"
	"realty_backoffice/errs"
	"realty_backoffice/httputil"
)

func TestHTTPFetcher_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	site := config.DefaultSite()
	f := NewHTTPFetcher(site, srv.Client())

	body, err := f.Fetch(context.Background(), srv.URL+"/listing/1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(body) != "<html></html>" {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Get("User-Agent") != site.UserAgent {
		t.Fatalf("unexpected user agent %q", got.Get("User-Agent"))
	}
	if got.Get("Referer") != site.Referer {
		t.Fatalf("unexpected referer %q", got.Get("Referer"))
	}
	if got.Get("Accept-Language") == "" || got.Get("Accept") == "" {
		t.Fatalf("expected Accept headers, got %v", got)
	}
}

func TestHTTPFetcher_NonSuccessIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(config.DefaultSite(), srv.Client())
	if _, err := f.Fetch(context.Background(), srv.URL); !errs.Is(err, errs.KindUpstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestNewFetcher_SelectsByHandler(t *testing.T) {
	clients := httputil.NewClients(0)

	site := config.DefaultSite()
	if _, ok := NewFetcher(site, clients).(*HTTPFetcher); !ok {
		t.Fatalf("expected HTTPFetcher for http handler")
	}

	site.Handler = "browser"
	if _, ok := NewFetcher(site, clients).(*BrowserFetcher); !ok {
		t.Fatalf("expected BrowserFetcher for browser handler")
	}
}
