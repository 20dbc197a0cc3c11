package scraper

import (
	"context"
	"testing"
	"time"

	"realty_backoffice/config"
	"realty_backoffice/errs"
)

func TestNavigationTimeout(t *testing.T) {
	if got := navigationTimeout(context.Background()); got != defaultNavigationTimeout {
		t.Fatalf("no deadline: got %v, want %v", got, defaultNavigationTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if got := navigationTimeout(ctx); got <= minNavigationTimeout || got > 10*time.Second {
		t.Fatalf("10s deadline: got %v", got)
	}

	past, cancelPast := context.WithDeadline(context.Background(), time.Now().Add(-time.Minute))
	defer cancelPast()
	if got := navigationTimeout(past); got != minNavigationTimeout {
		t.Fatalf("past deadline: got %v, want %v", got, minNavigationTimeout)
	}
}

func TestBrowserFetcher_ExpiredContext(t *testing.T) {
	f := NewBrowserFetcher(config.DefaultSite())
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "https://portal.onehome.com/listing/1")
	if !errs.Is(err, errs.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if f.browser != nil {
		t.Fatal("browser was launched for a cancelled request")
	}
}
