package scraper

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"realty_backoffice/config"
	"realty_backoffice/errs"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

type fixtureFetcher struct {
	body  []byte
	err   error
	calls int
}

func (f *fixtureFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

func TestScrape_OneHomeListing(t *testing.T) {
	fetcher := &fixtureFetcher{body: loadFixture(t, "onehome_listing.html")}
	s := New(config.DefaultSite(), fetcher)
	if s.SiteID() != "onehome" {
		t.Fatalf("SiteID = %q", s.SiteID())
	}

	listing, err := s.Scrape(context.Background(), "https://portal.onehome.com/en-US/listing/5551234")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}

	if listing.Address.Value != "123 Main St" {
		t.Fatalf("expected address 123 Main St, got %q", listing.Address.Value)
	}
	if listing.City.Value != "Colorado Springs" {
		t.Fatalf("expected city Colorado Springs, got %q", listing.City.Value)
	}
	if listing.State.Value != "CO" {
		t.Fatalf("expected state CO, got %q", listing.State.Value)
	}
	if listing.ZipCode.Value != "80920" {
		t.Fatalf("expected zip 80920, got %q", listing.ZipCode.Value)
	}
	if listing.Price.Value != "$449,900" {
		t.Fatalf("expected price $449,900, got %q", listing.Price.Value)
	}
	if listing.Bedrooms.Value != "4" {
		t.Fatalf("expected 4 bedrooms, got %q", listing.Bedrooms.Value)
	}
	if listing.Bathrooms.Value != "2.5" {
		t.Fatalf("expected 2.5 bathrooms, got %q", listing.Bathrooms.Value)
	}
	if listing.SquareFeet.Value != "2150" {
		t.Fatalf("expected 2150 sqft, got %q", listing.SquareFeet.Value)
	}
	if listing.MLSNumber.Value != "5551234" {
		t.Fatalf("expected MLS 5551234, got %q", listing.MLSNumber.Value)
	}
	if listing.Description.Value != "Charming two-story home with mountain views." {
		t.Fatalf("unexpected description %q", listing.Description.Value)
	}
	if len(listing.Images) != 1 {
		t.Fatalf("expected 1 image, got %d: %v", len(listing.Images), listing.Images)
	}
	if listing.Images[0] != "https://cdn.onehome.example/photos/5551234_1.jpg" {
		t.Fatalf("unexpected image %s", listing.Images[0])
	}
	if len(listing.Missing) != 0 {
		t.Fatalf("expected no missing fields, got %v", listing.Missing)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected a single fetch, got %d", fetcher.calls)
	}
}

func TestParse_PartialMarkup(t *testing.T) {
	s := New(config.DefaultSite(), nil)
	base, _ := url.Parse("https://portal.onehome.com/listing/7")

	listing, err := s.Parse(bytes.NewReader(loadFixture(t, "onehome_partial.html")), base)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// Unparseable address keeps the raw string and warns.
	if !listing.Address.Present || listing.Address.Value != "Lot 7 Mesa Ridge" {
		t.Fatalf("expected raw address, got %+v", listing.Address)
	}
	if listing.City.Present {
		t.Fatalf("expected city absent")
	}

	// Empty price element is present but empty.
	if !listing.Price.Present || listing.Price.Value != "" {
		t.Fatalf("expected present empty price, got %+v", listing.Price)
	}
	if listing.Bathrooms.Present {
		t.Fatalf("expected bathrooms absent")
	}
	if !listing.Bedrooms.Present || listing.Bedrooms.Value != "" {
		t.Fatalf("expected present bedrooms without number, got %+v", listing.Bedrooms)
	}

	want := map[string]bool{"city": true, "state": true, "zipCode": true, "bathrooms": true, "squareFeet": true, "mlsNumber": true, "description": true}
	if len(listing.Missing) != len(want) {
		t.Fatalf("unexpected missing fields %v", listing.Missing)
	}
	for _, m := range listing.Missing {
		if !want[m] {
			t.Fatalf("unexpected missing field %s", m)
		}
	}
	if len(listing.Warnings) != 2 {
		t.Fatalf("expected address and bedrooms warnings, got %v", listing.Warnings)
	}

	if len(listing.Images) != 2 {
		t.Fatalf("expected 2 images, got %v", listing.Images)
	}
	if listing.Images[0] != "https://portal.onehome.com/photos/a.jpg" {
		t.Fatalf("unexpected first image %s", listing.Images[0])
	}
	if listing.Images[1] != "https://portal.onehome.com/listing/photos/b.webp" {
		t.Fatalf("unexpected second image %s", listing.Images[1])
	}
}

func TestParse_NoImagesReportsMissing(t *testing.T) {
	s := New(config.DefaultSite(), nil)

	listing, err := s.Parse(bytes.NewReader([]byte("<html><body></body></html>")), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(listing.Images) != 0 || listing.Images == nil {
		t.Fatalf("expected empty image list, got %v", listing.Images)
	}
	if len(listing.Missing) != 11 {
		t.Fatalf("expected every field missing, got %v", listing.Missing)
	}
}

func TestScrape_RejectsEmptyURL(t *testing.T) {
	fetcher := &fixtureFetcher{}
	s := New(config.DefaultSite(), fetcher)

	for _, u := range []string{"", "   ", "not a url", "ftp://example.com/x"} {
		if _, err := s.Scrape(context.Background(), u); !errs.Is(err, errs.KindInvalidInput) {
			t.Fatalf("Scrape(%q): expected InvalidInput, got %v", u, err)
		}
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetch, got %d", fetcher.calls)
	}
}

func TestScrape_PropagatesUpstreamError(t *testing.T) {
	fetcher := &fixtureFetcher{err: errs.Upstream("fetch listing page: status 503", nil)}
	s := New(config.DefaultSite(), fetcher)

	_, err := s.Scrape(context.Background(), "https://portal.onehome.com/listing/1")
	if !errs.Is(err, errs.KindUpstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$449,900", 449900, true},
		{"2.5 Baths", 2.5, true},
		{"1,234,567.89", 1234567.89, true},
		{"Call for price", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStripMLSLabel(t *testing.T) {
	tests := map[string]string{
		"MLS#: 5551234":      "5551234",
		"mls # 42":           "42",
		"MLS Number: AB-100": "AB-100",
		"7788":               "7788",
	}
	for in, want := range tests {
		if got := stripMLSLabel(in); got != want {
			t.Errorf("stripMLSLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
