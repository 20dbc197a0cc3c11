package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"realty_backoffice/config"
	"realty_backoffice/errs"
	"realty_backoffice/models"
)

// Scraper extracts a listing record from an external portal page.
type Scraper struct {
	site    *config.SiteConfig
	fetcher Fetcher
}

func New(site *config.SiteConfig, fetcher Fetcher) *Scraper {
	return &Scraper{site: site, fetcher: fetcher}
}

func (s *Scraper) SiteID() string {
	return s.site.ID
}

// Close releases a browser-backed fetcher.
func (s *Scraper) Close() {
	if c, ok := s.fetcher.(interface{ Close() }); ok {
		c.Close()
	}
}

// Scrape fetches pageURL once and parses it.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*models.ScrapedListing, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, errs.InvalidInput("URL is required")
	}
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errs.InvalidInput("invalid listing URL %q", pageURL)
	}

	log.Printf("Scraper[%s]: fetching %s", s.site.ID, pageURL)
	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	listing, err := s.Parse(bytes.NewReader(body), u)
	if err != nil {
		return nil, err
	}
	if len(listing.Missing) > 0 {
		log.Printf("Scraper[%s]: %s missing fields: %s", s.site.ID, pageURL, strings.Join(listing.Missing, ", "))
	}
	return listing, nil
}

// Parse extracts the listing fields from an HTML document. base resolves relative image URLs.
func (s *Scraper) Parse(r io.Reader, base *url.URL) (*models.ScrapedListing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errs.Upstream("parse listing page", fmt.Errorf("parse html: %w", err))
	}

	sel := s.site.Selectors
	listing := &models.ScrapedListing{}
	if base != nil {
		listing.URL = base.String()
	}

	rawAddress := extractField(doc, sel[config.SelAddress])
	listing.Address = rawAddress
	if rawAddress.Present {
		addr, err := ParseAddress(rawAddress.Value)
		if err != nil {
			listing.Warnings = append(listing.Warnings, fmt.Sprintf("address %q: %v", rawAddress.Value, err))
		} else {
			listing.Address = models.Found(addr.Street)
			listing.City = models.Found(addr.City)
			listing.State = models.Found(addr.State)
			listing.ZipCode = models.Found(addr.ZipCode)
		}
	}

	listing.Price = extractField(doc, sel[config.SelPrice])
	listing.Bedrooms = s.numeric(listing, "bedrooms", extractField(doc, sel[config.SelBedrooms]), firstNumber)
	listing.Bathrooms = s.numeric(listing, "bathrooms", extractField(doc, sel[config.SelBathrooms]), firstNumber)
	listing.SquareFeet = s.numeric(listing, "squareFeet", extractField(doc, sel[config.SelSquareFeet]), digitsOnly)

	if mls := extractField(doc, sel[config.SelMLS]); mls.Present {
		listing.MLSNumber = models.Found(stripMLSLabel(mls.Value))
	}
	listing.Description = extractField(doc, sel[config.SelDescription])

	images, found := extractImages(doc, sel[config.SelImages], s.site.ImageAttrs, s.site.PlaceholderFilter, base)
	listing.Images = images
	if listing.Images == nil {
		listing.Images = []string{}
	}

	listing.Missing = missingFields(listing, found)
	return listing, nil
}

// numeric normalizes a present field with clean, recording a warning when no digits remain.
func (s *Scraper) numeric(listing *models.ScrapedListing, name string, f models.Field, clean func(string) string) models.Field {
	if !f.Present {
		return f
	}
	v := clean(f.Value)
	if v == "" {
		listing.Warnings = append(listing.Warnings, fmt.Sprintf("%s %q: no number", name, f.Value))
	}
	return models.Found(v)
}

func missingFields(l *models.ScrapedListing, imagesFound bool) []string {
	fields := []struct {
		name string
		f    models.Field
	}{
		{"address", l.Address},
		{"city", l.City},
		{"state", l.State},
		{"zipCode", l.ZipCode},
		{"price", l.Price},
		{"bedrooms", l.Bedrooms},
		{"bathrooms", l.Bathrooms},
		{"squareFeet", l.SquareFeet},
		{"mlsNumber", l.MLSNumber},
		{"description", l.Description},
	}

	missing := []string{}
	for _, fd := range fields {
		if !fd.f.Present {
			missing = append(missing, fd.name)
		}
	}
	if !imagesFound {
		missing = append(missing, "images")
	}
	return missing
}
