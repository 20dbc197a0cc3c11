package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"realty_backoffice/errs"
	"realty_backoffice/identity"
	"realty_backoffice/models"
	"realty_backoffice/scraper"
)

// ListingScraper extracts a listing record from an external page.
type ListingScraper interface {
	Scrape(ctx context.Context, url string) (*models.ScrapedListing, error)
}

// ImageImporter re-hosts remote images, falling back to the original URL per image.
type ImageImporter interface {
	ImportImages(ctx context.Context, urls []string) []string
}

// ImportRequest asks for an external listing page to be imported.
type ImportRequest struct {
	URL            string `json:"url"`
	Title          string `json:"title,omitempty"`
	Status         string `json:"status,omitempty"`
	AllowDuplicate bool   `json:"allowDuplicate,omitempty"`
}

// RefreshResult summarizes one refresh pass over imported listings.
type RefreshResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ImportService turns external listing pages into stored listings
type ImportService struct {
	scraper  ListingScraper
	media    ImageImporter
	listings *ListingService
	match    *MatchService
}

// NewImportService creates a new ImportService
func NewImportService(scraper ListingScraper, media ImageImporter, listings *ListingService, match *MatchService) *ImportService {
	return &ImportService{
		scraper:  scraper,
		media:    media,
		listings: listings,
		match:    match,
	}
}

// Import scrapes req.URL, re-hosts its images and creates a listing from the result.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*models.Listing, error) {
	if _, err := s.listings.gateway.Admin(ctx); err != nil {
		return nil, err
	}

	scraped, err := s.scraper.Scrape(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	var missing []string
	if !scraped.Address.Present || scraped.Address.Value == "" {
		missing = append(missing, "address")
	}
	if !scraped.Price.Present || scraped.Price.Value == "" {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return nil, errs.InvalidInput("listing page is missing required fields: %s", strings.Join(missing, ", "))
	}

	price, ok := scraper.ParseNumber(scraped.Price.Value)
	if !ok {
		return nil, errs.InvalidInput("listing page has an unreadable price %q", scraped.Price.Value)
	}

	if !req.AllowDuplicate {
		dup, err := s.match.FindDuplicate(ctx, scraped.MLSNumber.Value, identity.ScrapedFingerprint(scraped))
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, errs.Conflict("listing already imported as %s", dup.ID)
		}
	}

	images := s.media.ImportImages(ctx, scraped.Images)

	in := models.ListingInput{
		Title:       strings.TrimSpace(req.Title),
		Price:       price,
		Address:     scraped.Address.Value,
		City:        scraped.City.Value,
		State:       scraped.State.Value,
		ZipCode:     scraped.ZipCode.Value,
		Bedrooms:    int(numberOrZero(scraped.Bedrooms)),
		Bathrooms:   numberOrZero(scraped.Bathrooms),
		SquareFeet:  int(numberOrZero(scraped.SquareFeet)),
		Description: scraped.Description.Value,
		Images:      images,
		Status:      req.Status,
		ExternalURL: scraped.URL,
		MLSNumber:   scraped.MLSNumber.Value,
	}
	if in.Title == "" {
		in.Title = scraped.Address.Value
	}
	if in.ExternalURL == "" {
		in.ExternalURL = req.URL
	}

	listing, err := s.listings.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	log.Printf("Import: %s -> listing %s (%d images)", req.URL, listing.ID, len(images))
	return listing, nil
}

// Refresh re-scrapes every listing that came from an external page and updates its facts.
// Images are left alone. A listing that fails is counted and skipped.
func (s *ImportService) Refresh(ctx context.Context) (*RefreshResult, error) {
	listings, err := s.listings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{}
	for i := range listings {
		l := &listings[i]
		if l.ExternalURL == "" {
			continue
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result.Checked++
		changed, err := s.refreshOne(ctx, l)
		if err != nil {
			result.Failed++
			log.Printf("Refresh: %s (%s) failed: %v", l.ID, l.ExternalURL, err)
			continue
		}
		if changed {
			result.Updated++
		}
	}

	log.Printf("Refresh: checked %d, updated %d, failed %d", result.Checked, result.Updated, result.Failed)
	return result, nil
}

func (s *ImportService) refreshOne(ctx context.Context, l *models.Listing) (bool, error) {
	scraped, err := s.scraper.Scrape(ctx, l.ExternalURL)
	if err != nil {
		return false, err
	}

	attrs := map[string]any{}
	if price, ok := numberOf(scraped.Price); ok && price != l.Price {
		attrs["price"] = price
	}
	if beds, ok := numberOf(scraped.Bedrooms); ok && int(beds) != l.Bedrooms {
		attrs["bedrooms"] = int(beds)
	}
	if baths, ok := numberOf(scraped.Bathrooms); ok && baths != l.Bathrooms {
		attrs["bathrooms"] = baths
	}
	if sqft, ok := numberOf(scraped.SquareFeet); ok && int(sqft) != l.SquareFeet {
		attrs["squareFeet"] = int(sqft)
	}
	if d := scraped.Description; d.Present && d.Value != "" && d.Value != l.Description {
		attrs["description"] = d.Value
	}
	if m := scraped.MLSNumber; m.Present && m.Value != "" && m.Value != l.MLSNumber {
		attrs["mlsNumber"] = m.Value
	}

	if len(attrs) == 0 {
		return false, nil
	}
	if err := s.listings.Patch(ctx, l.ID, attrs); err != nil {
		return false, fmt.Errorf("update listing: %w", err)
	}
	return true, nil
}

func numberOf(f models.Field) (float64, bool) {
	if !f.Present {
		return 0, false
	}
	return scraper.ParseNumber(f.Value)
}

func numberOrZero(f models.Field) float64 {
	n, _ := numberOf(f)
	return n
}
