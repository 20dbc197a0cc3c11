package models

import (
	"strings"
	"time"
)

// Listing status
const (
	ListingStatusActive  = "active"
	ListingStatusPending = "pending"
	ListingStatusSold    = "sold"
)

// Listing is a property record shown in the public catalog.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	ZipCode     string    `json:"zipCode"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   float64   `json:"bathrooms"`
	SquareFeet  int       `json:"squareFeet"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Status      string    `json:"status"`
	ExternalURL string    `json:"externalUrl,omitempty"`
	MLSNumber   string    `json:"mlsNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Publishable reports whether the listing may appear in the public catalog.
func (l *Listing) Publishable() bool {
	return len(l.Images) > 0
}

// ListingInput carries the administrator-editable fields of a listing.
type ListingInput struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	ZipCode     string   `json:"zipCode"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   float64  `json:"bathrooms"`
	SquareFeet  int      `json:"squareFeet"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Status      string   `json:"status"`
	ExternalURL string   `json:"externalUrl,omitempty"`
	MLSNumber   string   `json:"mlsNumber,omitempty"`

	// Raw cover image uploaded instead of a URL. Uploaded to blob storage first and
	// placed at the cover position of Images.
	CoverImage     []byte `json:"-"`
	CoverImageName string `json:"-"`
	CoverImageType string `json:"-"`
}

// ValidStatus reports whether s is one of the listing statuses.
func ValidStatus(s string) bool {
	switch s {
	case ListingStatusActive, ListingStatusPending, ListingStatusSold:
		return true
	}
	return false
}

// ListingFilter narrows a public catalog scan. Zero values mean "no constraint".
type ListingFilter struct {
	Status   string
	City     string
	MinPrice float64
	MaxPrice float64
	Limit    int
	Offset   int
}

func (f ListingFilter) Match(l *Listing) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.City != "" && !strings.EqualFold(l.City, f.City) {
		return false
	}
	if f.MinPrice > 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.Price > f.MaxPrice {
		return false
	}
	return true
}
