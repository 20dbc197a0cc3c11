package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"realty_backoffice/errs"
	"realty_backoffice/models"
	"realty_backoffice/storage"
)

// ImageStore is the blob storage the listing service manages cover images in.
type ImageStore interface {
	ImageUploader
	DeleteImage(ctx context.Context, path string) error
	PathFromURL(url string) (string, bool)
}

// ListingService manages listing documents
type ListingService struct {
	gateway *storage.Gateway
	images  ImageStore
	now     func() time.Time
}

// NewListingService creates a new ListingService
func NewListingService(gateway *storage.Gateway, images ImageStore) *ListingService {
	return &ListingService{
		gateway: gateway,
		images:  images,
		now:     time.Now,
	}
}

// List returns publishable listings matching filter, newest first.
func (s *ListingService) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	all, err := s.scan(ctx, s.gateway.Public())
	if err != nil {
		return nil, err
	}

	listings := []models.Listing{}
	for i := range all {
		if all[i].Publishable() && filter.Match(&all[i]) {
			listings = append(listings, all[i])
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(listings) {
			return []models.Listing{}, nil
		}
		listings = listings[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(listings) {
		listings = listings[:filter.Limit]
	}
	return listings, nil
}

// ListAll returns every listing, publishable or not, newest first.
func (s *ListingService) ListAll(ctx context.Context) ([]models.Listing, error) {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, client)
}

func (s *ListingService) scan(ctx context.Context, client *storage.Client) ([]models.Listing, error) {
	docs, err := client.ScanDocuments(ctx, storage.Listings)
	if err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(docs))
	for _, doc := range docs {
		var l models.Listing
		if err := json.Unmarshal(doc, &l); err != nil {
			log.Printf("Listings: skipping undecodable document: %v", err)
			continue
		}
		listings = append(listings, l)
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

// Get returns one listing. Without an admin session only publishable listings are visible.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	client, admin := s.client(ctx)

	var l models.Listing
	if err := client.GetDocument(ctx, storage.Listings, id, &l); err != nil {
		return nil, err
	}
	if !admin && !l.Publishable() {
		return nil, errs.NotFound("listings %s not found", id)
	}
	return &l, nil
}

func (s *ListingService) client(ctx context.Context) (*storage.Client, bool) {
	if client, err := s.gateway.Admin(ctx); err == nil {
		return client, true
	}
	return s.gateway.Public(), false
}

// Create stores a new listing with a generated id.
func (s *ListingService) Create(ctx context.Context, in models.ListingInput) (*models.Listing, error) {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateListing(&in); err != nil {
		return nil, err
	}

	now := s.now()
	l := &models.Listing{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	applyInput(l, &in)
	l.UpdatedAt = now

	if err := s.attachCover(ctx, l, &in); err != nil {
		return nil, err
	}
	if err := client.PutDocument(ctx, storage.Listings, l.ID, l); err != nil {
		return nil, err
	}

	log.Printf("Listings: created %s (%s)", l.ID, l.Address)
	return l, nil
}

// Update replaces the editable fields of an existing listing.
func (s *ListingService) Update(ctx context.Context, id string, in models.ListingInput) (*models.Listing, error) {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateListing(&in); err != nil {
		return nil, err
	}

	var l models.Listing
	if err := client.GetDocument(ctx, storage.Listings, id, &l); err != nil {
		return nil, err
	}

	applyInput(&l, &in)
	l.UpdatedAt = s.now()

	if err := s.attachCover(ctx, &l, &in); err != nil {
		return nil, err
	}
	if err := client.PutDocument(ctx, storage.Listings, l.ID, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// SetCover uploads an image and makes it the listing's cover.
func (s *ListingService) SetCover(ctx context.Context, id string, data []byte, name, contentType string) (*models.Listing, error) {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errs.InvalidInput("image is required")
	}

	var l models.Listing
	if err := client.GetDocument(ctx, storage.Listings, id, &l); err != nil {
		return nil, err
	}

	in := models.ListingInput{CoverImage: data, CoverImageName: name, CoverImageType: contentType}
	if err := s.attachCover(ctx, &l, &in); err != nil {
		return nil, err
	}
	l.UpdatedAt = s.now()

	if err := client.UpdateAttributes(ctx, storage.Listings, id, map[string]any{
		"images":    l.Images,
		"updatedAt": l.UpdatedAt,
	}); err != nil {
		return nil, err
	}
	return &l, nil
}

// Patch sets individual listing attributes and bumps updatedAt.
func (s *ListingService) Patch(ctx context.Context, id string, attrs map[string]any) error {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return err
	}
	attrs["updatedAt"] = s.now()
	return client.UpdateAttributes(ctx, storage.Listings, id, attrs)
}

// Delete removes the listing and, best effort, the images we host for it.
func (s *ListingService) Delete(ctx context.Context, id string) error {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return err
	}

	var l models.Listing
	getErr := client.GetDocument(ctx, storage.Listings, id, &l)
	if getErr != nil && !errs.Is(getErr, errs.KindNotFound) {
		return getErr
	}

	if err := client.DeleteDocument(ctx, storage.Listings, id); err != nil {
		return err
	}

	if getErr == nil {
		s.deleteHostedImages(ctx, &l)
		log.Printf("Listings: deleted %s", id)
	}
	return nil
}

func (s *ListingService) deleteHostedImages(ctx context.Context, l *models.Listing) {
	if s.images == nil {
		return
	}
	for _, img := range l.Images {
		path, ok := s.images.PathFromURL(img)
		if !ok {
			continue
		}
		if err := s.images.DeleteImage(ctx, path); err != nil {
			log.Printf("Listings: failed to delete image %s of %s: %v", path, l.ID, err)
		}
	}
}

func (s *ListingService) attachCover(ctx context.Context, l *models.Listing, in *models.ListingInput) error {
	if len(in.CoverImage) == 0 {
		return nil
	}
	if s.images == nil {
		return errs.Storage("upload cover image", fmt.Errorf("blob storage not configured"))
	}

	path := ""
	if name := safeFileName(in.CoverImageName); name != "" {
		path = fmt.Sprintf("listings/%s/%d-%s", l.ID, s.now().UnixMilli(), name)
	}

	url, err := s.images.UploadImage(ctx, in.CoverImage, path, in.CoverImageType)
	if err != nil {
		return err
	}

	images := make([]string, 0, len(l.Images)+1)
	images = append(images, url)
	for _, img := range l.Images {
		if img != url {
			images = append(images, img)
		}
	}
	l.Images = images
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Trim(unsafeFileChars.ReplaceAllString(name, "-"), "-")
}

func validateListing(in *models.ListingInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Address = strings.TrimSpace(in.Address)
	if in.Status == "" {
		in.Status = models.ListingStatusActive
	}

	if in.Title == "" {
		return errs.InvalidInput("title is required")
	}
	if !models.ValidStatus(in.Status) {
		return errs.InvalidInput("invalid status %q", in.Status)
	}
	if in.Price < 0 || in.Bedrooms < 0 || in.Bathrooms < 0 || in.SquareFeet < 0 {
		return errs.InvalidInput("numeric fields must not be negative")
	}
	return nil
}

func applyInput(l *models.Listing, in *models.ListingInput) {
	l.Title = in.Title
	l.Price = in.Price
	l.Address = in.Address
	l.City = strings.TrimSpace(in.City)
	l.State = strings.TrimSpace(in.State)
	l.ZipCode = strings.TrimSpace(in.ZipCode)
	l.Bedrooms = in.Bedrooms
	l.Bathrooms = in.Bathrooms
	l.SquareFeet = in.SquareFeet
	l.Description = in.Description
	l.Status = in.Status
	l.ExternalURL = in.ExternalURL
	l.MLSNumber = strings.TrimSpace(in.MLSNumber)

	l.Images = []string{}
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			l.Images = append(l.Images, img)
		}
	}
}
