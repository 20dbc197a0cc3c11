package services

import (
	"context"
	"strings"

	"realty_backoffice/identity"
	"realty_backoffice/models"
)

// MatchService finds listings that already describe the same property
type MatchService struct {
	listings *ListingService
}

// NewMatchService creates a new MatchService
func NewMatchService(listings *ListingService) *MatchService {
	return &MatchService{listings: listings}
}

// FindDuplicate returns the first stored listing with the same MLS number or the same
// address fingerprint, or nil when there is none.
func (s *MatchService) FindDuplicate(ctx context.Context, mlsNumber, fingerprint string) (*models.Listing, error) {
	mlsNumber = strings.TrimSpace(mlsNumber)
	if mlsNumber == "" && fingerprint == "" {
		return nil, nil
	}

	all, err := s.listings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range all {
		l := &all[i]
		if mlsNumber != "" && strings.EqualFold(l.MLSNumber, mlsNumber) {
			return l, nil
		}
		if fingerprint != "" && identity.ListingFingerprint(l) == fingerprint {
			return l, nil
		}
	}
	return nil, nil
}
