package services

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"realty_backoffice/errs"
	"realty_backoffice/models"
	"realty_backoffice/storage"
)

const (
	MsgMissingFields = "Missing required fields"
	MsgInvalidEmail  = "Invalid email format"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InquiryService stores and manages contact-form inquiries
type InquiryService struct {
	gateway *storage.Gateway
	now     func() time.Time
}

// NewInquiryService creates a new InquiryService
func NewInquiryService(gateway *storage.Gateway) *InquiryService {
	return &InquiryService{gateway: gateway, now: time.Now}
}

// Submit validates and stores a visitor's inquiry. No session is needed.
func (s *InquiryService) Submit(ctx context.Context, in models.InquiryInput) (*models.Inquiry, error) {
	inq := &models.Inquiry{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Message:     strings.TrimSpace(in.Message),
		InquiryType: strings.TrimSpace(in.InquiryType),
		ListingID:   strings.TrimSpace(in.ListingID),
	}

	if inq.Name == "" || inq.Email == "" || inq.Message == "" {
		return nil, errs.InvalidInput(MsgMissingFields)
	}
	if !emailRegex.MatchString(inq.Email) {
		return nil, errs.InvalidInput(MsgInvalidEmail)
	}

	if inq.InquiryType == "" {
		inq.InquiryType = models.InquiryTypeGeneral
	}
	inq.ID = models.InquiryIDPrefix + uuid.NewString()
	inq.IsRead = false
	inq.CreatedAt = s.now()

	if err := s.gateway.Public().PutDocument(ctx, storage.Inquiries, inq.ID, inq); err != nil {
		return nil, err
	}

	log.Printf("Inquiries: received %s (%s)", inq.ID, inq.InquiryType)
	return inq, nil
}

// List returns every inquiry, newest first.
func (s *InquiryService) List(ctx context.Context) ([]models.Inquiry, error) {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := client.ScanDocuments(ctx, storage.Inquiries)
	if err != nil {
		return nil, err
	}

	inquiries := make([]models.Inquiry, 0, len(docs))
	for _, doc := range docs {
		var inq models.Inquiry
		if err := json.Unmarshal(doc, &inq); err != nil {
			log.Printf("Inquiries: skipping undecodable document: %v", err)
			continue
		}
		inquiries = append(inquiries, inq)
	}

	sort.SliceStable(inquiries, func(i, j int) bool {
		return inquiries[i].CreatedAt.After(inquiries[j].CreatedAt)
	})
	return inquiries, nil
}

func (s *InquiryService) Get(ctx context.Context, id string) (*models.Inquiry, error) {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return nil, err
	}

	var inq models.Inquiry
	if err := client.GetDocument(ctx, storage.Inquiries, id, &inq); err != nil {
		return nil, err
	}
	return &inq, nil
}

// MarkAsRead sets isRead. Marking an already read inquiry again is a no-op.
func (s *InquiryService) MarkAsRead(ctx context.Context, id string) error {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return err
	}
	return client.UpdateAttributes(ctx, storage.Inquiries, id, map[string]any{"isRead": true})
}

// Delete removes an inquiry whether or not it exists.
func (s *InquiryService) Delete(ctx context.Context, id string) error {
	client, err := s.gateway.Admin(ctx)
	if err != nil {
		return err
	}
	return client.DeleteDocument(ctx, storage.Inquiries, id)
}

func (s *InquiryService) UnreadCount(ctx context.Context) (int, error) {
	inquiries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, inq := range inquiries {
		if !inq.IsRead {
			n++
		}
	}
	return n, nil
}
