package models

import "time"

const (
	InquiryIDPrefix    = "inq_"
	InquiryTypeGeneral = "general"
)

// Inquiry is a contact-form submission from a site visitor.
type Inquiry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Message     string    `json:"message"`
	InquiryType string    `json:"inquiryType"`
	ListingID   string    `json:"listingId,omitempty"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InquiryInput is what a visitor submits through the contact form.
type InquiryInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Message     string `json:"message"`
	InquiryType string `json:"inquiryType,omitempty"`
	ListingID   string `json:"listingId,omitempty"`
}
