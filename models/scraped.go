package models

import "encoding/json"

// Field is one value pulled from a scraped page. Present is false when the selector
// matched nothing, which is different from matching an element with empty text.
type Field struct {
	Value   string
	Present bool
}

func Found(v string) Field {
	return Field{Value: v, Present: true}
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// ScrapedListing is the normalized record extracted from an external listing page.
type ScrapedListing struct {
	URL         string   `json:"url"`
	Address     Field    `json:"address"`
	City        Field    `json:"city"`
	State       Field    `json:"state"`
	ZipCode     Field    `json:"zipCode"`
	Price       Field    `json:"price"`
	Bedrooms    Field    `json:"bedrooms"`
	Bathrooms   Field    `json:"bathrooms"`
	SquareFeet  Field    `json:"squareFeet"`
	MLSNumber   Field    `json:"mlsNumber"`
	Description Field    `json:"description"`
	Images      []string `json:"images"`
	Missing     []string `json:"missing"`
	Warnings    []string `json:"warnings,omitempty"`
}
