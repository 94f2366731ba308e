package domain

import "time"

type Vendor struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	Address        string    `json:"address,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNew   MatchKind = "new"
)

// VendorMatch is the ephemeral outcome of identity resolution. VendorID is
// nil when no existing vendor record was matched.
type VendorMatch struct {
	VendorID   *string   `json:"vendor_id,omitempty"`
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Kind       MatchKind `json:"kind"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
}

// VendorContext carries contact details the recognition service picked up
// alongside the name, used to backfill a newly created vendor record.
type VendorContext struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}
