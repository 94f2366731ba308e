package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/core/ports"
)

const fuzzyMatchThreshold = 0.8

// wellKnownVendors maps canonical names a recognition service commonly
// mangles. Checked by substring containment in either direction.
var wellKnownVendors = []string{
	"The Home Depot",
	"Lowe's",
	"Menards",
	"Grainger",
	"Fastenal",
	"Sherwin-Williams",
	"United Rentals",
	"Sunbelt Rentals",
	"Staples",
	"Office Depot",
	"Amazon",
	"Costco",
	"Walmart",
	"FedEx",
	"UPS",
	"Shell",
	"Chevron",
	"Exxon",
}

// VendorResolver finds or proposes a canonical vendor identity for an
// organization from a raw extracted name.
type VendorResolver struct {
	vendors ports.VendorRepository
}

func NewVendorResolver(vendors ports.VendorRepository) *VendorResolver {
	return &VendorResolver{vendors: vendors}
}

// Resolve walks exact match, fuzzy match, then the well-known list, first
// hit wins. The fuzzy pass returns the first vendor above the threshold in
// listing order, not the best-scoring one.
func (r *VendorResolver) Resolve(ctx context.Context, orgID, extractedName string, vctx domain.VendorContext) (domain.VendorMatch, error) {
	name := strings.TrimSpace(extractedName)
	if name == "" {
		return domain.VendorMatch{
			Name:       "Unknown Vendor",
			Confidence: 0,
			Kind:       domain.MatchNew,
		}, nil
	}

	existing, err := r.vendors.ListByOrganization(ctx, orgID)
	if err != nil {
		return domain.VendorMatch{}, fmt.Errorf("list vendors for matching: %w", err)
	}

	lowered := strings.ToLower(name)
	for i := range existing {
		if strings.ToLower(existing[i].Name) == lowered {
			return domain.VendorMatch{
				VendorID:   &existing[i].ID,
				Name:       existing[i].Name,
				Confidence: 1.0,
				Kind:       domain.MatchExact,
			}, nil
		}
	}

	for i := range existing {
		score := nameSimilarity(name, existing[i].Name)
		if score > fuzzyMatchThreshold {
			return domain.VendorMatch{
				VendorID:   &existing[i].ID,
				Name:       existing[i].Name,
				Confidence: score,
				Kind:       domain.MatchFuzzy,
			}, nil
		}
	}

	for _, known := range wellKnownVendors {
		knownLower := strings.ToLower(known)
		if strings.Contains(lowered, knownLower) || strings.Contains(knownLower, lowered) {
			return domain.VendorMatch{
				Name:       known,
				Confidence: 0.9,
				Kind:       domain.MatchNew,
				Phone:      vctx.Phone,
				Email:      vctx.Email,
				Address:    vctx.Address,
			}, nil
		}
	}

	return domain.VendorMatch{
		Name:       name,
		Confidence: 0.7,
		Kind:       domain.MatchNew,
		Phone:      vctx.Phone,
		Email:      vctx.Email,
		Address:    vctx.Address,
	}, nil
}

// CreateFromExtraction inserts a vendor proposed by the resolver. Returns
// nil on persistence failure instead of an error: a missing vendor row only
// degrades the document, it must not fail the pipeline.
func (r *VendorResolver) CreateFromExtraction(ctx context.Context, orgID, createdBy string, match domain.VendorMatch, vctx domain.VendorContext) *string {
	now := time.Now().UTC()
	vendor := &domain.Vendor{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           match.Name,
		Phone:          vctx.Phone,
		Email:          vctx.Email,
		Address:        vctx.Address,
		Notes:          fmt.Sprintf("created by %s from document extraction (confidence %.2f)", createdBy, match.Confidence),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := r.vendors.Create(ctx, vendor); err != nil {
		slog.Warn("vendor_create_failed",
			"organization_id", orgID,
			"vendor_name", match.Name,
			"error", err,
		)
		return nil
	}
	return &vendor.ID
}

// nameSimilarity is 1 minus the normalized edit distance between the
// lowercased names.
func nameSimilarity(a, b string) float64 {
	left := strings.ToLower(strings.TrimSpace(a))
	right := strings.ToLower(strings.TrimSpace(b))
	if left == right {
		return 1.0
	}

	longest := len([]rune(left))
	if l := len([]rune(right)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(left, right)
	return 1.0 - float64(distance)/float64(longest)
}
