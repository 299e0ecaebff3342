package bundle

import (
	"sort"
	"strings"

	"github.com/noah-isme/webquote/internal/catalog"
)

// Tier groups bundles by price level. Budget bundles follow their own payment policy.
type Tier string

const (
	TierBudget       Tier = "budget"
	TierStarter      Tier = "starter"
	TierProfessional Tier = "professional"
	TierPremium      Tier = "premium"
)

// Bundle is a fixed-price package that pre-selects items across categories.
type Bundle struct {
	ID            string
	BaseID        string
	Name          string
	Mode          catalog.PageMode
	Tier          Tier
	Price         catalog.Money
	Included      map[catalog.Category][]string
	Hosting       string
	Maintenance   string
	Domain        string
	IncludesStore bool
}

// IsBudget reports whether the bundle belongs to the budget tier.
func (b Bundle) IsBudget() bool {
	return b.Tier == TierBudget
}

// Resolver resolves bundle ids against the fixed bundle table.
type Resolver struct {
	bundles map[string]Bundle
	budget  map[string]map[catalog.Category][]string
}

// NewResolver builds a resolver from bundle definitions and the budget feature lists keyed by base id.
func NewResolver(bundles []Bundle, budgetFeatures map[string]map[catalog.Category][]string) *Resolver {
	r := &Resolver{
		bundles: make(map[string]Bundle, len(bundles)),
		budget:  budgetFeatures,
	}
	for _, b := range bundles {
		r.bundles[b.ID] = b
	}
	return r
}

// Resolve looks up the page-mode specific id first and falls back to the bare id.
// An unknown or empty id resolves to no bundle.
func (r *Resolver) Resolve(bundleID string, mode catalog.PageMode) (Bundle, bool) {
	id := strings.ToLower(strings.TrimSpace(bundleID))
	if r == nil || id == "" {
		return Bundle{}, false
	}
	if b, ok := r.bundles[id+mode.Suffix()]; ok {
		return b, true
	}
	b, ok := r.bundles[id]
	return b, ok
}

// IsIncluded reports whether the bundle waives the cost of an item.
func (r *Resolver) IsIncluded(b Bundle, category catalog.Category, itemID string) bool {
	if b.ID == "" || itemID == "" {
		return false
	}
	switch category {
	case catalog.HostingTier:
		if b.Hosting != "" && b.Hosting == itemID {
			return true
		}
	case catalog.MaintenanceTier:
		if b.Maintenance != "" && b.Maintenance == itemID {
			return true
		}
	case catalog.DomainOption:
		if b.Domain != "" && b.Domain == itemID {
			return true
		}
	}
	if contains(b.Included[category], itemID) {
		return true
	}
	if !b.IsBudget() {
		return false
	}
	if category == catalog.Section {
		return true
	}
	if r == nil {
		return false
	}
	return contains(r.budget[b.BaseID][category], itemID)
}

// IsBudgetTier reports whether the id, with or without a page-mode suffix, names a budget bundle.
func (r *Resolver) IsBudgetTier(bundleID string) bool {
	for _, mode := range []catalog.PageMode{catalog.SinglePage, catalog.MultiPage} {
		if b, ok := r.Resolve(bundleID, mode); ok {
			return b.IsBudget()
		}
	}
	return false
}

// Inclusions returns every item a bundle pre-selects, budget feature lists included.
func (r *Resolver) Inclusions(b Bundle) map[catalog.Category][]string {
	out := make(map[catalog.Category][]string, len(b.Included))
	for category, ids := range b.Included {
		out[category] = append(out[category], ids...)
	}
	if b.IsBudget() && r != nil {
		for category, ids := range r.budget[b.BaseID] {
			for _, id := range ids {
				if !contains(out[category], id) {
					out[category] = append(out[category], id)
				}
			}
		}
	}
	return out
}

// List returns the bundles offered for a page mode sorted by price.
func (r *Resolver) List(mode catalog.PageMode) []Bundle {
	if r == nil {
		return nil
	}
	out := make([]Bundle, 0, len(r.bundles))
	for _, b := range r.bundles {
		if b.Mode == mode {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price == out[j].Price {
			return out[i].ID < out[j].ID
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// BaseID strips a page-mode suffix from a bundle id.
func BaseID(bundleID string) string {
	id := strings.ToLower(strings.TrimSpace(bundleID))
	for _, suffix := range []string{catalog.SinglePage.Suffix(), catalog.MultiPage.Suffix()} {
		if strings.HasSuffix(id, suffix) {
			return strings.TrimSuffix(id, suffix)
		}
	}
	return id
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
