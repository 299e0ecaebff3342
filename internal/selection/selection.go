package selection

import (
	"strings"

	"github.com/noah-isme/webquote/internal/bundle"
	"github.com/noah-isme/webquote/internal/catalog"
)

// Origin records why an item is part of a selection.
type Origin string

const (
	// FromBundle marks entries pre-filled by the active bundle.
	FromBundle Origin = "bundle"
	// FromUser marks entries the visitor picked explicitly.
	FromUser Origin = "user"
)

// Payment options offered by the wizard.
const (
	PaymentOneTime = "one-time"
	PaymentMonthly = "monthly"
)

// Entry is a selected item id tagged with its origin.
type Entry struct {
	ID     string `json:"id"`
	Origin Origin `json:"origin"`
}

// Empty reports whether nothing is selected.
func (e Entry) Empty() bool { return strings.TrimSpace(e.ID) == "" }

// Selection is the visitor's in-progress configuration for one quote.
type Selection struct {
	BundleID      string                       `json:"bundleId,omitempty"`
	Mode          catalog.PageMode             `json:"mode"`
	Category      string                       `json:"category,omitempty"`
	Subcategory   string                       `json:"subcategory,omitempty"`
	Items         map[catalog.Category][]Entry `json:"items,omitempty"`
	Store         bool                         `json:"store"`
	StoreOrigin   Origin                       `json:"storeOrigin,omitempty"`
	Hosting       Entry                        `json:"hosting"`
	Maintenance   Entry                        `json:"maintenance"`
	Domain        Entry                        `json:"domain"`
	PromoCode     string                       `json:"promoCode,omitempty"`
	PaymentOption string                       `json:"paymentOption,omitempty"`
}

// New returns an empty selection for a page mode.
func New(mode catalog.PageMode) Selection {
	return Selection{Mode: mode, Items: map[catalog.Category][]Entry{}}
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := s
	out.Items = make(map[catalog.Category][]Entry, len(s.Items))
	for category, entries := range s.Items {
		out.Items[category] = append([]Entry(nil), entries...)
	}
	return out
}

// Reset empties the selection while keeping the page mode.
func (s *Selection) Reset() {
	*s = New(s.Mode)
}

// IDs returns the selected ids of a category, regardless of origin.
func (s Selection) IDs(category catalog.Category) []string {
	switch category {
	case catalog.HostingTier:
		return single(s.Hosting)
	case catalog.MaintenanceTier:
		return single(s.Maintenance)
	case catalog.DomainOption:
		return single(s.Domain)
	}
	entries := s.Items[category]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

// Entries returns the tagged entries of a category.
func (s Selection) Entries(category catalog.Category) []Entry {
	switch category {
	case catalog.HostingTier:
		return singleEntry(s.Hosting)
	case catalog.MaintenanceTier:
		return singleEntry(s.Maintenance)
	case catalog.DomainOption:
		return singleEntry(s.Domain)
	}
	return append([]Entry(nil), s.Items[category]...)
}

// OriginOf reports the origin of a selected id.
func (s Selection) OriginOf(category catalog.Category, id string) (Origin, bool) {
	for _, e := range s.Entries(category) {
		if e.ID == id {
			return e.Origin, true
		}
	}
	return "", false
}

// Has reports whether an id is selected in a category.
func (s Selection) Has(category catalog.Category, id string) bool {
	_, ok := s.OriginOf(category, id)
	return ok
}

// UserExtras returns ids the visitor chose on top of the bundle.
func (s Selection) UserExtras(category catalog.Category) []string {
	var out []string
	for _, e := range s.Entries(category) {
		if e.Origin == FromUser {
			out = append(out, e.ID)
		}
	}
	return out
}

// Add selects an item as an explicit user choice. A bundle-origin entry with the
// same id is promoted to user origin so it survives a later bundle swap.
func (s *Selection) Add(category catalog.Category, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	if !category.MultiSelect() {
		s.setSingle(category, Entry{ID: id, Origin: FromUser})
		return
	}
	s.ensureItems()
	entries := s.Items[category]
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Origin = FromUser
			return
		}
	}
	s.Items[category] = append(entries, Entry{ID: id, Origin: FromUser})
}

// Remove deselects an item whatever its origin.
func (s *Selection) Remove(category catalog.Category, id string) {
	id = strings.TrimSpace(id)
	if !category.MultiSelect() {
		if current := s.single(category); current.ID == id {
			s.setSingle(category, Entry{})
		}
		return
	}
	entries := s.Items[category]
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(s.Items, category)
		return
	}
	s.Items[category] = kept
}

// Toggle flips an item in a multi-select category and reports whether it is now selected.
func (s *Selection) Toggle(category catalog.Category, id string) bool {
	if s.Has(category, id) {
		s.Remove(category, id)
		return false
	}
	s.Add(category, id)
	return true
}

// SetStore records the visitor's store choice.
func (s *Selection) SetStore(enabled bool) {
	s.Store = enabled
	s.StoreOrigin = ""
	if enabled {
		s.StoreOrigin = FromUser
	}
}

// SetHosting picks a hosting tier as a user choice; an empty id clears it.
func (s *Selection) SetHosting(id string) { s.setUserSingle(catalog.HostingTier, id) }

// SetMaintenance picks a maintenance tier as a user choice; an empty id clears it.
func (s *Selection) SetMaintenance(id string) { s.setUserSingle(catalog.MaintenanceTier, id) }

// SetDomain picks a domain option as a user choice; an empty id clears it.
func (s *Selection) SetDomain(id string) { s.setUserSingle(catalog.DomainOption, id) }

func (s *Selection) setUserSingle(category catalog.Category, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		s.setSingle(category, Entry{})
		return
	}
	s.setSingle(category, Entry{ID: id, Origin: FromUser})
}

// SetUserItems replaces a multi-select category with user choices, keeping the
// bundle origin of ids the active bundle pre-filled.
func (s *Selection) SetUserItems(category catalog.Category, ids []string) {
	if !category.MultiSelect() {
		if len(ids) == 0 {
			s.setSingle(category, Entry{})
			return
		}
		s.Add(category, ids[0])
		return
	}
	previous := map[string]Origin{}
	for _, e := range s.Items[category] {
		previous[e.ID] = e.Origin
	}
	entries := make([]Entry, 0, len(ids))
	for _, id := range normalize(ids) {
		origin := FromUser
		if o, ok := previous[id]; ok && o == FromBundle {
			origin = FromBundle
		}
		entries = append(entries, Entry{ID: id, Origin: origin})
	}
	s.ensureItems()
	if len(entries) == 0 {
		delete(s.Items, category)
		return
	}
	s.Items[category] = entries
}

// ApplyBundle swaps the active bundle. Entries pre-filled by the previous bundle are
// dropped, the new bundle's inclusions are pre-filled, and user choices persist.
func (s *Selection) ApplyBundle(b bundle.Bundle, inclusions map[catalog.Category][]string) {
	s.clearBundleEntries()
	if b.ID == "" {
		s.BundleID = ""
		return
	}
	s.BundleID = b.BaseID
	if s.BundleID == "" {
		s.BundleID = b.ID
	}
	// A page-mode variant fixes the mode so the stored base id resolves back to it.
	if b.ID != s.BundleID && b.Mode != "" {
		s.Mode = b.Mode
	}
	s.ensureItems()
	for _, category := range catalog.Categories {
		if !category.MultiSelect() {
			continue
		}
		for _, id := range inclusions[category] {
			if s.Has(category, id) {
				continue
			}
			s.Items[category] = append(s.Items[category], Entry{ID: id, Origin: FromBundle})
		}
	}
	if b.IncludesStore && !s.Store {
		s.Store = true
		s.StoreOrigin = FromBundle
	}
	s.prefillSingle(catalog.HostingTier, b.Hosting)
	s.prefillSingle(catalog.MaintenanceTier, b.Maintenance)
	s.prefillSingle(catalog.DomainOption, b.Domain)
}

// ClearBundle deselects the bundle and every entry that existed only because of it.
func (s *Selection) ClearBundle() {
	s.clearBundleEntries()
	s.BundleID = ""
}

func (s *Selection) clearBundleEntries() {
	for category, entries := range s.Items {
		kept := make([]Entry, 0, len(entries))
		for _, e := range entries {
			if e.Origin != FromBundle {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.Items, category)
			continue
		}
		s.Items[category] = kept
	}
	if s.Store && s.StoreOrigin == FromBundle {
		s.Store = false
		s.StoreOrigin = ""
	}
	for _, category := range []catalog.Category{catalog.HostingTier, catalog.MaintenanceTier, catalog.DomainOption} {
		if s.single(category).Origin == FromBundle {
			s.setSingle(category, Entry{})
		}
	}
}

func (s *Selection) prefillSingle(category catalog.Category, id string) {
	if id == "" {
		return
	}
	current := s.single(category)
	if !current.Empty() && current.Origin == FromUser {
		return
	}
	s.setSingle(category, Entry{ID: id, Origin: FromBundle})
}

func (s *Selection) single(category catalog.Category) Entry {
	switch category {
	case catalog.HostingTier:
		return s.Hosting
	case catalog.MaintenanceTier:
		return s.Maintenance
	case catalog.DomainOption:
		return s.Domain
	}
	return Entry{}
}

func (s *Selection) setSingle(category catalog.Category, e Entry) {
	switch category {
	case catalog.HostingTier:
		s.Hosting = e
	case catalog.MaintenanceTier:
		s.Maintenance = e
	case catalog.DomainOption:
		s.Domain = e
	}
}

func (s *Selection) ensureItems() {
	if s.Items == nil {
		s.Items = map[catalog.Category][]Entry{}
	}
}

func single(e Entry) []string {
	if e.Empty() {
		return nil
	}
	return []string{e.ID}
}

func singleEntry(e Entry) []Entry {
	if e.Empty() {
		return nil
	}
	return []Entry{e}
}
