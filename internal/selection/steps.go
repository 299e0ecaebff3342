package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/webquote/internal/catalog"
)

// Wizard step numbers as stored by the browser.
const (
	StepWebsiteType   = 1
	StepCategory      = 2
	StepBundle        = 3
	StepSubcategory   = 4
	StepBackend       = 5
	StepAI            = 6
	StepAutomation    = 7
	StepStore         = 8
	StepSections      = 9
	StepAddons        = 10
	StepHosting       = 11
	StepMaintenance   = 12
	StepPaymentOption = 13
	StepDomain        = 14
	StepPromo         = 15
)

var stepCategories = map[int]catalog.Category{
	StepBackend:     catalog.BackendOption,
	StepAI:          catalog.AiFeature,
	StepAutomation:  catalog.AutomationFeature,
	StepStore:       catalog.StoreOption,
	StepSections:    catalog.Section,
	StepAddons:      catalog.Addon,
	StepHosting:     catalog.HostingTier,
	StepMaintenance: catalog.MaintenanceTier,
	StepDomain:      catalog.DomainOption,
}

// StepForCategory returns the wizard step that governs a category.
func StepForCategory(category catalog.Category) int {
	for step, c := range stepCategories {
		if c == category {
			return step
		}
	}
	return 0
}

// StepKey is the storage key of a step.
func StepKey(step int) string {
	return "step" + strconv.Itoa(step)
}

// BundleFlag decodes the includedInBundle marker, which older sessions stored as a
// boolean for the whole step and newer ones as the list of included ids.
type BundleFlag struct {
	All bool
	IDs []string
}

// Covers reports whether an id was recorded as bundle-included.
func (f BundleFlag) Covers(id string) bool {
	if f.All {
		return true
	}
	for _, v := range f.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// MarshalJSON implements json.Marshaler.
func (f BundleFlag) MarshalJSON() ([]byte, error) {
	if f.All {
		return []byte("true"), nil
	}
	if len(f.IDs) == 0 {
		return []byte("false"), nil
	}
	return json.Marshal(f.IDs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *BundleFlag) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")), bytes.Equal(trimmed, []byte("false")):
		*f = BundleFlag{}
	case bytes.Equal(trimmed, []byte("true")):
		*f = BundleFlag{All: true}
	default:
		var ids IDList
		if err := ids.UnmarshalJSON(trimmed); err != nil {
			return fmt.Errorf("includedInBundle: %w", err)
		}
		*f = BundleFlag{IDs: ids}
	}
	return nil
}

// StepRecord is one entry of the persisted wizard state.
type StepRecord struct {
	Step             int           `json:"step"`
	Name             string        `json:"name"`
	Value            string        `json:"value,omitempty"`
	ID               string        `json:"id,omitempty"`
	Items            IDList        `json:"items,omitempty"`
	Cost             catalog.Money `json:"cost"`
	Monthly          catalog.Money `json:"monthly,omitempty"`
	IncludedInBundle BundleFlag    `json:"includedInBundle"`
}

// Steps is the persisted wizard state keyed by step key.
type Steps map[string]StepRecord

// FromSteps rebuilds a selection from persisted wizard state. Recorded costs are
// ignored: totals are always recomputed from the selection.
func FromSteps(steps Steps) Selection {
	sel := New(catalog.ParsePageMode(steps.value(StepWebsiteType)))
	sel.Category = steps.value(StepCategory)
	sel.Subcategory = steps.value(StepSubcategory)
	sel.PaymentOption = steps.value(StepPaymentOption)
	sel.PromoCode = steps.value(StepPromo)

	if rec, ok := steps.get(StepBundle); ok {
		sel.BundleID = firstNonEmpty(rec.ID, rec.Value)
		if strings.EqualFold(sel.BundleID, "none") {
			sel.BundleID = ""
		}
	}
	for step, category := range stepCategories {
		rec, ok := steps.get(step)
		if !ok {
			continue
		}
		origin := func(id string) Origin {
			if sel.BundleID != "" && rec.IncludedInBundle.Covers(id) {
				return FromBundle
			}
			return FromUser
		}
		if !category.MultiSelect() {
			id := firstNonEmpty(rec.ID, rec.Value)
			if id == "" || strings.EqualFold(id, "none") {
				continue
			}
			sel.setSingle(category, Entry{ID: id, Origin: origin(id)})
			continue
		}
		ids := rec.Items
		if len(ids) == 0 && rec.ID != "" {
			ids = ParseIDs(rec.ID)
		}
		for _, id := range ids {
			sel.Items[category] = append(sel.Items[category], Entry{ID: id, Origin: origin(id)})
		}
		if category == catalog.StoreOption && parseYes(rec.Value) {
			sel.Store = true
			sel.StoreOrigin = FromUser
		}
	}
	return sel
}

// StepCost reports the recomputed one-time and monthly cost of a category.
type StepCost func(category catalog.Category) (oneTime, monthly catalog.Money)

// ToSteps writes the selection in the persisted wizard layout.
func ToSteps(sel Selection, cost StepCost) Steps {
	steps := Steps{}
	put := func(rec StepRecord) { steps[StepKey(rec.Step)] = rec }

	put(StepRecord{Step: StepWebsiteType, Name: "Website type", Value: string(sel.Mode)})
	if sel.Category != "" {
		put(StepRecord{Step: StepCategory, Name: "Category", Value: sel.Category})
	}
	if sel.BundleID != "" {
		put(StepRecord{Step: StepBundle, Name: "Bundle", ID: sel.BundleID, Value: sel.BundleID})
	}
	if sel.Subcategory != "" {
		put(StepRecord{Step: StepSubcategory, Name: "Subcategory", Value: sel.Subcategory})
	}
	for step, category := range stepCategories {
		entries := sel.Entries(category)
		if len(entries) == 0 && !(category == catalog.StoreOption && sel.Store) {
			continue
		}
		rec := StepRecord{Step: step, Name: category.Label()}
		var included []string
		for _, e := range entries {
			if e.Origin == FromBundle {
				included = append(included, e.ID)
			}
		}
		rec.IncludedInBundle = BundleFlag{IDs: included}
		if category.MultiSelect() {
			rec.Items = sel.IDs(category)
		} else if len(entries) > 0 {
			rec.ID = entries[0].ID
			rec.Value = entries[0].ID
		}
		if category == catalog.StoreOption && sel.Store {
			rec.Value = "yes"
		}
		if cost != nil {
			rec.Cost, rec.Monthly = cost(category)
		}
		put(rec)
	}
	if sel.PaymentOption != "" {
		put(StepRecord{Step: StepPaymentOption, Name: "Payment option", Value: sel.PaymentOption})
	}
	if sel.PromoCode != "" {
		put(StepRecord{Step: StepPromo, Name: "Promo code", Value: sel.PromoCode})
	}
	return steps
}

func (s Steps) get(step int) (StepRecord, bool) {
	rec, ok := s[StepKey(step)]
	return rec, ok
}

func (s Steps) value(step int) string {
	rec, ok := s.get(step)
	if !ok {
		return ""
	}
	return strings.TrimSpace(firstNonEmpty(rec.Value, rec.ID))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func parseYes(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}
