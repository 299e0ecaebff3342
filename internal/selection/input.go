package selection

import (
	"strings"

	"github.com/noah-isme/webquote/internal/bundle"
	"github.com/noah-isme/webquote/internal/catalog"
)

// Input is the flat form the wizard submits. Multi-value fields accept arrays or
// comma-joined strings.
type Input struct {
	BundleID      string `json:"bundleId"`
	WebsiteType   string `json:"websiteType"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	Sections      IDList `json:"sections"`
	Addons        IDList `json:"addons"`
	Backend       IDList `json:"backend"`
	AI            IDList `json:"ai"`
	Automation    IDList `json:"automation"`
	StoreOptions  IDList `json:"storeOptions"`
	StoreAddon    bool   `json:"storeAddon"`
	Hosting       string `json:"hosting"`
	Maintenance   string `json:"maintenance"`
	Domain        string `json:"domain"`
	PromoCode     string `json:"promoCode"`
	PaymentOption string `json:"paymentOption"`
}

// Selection converts the form into a tagged selection. Bundle inclusions are
// pre-filled first; listed ids the bundle does not cover become user entries.
func (in Input) Selection(resolver *bundle.Resolver) Selection {
	sel := New(catalog.ParsePageMode(in.WebsiteType))
	sel.Category = strings.TrimSpace(in.Category)
	sel.Subcategory = strings.TrimSpace(in.Subcategory)
	sel.PromoCode = strings.TrimSpace(in.PromoCode)
	sel.PaymentOption = strings.TrimSpace(in.PaymentOption)

	if b, ok := resolver.Resolve(in.BundleID, sel.Mode); ok {
		sel.ApplyBundle(b, resolver.Inclusions(b))
	}

	lists := map[catalog.Category]IDList{
		catalog.Section:           in.Sections,
		catalog.Addon:             in.Addons,
		catalog.BackendOption:     in.Backend,
		catalog.AiFeature:         in.AI,
		catalog.AutomationFeature: in.Automation,
		catalog.StoreOption:       in.StoreOptions,
	}
	for category, ids := range lists {
		for _, id := range ids {
			if !sel.Has(category, id) {
				sel.Add(category, id)
			}
		}
	}
	if in.StoreAddon && !sel.Store {
		sel.SetStore(true)
	}
	sel.chooseSingle(catalog.HostingTier, in.Hosting)
	sel.chooseSingle(catalog.MaintenanceTier, in.Maintenance)
	sel.chooseSingle(catalog.DomainOption, in.Domain)
	return sel
}

// chooseSingle applies a tier choice from the form. "none" clears the tier; the id
// already pre-filled by the bundle keeps its bundle origin.
func (s *Selection) chooseSingle(category catalog.Category, id string) {
	id = strings.TrimSpace(id)
	switch strings.ToLower(id) {
	case "":
		return
	case "none":
		s.setSingle(category, Entry{})
		return
	}
	if s.single(category).ID == id {
		return
	}
	s.setSingle(category, Entry{ID: id, Origin: FromUser})
}
