// Package quote is the application layer over the pricing engine. HTTP,
// exports and email all obtain their numbers from Service.
package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/webquote/internal/bundle"
	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/export"
	"github.com/noah-isme/webquote/internal/obs"
	"github.com/noah-isme/webquote/internal/pricing"
	"github.com/noah-isme/webquote/internal/promo"
	"github.com/noah-isme/webquote/internal/selection"
)

var (
	// ErrUnknownBundle is returned when a bundle id does not resolve for the page mode.
	ErrUnknownBundle = errors.New("quote: unknown bundle")
	// ErrUnknownCategory is returned for category names outside the catalog.
	ErrUnknownCategory = errors.New("quote: unknown category")
	// ErrUnknownItem is returned when an added id is not in its category.
	ErrUnknownItem = errors.New("quote: unknown item")
)

// View is a priced selection as returned to clients.
type View struct {
	pricing.Quote
	Extras      []pricing.Line      `json:"extras"`
	Selection   selection.Selection `json:"selection"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// Service prices selections and applies wizard edits.
type Service struct {
	engine *pricing.Engine
	now    func() time.Time
}

// NewService wraps an engine. A nil engine uses the built-in catalog.
func NewService(engine *pricing.Engine) *Service {
	if engine == nil {
		engine = pricing.Default()
	}
	return &Service{engine: engine, now: time.Now}
}

// Engine exposes the underlying pricing engine.
func (s *Service) Engine() *pricing.Engine { return s.engine }

// Price computes the view of a selection and records quote metrics.
func (s *Service) Price(sel selection.Selection) View {
	q := s.engine.Compute(sel)
	tier := "none"
	if q.Bundle != nil {
		tier = string(q.Bundle.Tier)
	}
	obs.Inc(obs.QuotesComputedTotal, tier)
	obs.Observe(obs.QuoteDevelopmentCost, float64(q.Totals.OneTimeDevelopmentCost))
	extras := q.Extras()
	if extras == nil {
		extras = []pricing.Line{}
	}
	return View{Quote: q, Extras: extras, Selection: sel, GeneratedAt: s.now().UTC()}
}

// FromInput converts a flat wizard form into a tagged selection.
func (s *Service) FromInput(in selection.Input) selection.Selection {
	return in.Selection(s.engine.Bundles)
}

// Steps renders a selection in the persisted wizard layout with recomputed costs.
func (s *Service) Steps(sel selection.Selection) selection.Steps {
	q := s.engine.Compute(sel)
	return selection.ToSteps(sel, q.Cost)
}

// SwapBundle switches the active bundle. An empty id or "none" clears it. User
// choices survive the swap; bundle pre-fills are replaced.
func (s *Service) SwapBundle(sel *selection.Selection, bundleID string, mode string) error {
	if strings.TrimSpace(mode) != "" {
		sel.Mode = catalog.ParsePageMode(mode)
	}
	id := strings.TrimSpace(bundleID)
	if id == "" || strings.EqualFold(id, "none") {
		sel.ClearBundle()
		return nil
	}
	b, ok := s.engine.Bundles.Resolve(id, sel.Mode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBundle, id)
	}
	sel.ApplyBundle(b, s.engine.Bundles.Inclusions(b))
	return nil
}

// ItemEdit adds or removes ids in one category. For single-choice categories the
// last added id wins and "none" clears the choice.
type ItemEdit struct {
	Category string   `json:"category"`
	Add      []string `json:"add"`
	Remove   []string `json:"remove"`
	Store    *bool    `json:"store,omitempty"`
}

// Edit applies user changes to a selection. Added ids must exist in the catalog.
func (s *Service) Edit(sel *selection.Selection, edit ItemEdit) error {
	if edit.Store != nil {
		sel.SetStore(*edit.Store)
	}
	if strings.TrimSpace(edit.Category) == "" {
		if len(edit.Add) > 0 || len(edit.Remove) > 0 {
			return fmt.Errorf("%w: missing category", ErrUnknownCategory)
		}
		return nil
	}
	category, ok := catalog.ParseCategory(edit.Category)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, edit.Category)
	}
	for _, id := range edit.Remove {
		sel.Remove(category, id)
	}
	for _, raw := range edit.Add {
		id := strings.TrimSpace(raw)
		if !category.MultiSelect() && strings.EqualFold(id, "none") {
			for _, current := range sel.IDs(category) {
				sel.Remove(category, current)
			}
			continue
		}
		if _, ok := s.engine.Catalog.Find(category, id); !ok {
			return fmt.Errorf("%w: %s/%s", ErrUnknownItem, category, id)
		}
		sel.Add(category, id)
	}
	return nil
}

// ValidatePromo checks a code and records the outcome.
func (s *Service) ValidatePromo(code string) promo.Result {
	res := s.engine.Promo.Apply(code)
	result := "applied"
	if !res.Applied {
		result = "invalid"
		if strings.TrimSpace(code) == "" {
			result = "empty"
		}
	}
	obs.Inc(obs.PromoValidationsTotal, result)
	return res
}

// CategoryView is one catalog category as listed to clients.
type CategoryView struct {
	Category    catalog.Category `json:"category"`
	Label       string           `json:"label"`
	MultiSelect bool             `json:"multiSelect"`
	Items       []catalog.Item   `json:"items"`
}

// Catalog lists every category with its items in wizard order.
func (s *Service) Catalog() []CategoryView {
	out := make([]CategoryView, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		items := s.engine.Catalog.Items(c)
		if items == nil {
			items = []catalog.Item{}
		}
		out = append(out, CategoryView{Category: c, Label: c.Label(), MultiSelect: c.MultiSelect(), Items: items})
	}
	return out
}

// BundleView is a bundle as listed to clients, with every pre-selected item.
type BundleView struct {
	ID            string                        `json:"id"`
	BaseID        string                        `json:"baseId"`
	Name          string                        `json:"name"`
	Mode          catalog.PageMode              `json:"mode"`
	Tier          bundle.Tier                   `json:"tier"`
	Price         int64                         `json:"price"`
	IncludesStore bool                          `json:"includesStore"`
	Hosting       string                        `json:"hosting,omitempty"`
	Maintenance   string                        `json:"maintenance,omitempty"`
	Domain        string                        `json:"domain,omitempty"`
	Included      map[catalog.Category][]string `json:"included"`
}

// Bundles lists the bundles offered for a page mode, cheapest first.
func (s *Service) Bundles(mode catalog.PageMode) []BundleView {
	list := s.engine.Bundles.List(mode)
	out := make([]BundleView, 0, len(list))
	for _, b := range list {
		out = append(out, BundleView{
			ID:            b.ID,
			BaseID:        b.BaseID,
			Name:          b.Name,
			Mode:          b.Mode,
			Tier:          b.Tier,
			Price:         b.Price,
			IncludesStore: b.IncludesStore,
			Hosting:       b.Hosting,
			Maintenance:   b.Maintenance,
			Domain:        b.Domain,
			Included:      s.engine.Bundles.Inclusions(b),
		})
	}
	return out
}

// Document prepares a priced selection for export.
func (s *Service) Document(sel selection.Selection, customer, reference string) export.Document {
	v := s.Price(sel)
	return export.Document{
		Reference: reference,
		Customer:  customer,
		Date:      v.GeneratedAt,
		Quote:     v.Quote,
	}
}

// PDF renders a selection as a PDF quote.
func (s *Service) PDF(sel selection.Selection, customer, reference string) ([]byte, string, error) {
	doc := s.Document(sel, customer, reference)
	data, err := export.PDF(doc)
	recordExport("pdf", err)
	return data, doc.Filename("pdf"), err
}

// Excel renders a selection as an XLSX quote.
func (s *Service) Excel(sel selection.Selection, customer, reference string) ([]byte, string, error) {
	doc := s.Document(sel, customer, reference)
	data, err := export.Excel(doc)
	recordExport("xlsx", err)
	return data, doc.Filename("xlsx"), err
}

func recordExport(format string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.Inc(obs.ExportsTotal, format, result)
}
