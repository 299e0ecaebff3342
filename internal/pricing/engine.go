package pricing

import (
	"strings"

	"github.com/noah-isme/webquote/internal/bundle"
	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/promo"
	"github.com/noah-isme/webquote/internal/selection"
)

// Money represents a whole-currency amount.
type Money = catalog.Money

const (
	// DefaultDepositPercent is the share of the development cost due upfront on the monthly plan.
	DefaultDepositPercent = 20
	// InstallmentMonths is the length of the monthly plan.
	InstallmentMonths = 12
)

// StoreLineID identifies the flat store line among store option lines.
const StoreLineID = "store"

// itemized categories priced one-time from the catalog.
var itemized = []catalog.Category{
	catalog.BackendOption,
	catalog.AiFeature,
	catalog.AutomationFeature,
	catalog.Section,
	catalog.Addon,
}

// Line is one priced entry of a quote, already resolved for display.
type Line struct {
	Category catalog.Category `json:"category"`
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	OneTime  Money            `json:"oneTime"`
	Monthly  Money            `json:"monthly"`
	Yearly   Money            `json:"yearly"`
	Included bool             `json:"includedInBundle"`
	Origin   selection.Origin `json:"origin,omitempty"`
}

// CategoryCost sums the lines of one category.
type CategoryCost struct {
	Category catalog.Category `json:"category"`
	Label    string           `json:"label"`
	OneTime  Money            `json:"oneTime"`
	Monthly  Money            `json:"monthly"`
	Yearly   Money            `json:"yearly"`
}

// Totals are the derived quote figures. They are recomputed from the selection on
// every read and never stored.
type Totals struct {
	BaseCost                  Money `json:"baseCost"`
	StoreCost                 Money `json:"storeCost"`
	OneTimeDevelopmentCost    Money `json:"oneTimeDevelopmentCost"`
	TotalMonthlyCost          Money `json:"totalMonthlyCost"`
	DomainYearlyCost          Money `json:"domainYearlyCost"`
	FirstYearTotal            Money `json:"firstYearTotal"`
	StarterFeeAmount          Money `json:"starterFeeAmount"`
	MonthlyInstallmentAmount  Money `json:"monthlyInstallmentAmount"`
	DiscountAmount            Money `json:"discountAmount"`
	DiscountedDevelopmentCost Money `json:"discountedDevelopmentCost"`
	DiscountedFirstYearTotal  Money `json:"discountedFirstYearTotal"`
}

// Plan describes the payment options offered for a quote.
type Plan struct {
	Option               string `json:"paymentOption"`
	MonthlyPlanAvailable bool   `json:"monthlyPlanAvailable"`
	DepositPercent       int    `json:"depositPercent"`
	Months               int    `json:"months"`
	StarterFee           Money  `json:"starterFee"`
	Installment          Money  `json:"installment"`
}

// BundleInfo summarizes the resolved bundle.
type BundleInfo struct {
	ID     string      `json:"id"`
	BaseID string      `json:"baseId"`
	Name   string      `json:"name"`
	Tier   bundle.Tier `json:"tier"`
	Price  Money       `json:"price"`
}

// Quote is the full result of pricing a selection.
type Quote struct {
	Mode       catalog.PageMode `json:"mode"`
	Bundle     *BundleInfo      `json:"bundle,omitempty"`
	Budget     bool             `json:"budget"`
	Totals     Totals           `json:"totals"`
	Plan       Plan             `json:"plan"`
	Promo      *promo.Result    `json:"promo,omitempty"`
	Lines      []Line           `json:"lines"`
	Categories []CategoryCost   `json:"categories"`
}

// Engine prices selections. The zero value works with an empty catalog, no
// bundles and no accepted promo codes.
type Engine struct {
	Catalog        *catalog.Catalog
	Bundles        *bundle.Resolver
	Promo          *promo.Evaluator
	DepositPercent int
}

// NewEngine wires an engine. A non-positive deposit percent uses DefaultDepositPercent.
func NewEngine(c *catalog.Catalog, b *bundle.Resolver, p *promo.Evaluator, depositPercent int) *Engine {
	return &Engine{Catalog: c, Bundles: b, Promo: p, DepositPercent: depositPercent}
}

// Default wires the built-in catalog, bundles and promo codes.
func Default() *Engine {
	return NewEngine(catalog.Default(), bundle.Default(), promo.Default(), DefaultDepositPercent)
}

func (e *Engine) depositPercent() int {
	if e.DepositPercent <= 0 || e.DepositPercent > 100 {
		return DefaultDepositPercent
	}
	return e.DepositPercent
}

type pricer struct {
	e       *Engine
	sel     selection.Selection
	bundle  bundle.Bundle
	active  bool
	budget  bool
	lines   []Line
	oneTime Money
	monthly Money
}

func (p *pricer) included(category catalog.Category, id string) bool {
	return p.active && p.e.Bundles.IsIncluded(p.bundle, category, id)
}

func (p *pricer) add(l Line) {
	p.lines = append(p.lines, l)
	p.oneTime += l.OneTime
	p.monthly += l.Monthly
}

// Compute prices a selection. It never fails: unknown ids cost nothing and are
// labelled with their raw id.
func (e *Engine) Compute(sel selection.Selection) Quote {
	p := &pricer{e: e, sel: sel}
	p.bundle, p.active = e.Bundles.Resolve(sel.BundleID, sel.Mode)
	p.budget = p.active && p.bundle.IsBudget()

	q := Quote{Mode: sel.Mode, Budget: p.budget}
	if q.Mode == "" {
		q.Mode = catalog.SinglePage
	}

	var base Money
	if p.active {
		base = p.bundle.Price
		q.Bundle = &BundleInfo{
			ID:     p.bundle.ID,
			BaseID: p.bundle.BaseID,
			Name:   p.bundle.Name,
			Tier:   p.bundle.Tier,
			Price:  p.bundle.Price,
		}
	} else {
		base = catalog.BasePrice(q.Mode, sel.Category, sel.Subcategory)
	}

	for _, category := range itemized {
		for _, entry := range sel.Entries(category) {
			item := e.Catalog.Lookup(category, entry.ID)
			line := Line{Category: category, ID: item.ID, Name: item.Name, Origin: entry.Origin}
			if p.included(category, entry.ID) {
				line.Included = true
			} else {
				line.OneTime = item.OneTime
				line.Monthly = item.Monthly
			}
			p.add(line)
		}
	}

	storeCost := p.store()
	p.tier(catalog.HostingTier, sel.Hosting)
	p.tier(catalog.MaintenanceTier, sel.Maintenance)
	yearly := p.domain()

	dev := base + p.oneTime
	totals := Totals{
		BaseCost:                  base,
		StoreCost:                 storeCost,
		OneTimeDevelopmentCost:    dev,
		TotalMonthlyCost:          p.monthly,
		DomainYearlyCost:          yearly,
		FirstYearTotal:            dev + p.monthly*12,
		DiscountedDevelopmentCost: dev,
	}

	if strings.TrimSpace(sel.PromoCode) != "" {
		res := e.Promo.Apply(sel.PromoCode)
		q.Promo = &res
		if res.Applied {
			totals.DiscountAmount = promo.Discount(dev, res.DiscountPercent)
			totals.DiscountedDevelopmentCost = dev - totals.DiscountAmount
		}
	}
	totals.DiscountedFirstYearTotal = totals.DiscountedDevelopmentCost + p.monthly*12

	q.Plan = e.plan(sel.PaymentOption, p.budget, totals.DiscountedDevelopmentCost)
	totals.StarterFeeAmount = q.Plan.StarterFee
	totals.MonthlyInstallmentAmount = q.Plan.Installment

	q.Totals = totals
	q.Lines = p.lines
	if q.Lines == nil {
		q.Lines = []Line{}
	}
	q.Categories = summarize(p.lines)
	return q
}

// store prices the online store: one flat base plus every selected option beyond
// the defaults bundled into each base store. The defaults are never itemized, so
// selecting exactly them costs the base only.
func (p *pricer) store() Money {
	entries := p.sel.Entries(catalog.StoreOption)
	if !p.sel.Store && len(entries) == 0 {
		return 0
	}
	base := catalog.StoreBasePrice
	switch {
	case p.active && p.bundle.IncludesStore:
		base = 0
	case p.budget:
		base = catalog.BudgetStoreAddonPrice
	}
	origin := p.sel.StoreOrigin
	if origin == "" {
		origin = selection.FromUser
	}
	before := p.oneTime
	p.add(Line{
		Category: catalog.StoreOption,
		ID:       StoreLineID,
		Name:     "Online store",
		OneTime:  base,
		Monthly:  catalog.StoreMonthlyFee,
		Included: p.active && p.bundle.IncludesStore,
		Origin:   origin,
	})

	for _, entry := range entries {
		item := p.e.Catalog.Lookup(catalog.StoreOption, entry.ID)
		line := Line{Category: catalog.StoreOption, ID: item.ID, Name: item.Name, Origin: entry.Origin}
		switch {
		case p.included(catalog.StoreOption, entry.ID):
			line.Included = true
		case catalog.IsDefaultStoreOption(entry.ID):
		default:
			line.OneTime = item.OneTime
			line.Monthly = item.Monthly
		}
		p.add(line)
	}
	return p.oneTime - before
}

func (p *pricer) tier(category catalog.Category, entry selection.Entry) {
	if entry.Empty() {
		return
	}
	item := p.e.Catalog.Lookup(category, entry.ID)
	line := Line{Category: category, ID: item.ID, Name: item.Name, Origin: entry.Origin}
	if p.included(category, entry.ID) {
		line.Included = true
	} else {
		line.Monthly = item.Monthly
		line.OneTime = item.OneTime
	}
	p.add(line)
}

// domain records the yearly domain fee. It never counts toward development or
// monthly costs.
func (p *pricer) domain() Money {
	entry := p.sel.Domain
	if entry.Empty() {
		return 0
	}
	item := p.e.Catalog.Lookup(catalog.DomainOption, entry.ID)
	line := Line{Category: catalog.DomainOption, ID: item.ID, Name: item.Name, Origin: entry.Origin}
	switch {
	case p.included(catalog.DomainOption, entry.ID):
		line.Included = true
	case entry.ID == catalog.FreeSubdomain:
	default:
		line.Yearly = item.Yearly
	}
	p.lines = append(p.lines, line)
	return line.Yearly
}

// plan derives the payment plan. Budget quotes are always paid one-time.
func (e *Engine) plan(option string, budget bool, dev Money) Plan {
	pct := e.depositPercent()
	if budget {
		return Plan{Option: selection.PaymentOneTime, DepositPercent: pct, Months: InstallmentMonths}
	}
	deposit, installment := Installments(dev, pct)
	plan := Plan{
		Option:               selection.PaymentOneTime,
		MonthlyPlanAvailable: true,
		DepositPercent:       pct,
		Months:               InstallmentMonths,
		StarterFee:           deposit,
		Installment:          installment,
	}
	if strings.EqualFold(strings.TrimSpace(option), selection.PaymentMonthly) {
		plan.Option = selection.PaymentMonthly
	}
	return plan
}

// Installments splits a development cost into a deposit of depositPercent and
// twelve equal installments. Both round up so the plan never under-collects.
func Installments(dev Money, depositPercent int) (deposit, installment Money) {
	if dev <= 0 {
		return 0, 0
	}
	deposit = ceilDiv(dev*Money(depositPercent), 100)
	remaining := dev - deposit
	if remaining < 0 {
		remaining = 0
	}
	return deposit, ceilDiv(remaining, InstallmentMonths)
}

func ceilDiv(a, b Money) Money {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func summarize(lines []Line) []CategoryCost {
	byCategory := map[catalog.Category]*CategoryCost{}
	for _, l := range lines {
		c, ok := byCategory[l.Category]
		if !ok {
			c = &CategoryCost{Category: l.Category, Label: l.Category.Label()}
			byCategory[l.Category] = c
		}
		c.OneTime += l.OneTime
		c.Monthly += l.Monthly
		c.Yearly += l.Yearly
	}
	out := make([]CategoryCost, 0, len(byCategory))
	for _, category := range catalog.Categories {
		if c, ok := byCategory[category]; ok {
			out = append(out, *c)
		}
	}
	return out
}

// Cost returns the one-time and monthly totals of a category.
func (q Quote) Cost(category catalog.Category) (oneTime, monthly Money) {
	for _, c := range q.Categories {
		if c.Category == category {
			return c.OneTime, c.Monthly
		}
	}
	return 0, 0
}

// LinesFor returns the lines of a category in selection order.
func (q Quote) LinesFor(category catalog.Category) []Line {
	var out []Line
	for _, l := range q.Lines {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out
}

// Extras returns lines the visitor chose beyond the bundle.
func (q Quote) Extras() []Line {
	var out []Line
	for _, l := range q.Lines {
		if !l.Included && l.Origin == selection.FromUser {
			out = append(out, l)
		}
	}
	return out
}
