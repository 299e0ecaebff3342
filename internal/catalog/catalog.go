package catalog

import "strings"

// Money is a whole-currency amount. Quotes never carry cents.
type Money = int64

// Category identifies one of the priced option groups of the wizard.
type Category string

const (
	Section           Category = "sections"
	Addon             Category = "addons"
	BackendOption     Category = "backend"
	AiFeature         Category = "ai"
	AutomationFeature Category = "automation"
	StoreOption       Category = "store"
	HostingTier       Category = "hosting"
	MaintenanceTier   Category = "maintenance"
	DomainOption      Category = "domain"
)

// Categories lists every category in wizard order.
var Categories = []Category{
	BackendOption,
	AiFeature,
	AutomationFeature,
	StoreOption,
	Section,
	Addon,
	HostingTier,
	MaintenanceTier,
	DomainOption,
}

// MultiSelect reports whether the category holds a set of ids rather than a single tier.
func (c Category) MultiSelect() bool {
	switch c {
	case HostingTier, MaintenanceTier, DomainOption:
		return false
	default:
		return true
	}
}

// Label is the human readable category heading used by exports.
func (c Category) Label() string {
	switch c {
	case Section:
		return "Sections"
	case Addon:
		return "Add-ons"
	case BackendOption:
		return "Backend"
	case AiFeature:
		return "AI features"
	case AutomationFeature:
		return "Automation"
	case StoreOption:
		return "Online store"
	case HostingTier:
		return "Hosting"
	case MaintenanceTier:
		return "Maintenance"
	case DomainOption:
		return "Domain"
	default:
		return string(c)
	}
}

// ParseCategory maps a wire name to a Category.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, c := range Categories {
		if c == normalized {
			return c, true
		}
	}
	return "", false
}

// Item is a single priced catalog row.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OneTime Money  `json:"oneTime"`
	Monthly Money  `json:"monthly,omitempty"`
	Yearly  Money  `json:"yearly,omitempty"`
}

// Catalog is an immutable lookup table of items per category.
type Catalog struct {
	items map[Category]map[string]Item
	order map[Category][]string
}

// New builds a catalog from ordered rows per category. Later duplicates of an id win.
func New(rows map[Category][]Item) *Catalog {
	c := &Catalog{
		items: make(map[Category]map[string]Item, len(rows)),
		order: make(map[Category][]string, len(rows)),
	}
	for category, list := range rows {
		byID := make(map[string]Item, len(list))
		order := make([]string, 0, len(list))
		for _, it := range list {
			if _, seen := byID[it.ID]; !seen {
				order = append(order, it.ID)
			}
			byID[it.ID] = it
		}
		c.items[category] = byID
		c.order[category] = order
	}
	return c
}

// Find returns the item and whether it exists.
func (c *Catalog) Find(category Category, id string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	it, ok := c.items[category][strings.TrimSpace(id)]
	return it, ok
}

// Lookup never fails: an unknown id resolves to a zero-cost item labelled with the id itself.
func (c *Catalog) Lookup(category Category, id string) Item {
	if it, ok := c.Find(category, id); ok {
		return it
	}
	return Item{ID: id, Name: id}
}

// Items returns the rows of a category in display order.
func (c *Catalog) Items(category Category) []Item {
	if c == nil {
		return nil
	}
	ids := c.order[category]
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.items[category][id])
	}
	return out
}
