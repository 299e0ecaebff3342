package catalog

import "strings"

// PageMode distinguishes single-page from multi-page websites.
type PageMode string

const (
	SinglePage PageMode = "single"
	MultiPage  PageMode = "multi"
)

// ParsePageMode normalizes the wizard's website type. Anything unrecognized is single-page.
func ParsePageMode(value string) PageMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "multi", "multi-page", "multipage", "mp":
		return MultiPage
	default:
		return SinglePage
	}
}

// Suffix is the bundle id suffix used for page-mode specific pricing.
func (m PageMode) Suffix() string {
	if m == MultiPage {
		return "-mp"
	}
	return "-sp"
}

const (
	// StoreBasePrice is charged once for an online store outside budget bundles.
	StoreBasePrice Money = 499
	// BudgetStoreAddonPrice is the flat store add-on price inside a budget bundle.
	BudgetStoreAddonPrice Money = 199
	// StoreMonthlyFee covers store backend and payment processing.
	StoreMonthlyFee Money = 29

	// FreeSubdomain never incurs a yearly fee.
	FreeSubdomain = "free-subdomain"

	singlePageFallback Money = 500
	multiPageFallback  Money = 1000
)

// DefaultStoreOptions are part of every base store and never itemized.
var DefaultStoreOptions = []string{"basic-products", "shopping-cart", "payment-processing"}

// IsDefaultStoreOption reports whether id is covered by the flat store price.
func IsDefaultStoreOption(id string) bool {
	for _, d := range DefaultStoreOptions {
		if d == id {
			return true
		}
	}
	return false
}

var subcategoryPrices = map[PageMode]map[string]Money{
	SinglePage: {
		"business":   600,
		"consulting": 650,
		"portfolio":  500,
		"personal":   400,
		"landing":    450,
		"event":      450,
		"restaurant": 650,
		"blog":       550,
	},
	MultiPage: {
		"business":   1200,
		"consulting": 1300,
		"agency":     1500,
		"portfolio":  1000,
		"restaurant": 1300,
		"blog":       1100,
		"nonprofit":  1100,
		"ecommerce":  1800,
		"corporate":  1800,
	},
}

var categoryPrices = map[PageMode]map[string]Money{
	SinglePage: {
		"professional": 600,
		"creative":     500,
		"hospitality":  650,
		"personal":     400,
	},
	MultiPage: {
		"professional": 1200,
		"creative":     1000,
		"hospitality":  1300,
		"commerce":     1800,
		"community":    1100,
	},
}

// BasePrice is the starting development cost for a site without a bundle.
func BasePrice(mode PageMode, category, subcategory string) Money {
	sub := strings.ToLower(strings.TrimSpace(subcategory))
	if price, ok := subcategoryPrices[mode][sub]; ok {
		return price
	}
	cat := strings.ToLower(strings.TrimSpace(category))
	if price, ok := categoryPrices[mode][cat]; ok {
		return price
	}
	if mode == MultiPage {
		return multiPageFallback
	}
	return singlePageFallback
}
