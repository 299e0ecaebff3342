package bundle

import "github.com/noah-isme/webquote/internal/catalog"

var coreSections = []string{"hero", "about", "services", "contact"}

func sections(extra ...string) []string {
	out := append([]string{}, coreSections...)
	return append(out, extra...)
}

// Default returns the resolver for the fixed bundle offering.
func Default() *Resolver {
	return NewResolver(definitions(), budgetFeatures())
}

func definitions() []Bundle {
	return []Bundle{
		{
			ID: "business-starter-sp", BaseID: "business-starter", Name: "Business Starter",
			Mode: catalog.SinglePage, Tier: TierStarter, Price: 600,
			Included: map[catalog.Category][]string{catalog.Section: sections()},
		},
		{
			ID: "business-starter-mp", BaseID: "business-starter", Name: "Business Starter",
			Mode: catalog.MultiPage, Tier: TierStarter, Price: 1100,
			Included: map[catalog.Category][]string{catalog.Section: sections("blog")},
		},
		{
			ID: "business-professional-sp", BaseID: "business-professional", Name: "Business Professional",
			Mode: catalog.SinglePage, Tier: TierProfessional, Price: 1200,
			Included: map[catalog.Category][]string{
				catalog.Section:       sections("testimonials", "team", "faq"),
				catalog.Addon:         {"seo-basic", "analytics"},
				catalog.BackendOption: {"cms"},
			},
			Hosting:     "standard",
			Maintenance: "basic",
		},
		{
			ID: "business-professional-mp", BaseID: "business-professional", Name: "Business Professional",
			Mode: catalog.MultiPage, Tier: TierProfessional, Price: 2200,
			Included: map[catalog.Category][]string{
				catalog.Section:       sections("testimonials", "team", "faq", "blog", "gallery"),
				catalog.Addon:         {"seo-basic", "analytics"},
				catalog.BackendOption: {"cms"},
			},
			Hosting:     "standard",
			Maintenance: "basic",
		},
		{
			ID: "business-premium-sp", BaseID: "business-premium", Name: "Business Premium",
			Mode: catalog.SinglePage, Tier: TierPremium, Price: 2400,
			Included: map[catalog.Category][]string{
				catalog.Section:           sections("testimonials", "team", "faq", "pricing", "gallery"),
				catalog.Addon:             {"seo-advanced", "analytics", "live-chat"},
				catalog.BackendOption:     {"cms", "admin-dashboard"},
				catalog.AiFeature:         {"chatbot"},
				catalog.AutomationFeature: {"email-automation"},
			},
			Hosting:     "premium",
			Maintenance: "standard",
			Domain:      "com",
		},
		{
			ID: "business-premium-mp", BaseID: "business-premium", Name: "Business Premium",
			Mode: catalog.MultiPage, Tier: TierPremium, Price: 3900,
			Included: map[catalog.Category][]string{
				catalog.Section:           sections("testimonials", "team", "faq", "pricing", "gallery", "blog"),
				catalog.Addon:             {"seo-advanced", "analytics", "live-chat", "multilingual"},
				catalog.BackendOption:     {"cms", "admin-dashboard", "user-accounts"},
				catalog.AiFeature:         {"chatbot", "smart-search"},
				catalog.AutomationFeature: {"email-automation", "crm-integration"},
			},
			Hosting:     "premium",
			Maintenance: "standard",
			Domain:      "com",
		},
		{
			ID: "ecommerce-starter-sp", BaseID: "ecommerce-starter", Name: "E-commerce Starter",
			Mode: catalog.SinglePage, Tier: TierStarter, Price: 1100,
			Included: map[catalog.Category][]string{
				catalog.Section:     {"hero", "about", "contact"},
				catalog.StoreOption: append(append([]string{}, catalog.DefaultStoreOptions...), "inventory-management"),
			},
			IncludesStore: true,
		},
		{
			ID: "ecommerce-starter-mp", BaseID: "ecommerce-starter", Name: "E-commerce Starter",
			Mode: catalog.MultiPage, Tier: TierStarter, Price: 1500,
			Included: map[catalog.Category][]string{
				catalog.Section:     sections("faq"),
				catalog.StoreOption: append(append([]string{}, catalog.DefaultStoreOptions...), "inventory-management", "discount-codes"),
			},
			Hosting:       "standard",
			IncludesStore: true,
		},
		{
			ID: "portfolio-starter", BaseID: "portfolio-starter", Name: "Portfolio Starter",
			Mode: catalog.SinglePage, Tier: TierStarter, Price: 500,
			Included: map[catalog.Category][]string{
				catalog.Section: {"hero", "portfolio", "gallery", "contact"},
			},
		},
		{
			ID: "budget-starter-sp", BaseID: "budget-starter", Name: "Budget Starter",
			Mode: catalog.SinglePage, Tier: TierBudget, Price: 400,
			Hosting: "basic", Domain: catalog.FreeSubdomain,
		},
		{
			ID: "budget-starter-mp", BaseID: "budget-starter", Name: "Budget Starter",
			Mode: catalog.MultiPage, Tier: TierBudget, Price: 700,
			Hosting: "basic", Domain: catalog.FreeSubdomain,
		},
		{
			ID: "budget-plus-sp", BaseID: "budget-plus", Name: "Budget Plus",
			Mode: catalog.SinglePage, Tier: TierBudget, Price: 550,
			Hosting: "basic", Domain: catalog.FreeSubdomain,
		},
		{
			ID: "budget-plus-mp", BaseID: "budget-plus", Name: "Budget Plus",
			Mode: catalog.MultiPage, Tier: TierBudget, Price: 900,
			Hosting: "basic", Domain: catalog.FreeSubdomain,
		},
	}
}

// budgetFeatures are the hand-authored inclusions of budget bundles, keyed by base id.
// Sections are not listed: budget bundles include every section.
func budgetFeatures() map[string]map[catalog.Category][]string {
	return map[string]map[catalog.Category][]string{
		"budget-starter": {
			catalog.Addon: {"seo-basic"},
		},
		"budget-plus": {
			catalog.Addon:         {"seo-basic", "analytics", "social-feed"},
			catalog.BackendOption: {"cms"},
		},
	}
}
