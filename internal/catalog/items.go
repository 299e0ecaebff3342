package catalog

// Default returns the hand-authored catalog the wizard prices against.
func Default() *Catalog {
	return New(map[Category][]Item{
		Section: {
			{ID: "hero", Name: "Hero banner", OneTime: 75},
			{ID: "about", Name: "About us", OneTime: 100},
			{ID: "services", Name: "Services", OneTime: 150},
			{ID: "contact", Name: "Contact form", OneTime: 0},
			{ID: "gallery", Name: "Photo gallery", OneTime: 125},
			{ID: "testimonials", Name: "Testimonials", OneTime: 100},
			{ID: "team", Name: "Team members", OneTime: 100},
			{ID: "faq", Name: "FAQ", OneTime: 75},
			{ID: "pricing", Name: "Pricing table", OneTime: 125},
			{ID: "portfolio", Name: "Portfolio showcase", OneTime: 150},
			{ID: "blog", Name: "Blog", OneTime: 200},
			{ID: "menu", Name: "Restaurant menu", OneTime: 125},
			{ID: "booking", Name: "Booking calendar", OneTime: 175},
			{ID: "map", Name: "Location map", OneTime: 50},
			{ID: "newsletter", Name: "Newsletter signup", OneTime: 50},
		},
		Addon: {
			{ID: "seo-basic", Name: "Basic SEO setup", OneTime: 150},
			{ID: "seo-advanced", Name: "Advanced SEO package", OneTime: 400},
			{ID: "analytics", Name: "Analytics dashboard", OneTime: 100},
			{ID: "live-chat", Name: "Live chat widget", OneTime: 75, Monthly: 15},
			{ID: "multilingual", Name: "Multilingual support", OneTime: 300},
			{ID: "social-feed", Name: "Social media feed", OneTime: 75},
			{ID: "accessibility", Name: "Accessibility audit", OneTime: 200},
			{ID: "copywriting", Name: "Professional copywriting", OneTime: 300},
			{ID: "logo-design", Name: "Logo design", OneTime: 250},
			{ID: "stock-photos", Name: "Stock photo license", OneTime: 100},
			{ID: "priority-support", Name: "Priority support", Monthly: 49},
			{ID: "backups", Name: "Daily off-site backups", Monthly: 10},
		},
		BackendOption: {
			{ID: "cms", Name: "Content management system", OneTime: 400},
			{ID: "user-accounts", Name: "User accounts & login", OneTime: 500},
			{ID: "database", Name: "Custom database", OneTime: 350},
			{ID: "admin-dashboard", Name: "Admin dashboard", OneTime: 600},
			{ID: "api-integration", Name: "Third-party API integration", OneTime: 450},
			{ID: "file-uploads", Name: "File uploads", OneTime: 200},
		},
		AiFeature: {
			{ID: "chatbot", Name: "AI chatbot", OneTime: 800},
			{ID: "content-generation", Name: "AI content generation", OneTime: 600},
			{ID: "smart-search", Name: "Smart search", OneTime: 500},
			{ID: "recommendations", Name: "Personalized recommendations", OneTime: 700},
			{ID: "image-generation", Name: "AI image generation", OneTime: 650},
			{ID: "voice-assistant", Name: "Voice assistant", OneTime: 900},
		},
		AutomationFeature: {
			{ID: "email-automation", Name: "Email automation", OneTime: 300},
			{ID: "crm-integration", Name: "CRM integration", OneTime: 450},
			{ID: "lead-scoring", Name: "Lead scoring", OneTime: 350},
			{ID: "workflow-automation", Name: "Workflow automation", OneTime: 500},
			{ID: "social-scheduling", Name: "Social post scheduling", OneTime: 250},
			{ID: "invoice-automation", Name: "Invoice automation", OneTime: 400},
		},
		StoreOption: {
			{ID: "basic-products", Name: "Product catalog"},
			{ID: "shopping-cart", Name: "Shopping cart"},
			{ID: "payment-processing", Name: "Payment processing"},
			{ID: "inventory-management", Name: "Inventory management", OneTime: 200},
			{ID: "discount-codes", Name: "Discount codes", OneTime: 100},
			{ID: "product-reviews", Name: "Product reviews", OneTime: 100},
			{ID: "shipping-calculator", Name: "Shipping calculator", OneTime: 150},
			{ID: "digital-downloads", Name: "Digital downloads", OneTime: 150},
			{ID: "multi-currency", Name: "Multi-currency", OneTime: 250},
			{ID: "subscriptions", Name: "Subscriptions", OneTime: 350},
		},
		HostingTier: {
			{ID: "basic", Name: "Basic hosting", Monthly: 15},
			{ID: "standard", Name: "Standard hosting", Monthly: 29},
			{ID: "premium", Name: "Premium hosting", Monthly: 59},
		},
		MaintenanceTier: {
			{ID: "basic", Name: "Basic maintenance", Monthly: 49},
			{ID: "standard", Name: "Standard maintenance", Monthly: 99},
			{ID: "premium", Name: "Premium maintenance", Monthly: 199},
		},
		DomainOption: {
			{ID: FreeSubdomain, Name: "Free subdomain"},
			{ID: "transfer", Name: "Use my existing domain"},
			{ID: "com", Name: ".com domain", Yearly: 15},
			{ID: "net", Name: ".net domain", Yearly: 17},
			{ID: "org", Name: ".org domain", Yearly: 15},
			{ID: "io", Name: ".io domain", Yearly: 45},
		},
	})
}
