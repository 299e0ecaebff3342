package events

import (
	"github.com/noah-isme/webquote/internal/selection"
)

// Topic constants for events emitted by the quote service.
const (
	TopicQuoteRequested = "quote.requested"
)

// QuoteRequested is emitted when a visitor asks for their quote by email.
type QuoteRequested struct {
	Name                     string              `json:"name"`
	Email                    string              `json:"email"`
	Company                  string              `json:"company,omitempty"`
	Message                  string              `json:"message,omitempty"`
	Selection                selection.Selection `json:"selection"`
	BundleID                 string              `json:"bundleId,omitempty"`
	OneTimeDevelopmentCost   int64               `json:"oneTimeDevelopmentCost"`
	TotalMonthlyCost         int64               `json:"totalMonthlyCost"`
	DiscountedFirstYearTotal int64               `json:"discountedFirstYearTotal"`
}
