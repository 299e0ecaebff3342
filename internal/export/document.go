// Package export renders priced quotes as downloadable documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/noah-isme/webquote/internal/pricing"
	"github.com/noah-isme/webquote/internal/selection"
)

// Document is everything a rendered quote shows.
type Document struct {
	Title     string
	Reference string
	Customer  string
	Date      time.Time
	Quote     pricing.Quote
}

// Filename is the attachment name for the given extension.
func (d Document) Filename(ext string) string {
	ref := strings.TrimSpace(d.Reference)
	if ref == "" {
		ref = d.date().Format("20060102")
	}
	return fmt.Sprintf("webquote-%s.%s", ref, ext)
}

func (d Document) title() string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	if d.Quote.Bundle != nil {
		return d.Quote.Bundle.Name + " quote"
	}
	return "Website quote"
}

func (d Document) date() time.Time {
	if d.Date.IsZero() {
		return time.Now()
	}
	return d.Date
}

// Money formats a whole amount as "$1,234".
func Money(v int64) string {
	if v < 0 {
		return "-$" + humanize.Comma(-v)
	}
	return "$" + humanize.Comma(v)
}

// Monthly formats a recurring amount as "$29/mo".
func Monthly(v int64) string {
	return Money(v) + "/mo"
}

type summaryRow struct {
	Label string
	Value string
}

// summary lists the totals block shared by every format. Discount rows appear
// only when a promo was applied; the plan rows only for monthly payment.
func summary(q pricing.Quote) []summaryRow {
	t := q.Totals
	rows := []summaryRow{{"Base price", Money(t.BaseCost)}}
	if t.StoreCost > 0 {
		rows = append(rows, summaryRow{"Online store", Money(t.StoreCost)})
	}
	rows = append(rows, summaryRow{"One-time development", Money(t.OneTimeDevelopmentCost)})
	if t.DiscountAmount > 0 {
		rows = append(rows,
			summaryRow{fmt.Sprintf("Promo discount (%d%%)", q.Promo.DiscountPercent), Money(-t.DiscountAmount)},
			summaryRow{"Development after discount", Money(t.DiscountedDevelopmentCost)},
		)
	}
	rows = append(rows, summaryRow{"Monthly services", Monthly(t.TotalMonthlyCost)})
	if t.DomainYearlyCost > 0 {
		rows = append(rows, summaryRow{"Domain (yearly)", Money(t.DomainYearlyCost) + "/yr"})
	}
	rows = append(rows, summaryRow{"First-year total", Money(t.DiscountedFirstYearTotal)})
	if q.Plan.Option == selection.PaymentMonthly && q.Plan.MonthlyPlanAvailable {
		rows = append(rows,
			summaryRow{fmt.Sprintf("Starter fee (%d%%)", q.Plan.DepositPercent), Money(q.Plan.StarterFee)},
			summaryRow{fmt.Sprintf("Then %d monthly installments", q.Plan.Months), Monthly(q.Plan.Installment)},
		)
	}
	return rows
}

func lineAmount(l pricing.Line) (oneTime, recurring string) {
	if l.Included {
		return "Included", ""
	}
	oneTime = Money(l.OneTime)
	switch {
	case l.Monthly > 0:
		recurring = Monthly(l.Monthly)
	case l.Yearly > 0:
		recurring = Money(l.Yearly) + "/yr"
	}
	return oneTime, recurring
}
