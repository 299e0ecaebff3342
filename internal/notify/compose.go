// Package notify delivers requested quotes by email. Requests arrive as
// quote.requested events, travel through an asynq queue and are sent over SMTP.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/noah-isme/webquote/internal/common"
	"github.com/noah-isme/webquote/internal/events"
	"github.com/noah-isme/webquote/internal/export"
	"github.com/noah-isme/webquote/internal/pricing"
	"github.com/noah-isme/webquote/internal/quote"
	"github.com/noah-isme/webquote/internal/selection"
)

// Composer turns a quote request into an email with the PDF attached.
type Composer struct {
	Service *quote.Service
}

type emailView struct {
	Name      string
	Company   string
	Reference string
	Bundle    string
	Rows      []emailRow
	Extras    []string
	Message   string
}

type emailRow struct {
	Label  string
	Amount string
}

var htmlBody = template.Must(template.New("quote").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<p>Hi {{.Name}},</p>
<p>Thanks for building your website quote{{if .Company}} for {{.Company}}{{end}}. Your reference is <strong>{{.Reference}}</strong>.</p>
{{if .Bundle}}<p>Package: <strong>{{.Bundle}}</strong></p>{{end}}
<table cellpadding="6" style="border-collapse:collapse">
{{range .Rows}}<tr><td>{{.Label}}</td><td style="text-align:right">{{.Amount}}</td></tr>
{{end}}</table>
{{if .Extras}}<p>Extras you added:</p><ul>{{range .Extras}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Message}}<p>Your note: {{.Message}}</p>{{end}}
<p>The full breakdown is attached as a PDF. Reply to this email and we will get back to you within one business day.</p>
</body></html>`))

// Compose builds the message for a request. The quote is recomputed from the
// stored selection so the email and the attachment always agree.
func (c Composer) Compose(ev events.Event) (common.Email, error) {
	var req events.QuoteRequested
	if err := ev.Decode(&req); err != nil {
		return common.Email{}, fmt.Errorf("notify: decode request: %w", err)
	}
	if strings.TrimSpace(req.Email) == "" {
		return common.Email{}, fmt.Errorf("notify: request %s has no recipient", ev.ID)
	}
	svc := c.Service
	if svc == nil {
		svc = quote.NewService(nil)
	}

	ref := Reference(ev.ID)
	customer := strings.TrimSpace(req.Company)
	if customer == "" {
		customer = req.Name
	}
	pdf, filename, err := svc.PDF(req.Selection, customer, ref)
	if err != nil {
		return common.Email{}, fmt.Errorf("notify: render pdf: %w", err)
	}
	view := svc.Price(req.Selection)

	data := emailView{
		Name:      req.Name,
		Company:   req.Company,
		Reference: ref,
		Rows:      rows(view.Quote),
		Message:   req.Message,
	}
	if view.Bundle != nil {
		data.Bundle = view.Bundle.Name
	}
	for _, l := range view.Extras {
		data.Extras = append(data.Extras, l.Name)
	}

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return common.Email{}, fmt.Errorf("notify: render body: %w", err)
	}
	return common.Email{
		To:      req.Email,
		Subject: fmt.Sprintf("Your website quote %s", ref),
		HTML:    html.String(),
		Text:    plain(data),
		Attachments: []common.EmailAttachment{{
			Filename:    filename,
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}, nil
}

// Reference is the short customer-facing id of a request.
func Reference(requestID string) string {
	id := strings.ReplaceAll(strings.TrimSpace(requestID), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func rows(q pricing.Quote) []emailRow {
	t := q.Totals
	out := []emailRow{{Label: "One-time development", Amount: export.Money(t.OneTimeDevelopmentCost)}}
	if q.Promo != nil && q.Promo.Applied {
		out = append(out,
			emailRow{Label: fmt.Sprintf("Promo discount (%d%%)", q.Promo.DiscountPercent), Amount: export.Money(-t.DiscountAmount)},
			emailRow{Label: "Development after discount", Amount: export.Money(t.DiscountedDevelopmentCost)},
		)
	}
	if t.TotalMonthlyCost > 0 {
		out = append(out, emailRow{Label: "Monthly services", Amount: export.Monthly(t.TotalMonthlyCost)})
	}
	if t.DomainYearlyCost > 0 {
		out = append(out, emailRow{Label: "Domain (yearly)", Amount: export.Money(t.DomainYearlyCost)})
	}
	out = append(out, emailRow{Label: "First-year total", Amount: export.Money(t.DiscountedFirstYearTotal)})
	if q.Plan.Option == selection.PaymentMonthly {
		out = append(out,
			emailRow{Label: "Starter fee", Amount: export.Money(q.Plan.StarterFee)},
			emailRow{Label: fmt.Sprintf("%d monthly installments", q.Plan.Months), Amount: export.Monthly(q.Plan.Installment)},
		)
	}
	return out
}

func plain(v emailView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", v.Name)
	fmt.Fprintf(&b, "Thanks for building your website quote. Your reference is %s.\n\n", v.Reference)
	if v.Bundle != "" {
		fmt.Fprintf(&b, "Package: %s\n\n", v.Bundle)
	}
	for _, r := range v.Rows {
		fmt.Fprintf(&b, "%-28s %s\n", r.Label, r.Amount)
	}
	if len(v.Extras) > 0 {
		fmt.Fprintf(&b, "\nExtras: %s\n", strings.Join(v.Extras, ", "))
	}
	b.WriteString("\nThe full breakdown is attached as a PDF.\n")
	return b.String()
}
