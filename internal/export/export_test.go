package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/pricing"
	"github.com/noah-isme/webquote/internal/selection"
)

func sampleQuote() pricing.Quote {
	sel := selection.Input{
		BundleID:      "business-starter",
		WebsiteType:   "single",
		Sections:      selection.IDList{"gallery"},
		Hosting:       "standard",
		PromoCode:     "2026",
		PaymentOption: selection.PaymentMonthly,
	}.Selection(pricing.Default().Bundles)
	return pricing.Default().Compute(sel)
}

func TestMoney(t *testing.T) {
	require.Equal(t, "$0", Money(0))
	require.Equal(t, "$1,234", Money(1234))
	require.Equal(t, "-$70", Money(-70))
	require.Equal(t, "$29/mo", Monthly(29))
}

func TestSummaryRows(t *testing.T) {
	q := sampleQuote()
	rows := summary(q)

	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	require.Contains(t, labels, "Promo discount (10%)")
	require.Contains(t, labels, "Starter fee (20%)")
	require.Equal(t, "One-time development", rows[1].Label)
}

func TestSummaryWithoutPromoOrPlan(t *testing.T) {
	sel := selection.New(catalog.SinglePage)
	q := pricing.Default().Compute(sel)
	rows := summary(q)
	for _, r := range rows {
		require.NotContains(t, r.Label, "Promo")
		require.NotContains(t, r.Label, "Starter fee")
	}
	require.Equal(t, "First-year total", rows[len(rows)-1].Label)
}

func TestLineAmount(t *testing.T) {
	one, rec := lineAmount(pricing.Line{Included: true, OneTime: 500})
	require.Equal(t, "Included", one)
	require.Empty(t, rec)

	one, rec = lineAmount(pricing.Line{OneTime: 75, Monthly: 15})
	require.Equal(t, "$75", one)
	require.Equal(t, "$15/mo", rec)

	_, rec = lineAmount(pricing.Line{Yearly: 17})
	require.Equal(t, "$17/yr", rec)
}

func TestPDF(t *testing.T) {
	data, err := PDF(Document{Customer: "Ada", Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Quote: sampleQuote()})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExcel(t *testing.T) {
	q := sampleQuote()
	data, err := Excel(Document{Customer: "=cmd()", Quote: q})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetName}, f.GetSheetList())
	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	require.Equal(t, "Business Starter quote", title)

	customer, err := f.GetCellValue(SheetName, "A3")
	require.NoError(t, err)
	require.Equal(t, "Prepared for: =cmd()", customer)

	header, err := f.GetCellValue(SheetName, "B5")
	require.NoError(t, err)
	require.Equal(t, "Item", header)

	first, err := f.GetCellValue(SheetName, "B6")
	require.NoError(t, err)
	require.Equal(t, q.Lines[0].Name, first)
}

func TestFilename(t *testing.T) {
	d := Document{Reference: "abc", Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)}
	require.Equal(t, "webquote-abc.pdf", d.Filename("pdf"))
	d.Reference = ""
	require.Equal(t, "webquote-20260304.xlsx", d.Filename("xlsx"))
}
