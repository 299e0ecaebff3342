package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	mutedColor  = &props.Color{Red: 110, Green: 110, Blue: 110}
	headerColor = &props.Color{Red: 33, Green: 37, Blue: 41}
	stripeColor = &props.Color{Red: 245, Green: 245, Blue: 245}
)

// PDF renders the quote with maroto and returns the raw bytes.
func PDF(d Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   mutedColor,
		}).
		Build()

	m := maroto.New(cfg)
	pdfHeader(m, d)
	pdfLines(m, d)
	pdfSummary(m, d)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("export: generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func pdfHeader(m core.Maroto, d Document) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(d.title(), props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center})),
		),
	)
	left := "Prepared for: " + d.Customer
	if d.Customer == "" {
		left = "Website project estimate"
	}
	info := props.Text{Size: 9, Color: mutedColor}
	right := info
	right.Align = align.Right
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(text.New(left, info)),
			col.New(6).Add(text.New("Date: "+d.date().Format("2 Jan 2006"), right)),
		),
	)
	if d.Quote.Bundle != nil {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(text.New(fmt.Sprintf("Bundle: %s (%s)", d.Quote.Bundle.Name, Money(d.Quote.Bundle.Price)), info)),
			),
		)
	}
	m.AddRows(row.New(4))
}

func pdfLines(m core.Maroto, d Document) {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}
	headRight := head
	headRight.Align = align.Right
	cell := &props.Cell{BackgroundColor: headerColor}
	m.AddRows(
		row.New(8).Add(
			col.New(3).Add(text.New("Category", head)).WithStyle(cell),
			col.New(5).Add(text.New("Item", head)).WithStyle(cell),
			col.New(2).Add(text.New("One-time", headRight)).WithStyle(cell),
			col.New(2).Add(text.New("Recurring", headRight)).WithStyle(cell),
		),
	)

	body := props.Text{Size: 8}
	bodyRight := body
	bodyRight.Align = align.Right
	for i, l := range d.Quote.Lines {
		oneTime, recurring := lineAmount(l)
		cols := []core.Col{
			col.New(3).Add(text.New(l.Category.Label(), body)),
			col.New(5).Add(text.New(l.Name, body)),
			col.New(2).Add(text.New(oneTime, bodyRight)),
			col.New(2).Add(text.New(recurring, bodyRight)),
		}
		if i%2 == 1 {
			for j := range cols {
				cols[j] = cols[j].WithStyle(&props.Cell{BackgroundColor: stripeColor})
			}
		}
		m.AddRows(row.New(6).Add(cols...))
	}
	m.AddRows(row.New(6))
}

func pdfSummary(m core.Maroto, d Document) {
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	for _, r := range summary(d.Quote) {
		m.AddRows(
			row.New(7).Add(
				col.New(8).Add(text.New(r.Label, label)),
				col.New(4).Add(text.New(r.Value, value)),
			),
		)
	}
}
