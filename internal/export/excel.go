package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an exported quote.
const SheetName = "Quote"

// Excel renders the quote as an XLSX workbook. Amounts are written as numbers so
// the sheet can be re-totalled; the summary block repeats them formatted.
func Excel(d Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("export: set sheet name: %w", err)
	}
	widths := map[string]float64{"A": 18, "B": 36, "C": 14, "D": 14, "E": 14, "F": 12}
	for c, w := range widths {
		if err := f.SetColWidth(SheetName, c, c, w); err != nil {
			return nil, fmt.Errorf("export: set col width %s: %w", c, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("export: title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#212529"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(`"$"#,##0`)})
	if err != nil {
		return nil, fmt.Errorf("export: money style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export: bold style: %w", err)
	}

	set := func(cell string, v any) {
		_ = f.SetCellValue(SheetName, cell, v)
	}

	set("A1", sanitizeCell(d.title()))
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)
	set("A2", "Date: "+d.date().Format("2006-01-02"))
	if d.Customer != "" {
		set("A3", "Prepared for: "+d.Customer)
	}

	headers := []string{"Category", "Item", "One-time", "Monthly", "Yearly", "Included"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		set(cell, h)
	}
	_ = f.SetCellStyle(SheetName, "A5", "F5", headerStyle)

	r := 6
	for _, l := range d.Quote.Lines {
		set(cellName(1, r), l.Category.Label())
		set(cellName(2, r), sanitizeCell(l.Name))
		set(cellName(3, r), l.OneTime)
		set(cellName(4, r), l.Monthly)
		set(cellName(5, r), l.Yearly)
		if l.Included {
			set(cellName(6, r), "yes")
		}
		_ = f.SetCellStyle(SheetName, cellName(3, r), cellName(5, r), moneyStyle)
		r++
	}

	r++
	for _, s := range summary(d.Quote) {
		set(cellName(2, r), s.Label)
		set(cellName(3, r), s.Value)
		_ = f.SetCellStyle(SheetName, cellName(2, r), cellName(2, r), boldStyle)
		r++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write xlsx: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func cellName(c, r int) string {
	name, _ := excelize.CoordinatesToCellName(c, r)
	return name
}

func strPtr(s string) *string { return &s }

// sanitizeCell stops visitor-supplied text from being evaluated as a formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
