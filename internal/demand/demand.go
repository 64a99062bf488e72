// Package demand reads the requested transfer lines from an uploaded sheet,
// a pasted tab separated block or a JSON array.
package demand

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/columns"
	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"github.com/shopspring/decimal"
)

// FromSource reads a demand workbook or CSV. The header row must carry a SKU cell.
func FromSource(src sheet.Source) ([]domain.DemandLine, error) {
	raw, err := sheet.Read(src)
	if err != nil {
		return nil, err
	}
	return FromRaw(raw)
}

// FromText parses a block pasted from a spreadsheet: tab separated cells,
// first row is the header.
func FromText(text string) ([]domain.DemandLine, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse pasted demand: %w", err)
	}
	return FromRaw(rows)
}

// FromRaw locates the header, resolves the demand columns and builds lines.
func FromRaw(raw sheet.Raw) ([]domain.DemandLine, error) {
	table, err := sheet.Locate(raw, sheet.HeaderMarker)
	if err != nil {
		return nil, err
	}
	mapping, err := columns.DemandRules.Resolve(table.Header)
	if err != nil {
		return nil, err
	}
	projected := mapping.Project(table)

	lines := make([]domain.DemandLine, 0, len(projected.Rows))
	for i := range projected.Rows {
		l := domain.DemandLine{
			Line:     i + 1,
			SKU:      strings.TrimSpace(projected.Value(i, columns.ColSKU)),
			FNSKU:    strings.TrimSpace(projected.Value(i, columns.ColFNSKU)),
			Quantity: domain.ParseQuantity(projected.Value(i, columns.ColDemandQty)),
			Tag:      strings.TrimSpace(projected.Value(i, columns.ColTag)),
		}
		if servable(l) {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

type jsonLine struct {
	SKU     string          `json:"sku"`
	FNSKU   string          `json:"fnsku"`
	Qty     decimal.Decimal `json:"qty"`
	Country string          `json:"country"`
}

// FromJSON decodes an array of {sku, fnsku, qty, country}. qty may be a number
// or a numeric string.
func FromJSON(data []byte) ([]domain.DemandLine, error) {
	var items []jsonLine
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode demand json: %w", err)
	}

	lines := make([]domain.DemandLine, 0, len(items))
	for i, it := range items {
		l := domain.DemandLine{
			Line:     i + 1,
			SKU:      strings.TrimSpace(it.SKU),
			FNSKU:    strings.TrimSpace(it.FNSKU),
			Quantity: it.Qty,
			Tag:      strings.TrimSpace(it.Country),
		}
		if servable(l) {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func servable(l domain.DemandLine) bool {
	return l.SKU != "" && l.Quantity.IsPositive()
}
