// Package export renders transfer orders as workbooks the WMS import accepts.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet every export carries.
const SheetName = "Sheet1"

// ContentType is the MIME type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteWorkbook streams lines as one sheet: header row then one row per line.
func WriteWorkbook(w io.Writer, lines []domain.TransferLine) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]interface{}, len(domain.TransferColumns))
	for i, c := range domain.TransferColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, l := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row(l)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Workbook renders lines into an in-memory xlsx.
func Workbook(lines []domain.TransferLine) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, lines); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func row(l domain.TransferLine) []interface{} {
	return []interface{}{
		l.TransferType,
		l.FromWarehouse,
		l.ToWarehouse,
		l.SKU,
		l.FNSKU,
		l.FromZone,
		l.ToZone,
		cellQuantity(l.Quantity),
		l.Remark,
	}
}

// cellQuantity keeps whole quantities as integers so the WMS import sees 6 rather than 6.0.
func cellQuantity(q decimal.Decimal) interface{} {
	if q.IsInteger() {
		return q.IntPart()
	}
	return q.InexactFloat64()
}

// ShortageLog renders one line per shortage, in allocation order.
func ShortageLog(shortages []domain.ShortageEntry) string {
	var b strings.Builder
	for _, s := range shortages {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
