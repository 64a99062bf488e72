package sheet

import (
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
)

const (
	// HeaderMarker is the cell that identifies the header row of an inventory export.
	HeaderMarker = "SKU"
	// ScanRows bounds how many leading rows are inspected for the header.
	ScanRows = 10
)

// Locate finds the first row among the first ScanRows rows containing a cell
// equal to marker after trimming and upper-casing, and rebuilds the table
// with that row as column names.
func Locate(raw Raw, marker string) (*Table, error) {
	want := strings.ToUpper(strings.TrimSpace(marker))
	limit := min(ScanRows, len(raw))

	headerIdx := -1
	for i := 0; i < limit; i++ {
		if rowHasMarker(raw[i], want) {
			headerIdx = i
			break
		}
	}

	if headerIdx == -1 {
		scanned := make([][]string, limit)
		for i := 0; i < limit; i++ {
			scanned[i] = append([]string(nil), raw[i]...)
		}
		return nil, &domain.SchemaNotFoundError{Marker: marker, Scanned: scanned}
	}

	header := make([]string, len(raw[headerIdx]))
	for i, c := range raw[headerIdx] {
		header[i] = strings.TrimSpace(c)
	}

	rows := make([][]string, 0, len(raw)-headerIdx-1)
	for _, r := range raw[headerIdx+1:] {
		rows = append(rows, fitRow(r, len(header)))
	}

	return &Table{Header: header, Rows: rows, HeaderRow: headerIdx}, nil
}

func rowHasMarker(row []string, marker string) bool {
	for _, c := range row {
		if strings.ToUpper(strings.TrimSpace(c)) == marker {
			return true
		}
	}
	return false
}
