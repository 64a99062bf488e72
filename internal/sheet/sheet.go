// Package sheet turns uploaded spreadsheets into untyped rows and locates
// the header row inside them.
package sheet

// Raw is an untyped table: rows of cells with no column names assumed.
type Raw [][]string

// Source is an uploaded or downloaded file. Name is only used for its extension.
type Source struct {
	Name string
	Data []byte
}

// Table is a raw table re-materialised around its header row.
// Every row has exactly len(Header) cells.
type Table struct {
	Header    []string
	Rows      [][]string
	HeaderRow int // zero based index of the header row in the raw table
}

// Column returns the index of the first header equal to name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Value returns the cell of row i under column name, or "" if the column is absent.
func (t *Table) Value(i int, name string) string {
	idx := t.Column(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][idx]
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

