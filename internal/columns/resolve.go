package columns

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
)

// Selection is the column chosen for one rule. Index is -1 for an absent optional role.
type Selection struct {
	Role      domain.Role `json:"role"`
	Canonical string      `json:"canonical"`
	Index     int         `json:"index"`
	Source    string      `json:"source"`
}

// Mapping is the outcome of resolving a header row against a RuleSet
type Mapping struct {
	Selections []Selection
}

// Resolve selects one column per rule. It is a pure function of the header
// and the rule set, so resolving the same header twice yields the same mapping.
func (rs RuleSet) Resolve(header []string) (Mapping, error) {
	names := make([]string, len(header))
	folded := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		folded[i] = fold(h)
	}

	mapping := Mapping{Selections: make([]Selection, 0, len(rs))}
	for _, rule := range rs {
		idx := rule.pick(folded)
		if idx < 0 && !rule.Optional {
			return Mapping{}, &domain.MissingRequiredColumnError{Role: rule.Role, Columns: names}
		}

		sel := Selection{Role: rule.Role, Canonical: rule.Canonical, Index: idx}
		if idx >= 0 {
			sel.Source = names[idx]
		}
		mapping.Selections = append(mapping.Selections, sel)
	}
	return mapping, nil
}

func (r Rule) pick(folded []string) int {
	for _, match := range r.Tiers {
		best := -1
		for i, name := range folded {
			if !match(name) {
				continue
			}
			if r.Pick == PickFirst {
				return i
			}
			if best < 0 || len([]rune(name)) < len([]rune(folded[best])) {
				best = i
			}
		}
		if best >= 0 {
			return best
		}
	}
	return -1
}

// Has reports whether the role was resolved to a column.
func (m Mapping) Has(role domain.Role) bool {
	for _, s := range m.Selections {
		if s.Role == role {
			return s.Index >= 0
		}
	}
	return false
}

// Source returns the original column name selected for role.
func (m Mapping) Source(role domain.Role) string {
	for _, s := range m.Selections {
		if s.Role == role {
			return s.Source
		}
	}
	return ""
}

// Project builds a table holding only the resolved columns under their
// canonical names. Row order and count are preserved. When two selections
// share a canonical name the first one wins. Absent optional columns are
// materialised as empty text.
func (m Mapping) Project(t *sheet.Table) *sheet.Table {
	kept := make([]Selection, 0, len(m.Selections))
	seen := make(map[string]struct{}, len(m.Selections))
	for _, s := range m.Selections {
		if _, dup := seen[s.Canonical]; dup {
			continue
		}
		seen[s.Canonical] = struct{}{}
		kept = append(kept, s)
	}

	header := make([]string, len(kept))
	for i, s := range kept {
		header[i] = s.Canonical
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, len(kept))
		for i, s := range kept {
			if s.Index >= 0 && s.Index < len(row) {
				out[i] = row[s.Index]
			}
		}
		rows[r] = out
	}

	return &sheet.Table{Header: header, Rows: rows, HeaderRow: t.HeaderRow}
}

// Report renders which source columns were picked, for operator diagnostics.
func (m Mapping) Report() string {
	parts := make([]string, 0, len(m.Selections))
	for _, s := range m.Selections {
		src := s.Source
		if s.Index < 0 {
			src = "-"
		}
		parts = append(parts, fmt.Sprintf("%s[%s]", s.Canonical, src))
	}
	return "column mapping: " + strings.Join(parts, " | ")
}
