// Package partition turns allocation results into transfer order rows and
// splits them into independently exported groups.
package partition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
)

// Destination holds the fixed receiving side of every transfer line
type Destination struct {
	TransferType string `json:"transfer_type"`
	Warehouse    string `json:"warehouse"`
	Zone         string `json:"zone"`
}

// DefaultDestination is the Amazon Shenzhen finished goods store.
var DefaultDestination = Destination{
	TransferType: "组织内调拨",
	Warehouse:    "DLM供应链亚马逊深圳仓-SZ",
	Zone:         "成品-存储1区",
}

// ErrUnknownStrategy is returned by ParseStrategy for unsupported names.
var ErrUnknownStrategy = errors.New("unknown partition strategy")

// KeyFunc computes the partition key of one result.
type KeyFunc func(r domain.AllocationResult) string

// ByZone groups by source zone, falling back to the source warehouse when the
// zone is blank.
func ByZone(r domain.AllocationResult) string {
	return SourceZone(r)
}

// ByWarehouse groups by source warehouse.
func ByWarehouse(r domain.AllocationResult) string {
	return r.Warehouse
}

// ByTag groups by the demand tag (usually the destination country) and falls
// back to ByZone for untagged lines.
func ByTag(r domain.AllocationResult) string {
	if tag := strings.TrimSpace(r.Tag); tag != "" {
		return tag
	}
	return ByZone(r)
}

// SourceZone returns the zone written to the order, the warehouse when no zone is known.
func SourceZone(r domain.AllocationResult) string {
	if zone := strings.TrimSpace(r.Zone); zone != "" {
		return zone
	}
	return r.Warehouse
}

// ParseStrategy maps a partition_by value to its KeyFunc. Empty selects ByZone.
func ParseStrategy(name string) (KeyFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zone":
		return ByZone, nil
	case "warehouse":
		return ByWarehouse, nil
	case "tag", "country":
		return ByTag, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, name)
	}
}

// Line converts a result into an order row bound for dest.
func Line(r domain.AllocationResult, dest Destination) domain.TransferLine {
	return domain.TransferLine{
		TransferType:  dest.TransferType,
		FromWarehouse: r.Warehouse,
		ToWarehouse:   dest.Warehouse,
		SKU:           r.SKU,
		FNSKU:         r.FNSKU,
		FromZone:      SourceZone(r),
		ToZone:        dest.Zone,
		Quantity:      r.Quantity,
		Remark:        r.Match.Remark(),
	}
}

// Lines converts every result, keeping order.
func Lines(results []domain.AllocationResult, dest Destination) []domain.TransferLine {
	lines := make([]domain.TransferLine, 0, len(results))
	for _, r := range results {
		lines = append(lines, Line(r, dest))
	}
	return lines
}

// CombinedFileName is the run-wide workbook holding every line. No group
// file is ever given this name.
const CombinedFileName = "transfer_all.xlsx"

// Group is one export unit
type Group struct {
	Key      string                `json:"key"`
	FileName string                `json:"file_name"`
	Lines    []domain.TransferLine `json:"lines"`
}

// Split groups results by key. Groups appear in order of first appearance and
// keep the relative order of their results. Every result lands in exactly one group
// and every group gets a distinct file name.
func Split(results []domain.AllocationResult, dest Destination, key KeyFunc) []Group {
	if key == nil {
		key = ByZone
	}

	index := make(map[string]int)
	names := newFileNames()
	var groups []Group
	for _, r := range results {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, FileName: names.claim(SafeName(k))})
		}
		groups[i].Lines = append(groups[i].Lines, Line(r, dest))
	}
	return groups
}

// fileNames hands out xlsx file names, suffixing _2, _3 ... on collision.
// Names compare case-insensitively so they survive case-folding filesystems.
type fileNames map[string]bool

func newFileNames() fileNames {
	return fileNames{strings.ToLower(CombinedFileName): true}
}

func (n fileNames) claim(base string) string {
	name := base + ".xlsx"
	for i := 2; n[strings.ToLower(name)]; i++ {
		name = fmt.Sprintf("%s_%d.xlsx", base, i)
	}
	n[strings.ToLower(name)] = true
	return name
}

var unsafeChars = strings.NewReplacer("/", "_", `\`, "_")

// SafeName makes a partition key usable as a file name.
func SafeName(key string) string {
	name := unsafeChars.Replace(strings.TrimSpace(key))
	if name == "" {
		return "unassigned"
	}
	return name
}
