package partition_test

import (
	"testing"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/partition"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(warehouse, zone, tag string, q int64, kind domain.MatchKind) domain.AllocationResult {
	return domain.AllocationResult{
		Warehouse: warehouse,
		Zone:      zone,
		Tag:       tag,
		SKU:       "A1",
		FNSKU:     "F1",
		Quantity:  decimal.NewFromInt(q),
		Match:     kind,
	}
}

func TestLine_AttachesDestinationAndRemark(t *testing.T) {
	l := partition.Line(result("外协West", "", "", 6, domain.MatchSubstituted), partition.DefaultDestination)

	assert.Equal(t, "组织内调拨", l.TransferType)
	assert.Equal(t, "DLM供应链亚马逊深圳仓-SZ", l.ToWarehouse)
	assert.Equal(t, "成品-存储1区", l.ToZone)
	assert.Equal(t, "外协West", l.FromZone, "blank zone falls back to warehouse")
	assert.Equal(t, "自动补位", l.Remark)
	assert.Equal(t, []string{"组织内调拨", "外协West", "DLM供应链亚马逊深圳仓-SZ", "A1", "F1", "外协West", "成品-存储1区", "6", "自动补位"}, l.Values())
}

func TestSplit_ByZonePreservesOrder(t *testing.T) {
	results := []domain.AllocationResult{
		result("外协West", "Z1", "", 1, domain.MatchExact),
		result("外协East", "", "", 2, domain.MatchExact),
		result("外协West", "Z1", "", 3, domain.MatchSubstituted),
		result("外协East", "  ", "", 4, domain.MatchExact),
	}

	groups := partition.Split(results, partition.DefaultDestination, partition.ByZone)

	require.Len(t, groups, 2)
	assert.Equal(t, "Z1", groups[0].Key)
	assert.Equal(t, "Z1.xlsx", groups[0].FileName)
	require.Len(t, groups[0].Lines, 2)
	assert.Equal(t, "1", groups[0].Lines[0].Quantity.String())
	assert.Equal(t, "3", groups[0].Lines[1].Quantity.String())

	assert.Equal(t, "外协East", groups[1].Key)
	assert.Len(t, groups[1].Lines, 2)

	total := 0
	for _, g := range groups {
		total += len(g.Lines)
	}
	assert.Equal(t, len(results), total, "every result lands in exactly one group")
}

func TestSplit_ByTagFallsBackToZone(t *testing.T) {
	results := []domain.AllocationResult{
		result("外协West", "Z1", "US", 1, domain.MatchExact),
		result("外协West", "Z1", "", 1, domain.MatchExact),
		result("外协East", "Z2", "US", 1, domain.MatchExact),
	}

	groups := partition.Split(results, partition.DefaultDestination, partition.ByTag)

	require.Len(t, groups, 2)
	assert.Equal(t, "US", groups[0].Key)
	assert.Len(t, groups[0].Lines, 2)
	assert.Equal(t, "Z1", groups[1].Key)
}

func TestSplit_CollidingKeysGetDistinctFileNames(t *testing.T) {
	// GIVEN zones that sanitize to the same name and one named like the combined workbook
	results := []domain.AllocationResult{
		result("外协West", "A/B", "", 1, domain.MatchExact),
		result("外协West", "A_B", "", 2, domain.MatchExact),
		result("外协West", "transfer_all", "", 3, domain.MatchExact),
		result("外协West", "a_b", "", 4, domain.MatchExact),
	}

	// WHEN split by zone
	groups := partition.Split(results, partition.DefaultDestination, partition.ByZone)

	// THEN every group keeps its own file
	require.Len(t, groups, 4)
	assert.Equal(t, "A_B.xlsx", groups[0].FileName)
	assert.Equal(t, "A_B_2.xlsx", groups[1].FileName)
	assert.Equal(t, "transfer_all_2.xlsx", groups[2].FileName)
	assert.Equal(t, "a_b_3.xlsx", groups[3].FileName)

	seen := map[string]bool{partition.CombinedFileName: true}
	for _, g := range groups {
		assert.False(t, seen[g.FileName], "duplicate file name %s", g.FileName)
		seen[g.FileName] = true
	}
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, partition.Split(nil, partition.DefaultDestination, nil))
}

func TestParseStrategy(t *testing.T) {
	r := result("外协West", "Z9", "DE", 1, domain.MatchExact)

	tests := []struct {
		name string
		want string
	}{
		{"", "Z9"},
		{"zone", "Z9"},
		{"Warehouse", "外协West"},
		{"country", "DE"},
		{"tag", "DE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := partition.ParseStrategy(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, key(r))
		})
	}

	_, err := partition.ParseStrategy("sku")
	assert.ErrorIs(t, err, partition.ErrUnknownStrategy)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "成品_存储_1区", partition.SafeName("成品/存储\\1区"))
	assert.Equal(t, "unassigned", partition.SafeName(" "))
}
