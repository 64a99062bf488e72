package plan_test

import (
	"errors"
	"testing"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
	"github.com/andresuchdata/autotransfer/backend-go/internal/plan"
	"github.com/andresuchdata/autotransfer/backend-go/internal/sheet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func record(id int, sku, fnsku string, avail int64) *domain.InventoryRecord {
	return &domain.InventoryRecord{ID: id, SKU: sku, FNSKU: fnsku, Warehouse: "外协West", Available: qty(avail)}
}

func TestLoad_AggregatesBySKUAndFNSKU(t *testing.T) {
	raw := sheet.Raw{
		{"提货计划"},
		{"SKU", "FNSKU", "需求数量"},
		{"A1", "F1", "3"},
		{" A1 ", "F1", "2"},
		{"A2", "F2", "x"},
	}

	b, err := plan.Load(raw)
	require.NoError(t, err)

	res := b.Reservations()
	require.Len(t, res, 2)
	assert.Equal(t, "A1", res[0].SKU)
	assert.Equal(t, "5", res[0].Reserved.String())
	assert.True(t, res[1].Reserved.IsZero())
}

func TestLoad_PropagatesSchemaErrors(t *testing.T) {
	_, err := plan.Load(sheet.Raw{{"nothing"}, {"here"}})
	var notFound *domain.SchemaNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = plan.Load(sheet.Raw{{"SKU", "备注"}})
	var missing *domain.MissingRequiredColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, domain.RolePlanQuantity, missing.Role)
}

func TestDeduct_ConsumesInRecordOrder(t *testing.T) {
	// GIVEN: 7 units reserved across two racks holding 5 and 4
	b := plan.NewBalances([]domain.PlanReservation{{SKU: "A1", FNSKU: "F1", Reserved: qty(7)}})
	records := []*domain.InventoryRecord{
		record(0, "A1", "F1", 5),
		record(1, "A1", "F2", 9),
		record(2, "A1", "F1", 4),
	}

	// WHEN
	total := b.Deduct(records)

	// THEN
	assert.Equal(t, "7", total.String())
	assert.True(t, records[0].Available.IsZero())
	assert.Equal(t, "9", records[1].Available.String(), "other FNSKU untouched")
	assert.Equal(t, "2", records[2].Available.String())
	assert.True(t, b.Remaining("A1", "F1").IsZero())
}

func TestDeduct_ReservationLargerThanStock(t *testing.T) {
	b := plan.NewBalances([]domain.PlanReservation{{SKU: "A1", FNSKU: "F1", Reserved: qty(50)}})
	records := []*domain.InventoryRecord{record(0, "A1", "F1", 5)}

	total := b.Deduct(records)

	assert.Equal(t, "5", total.String())
	assert.True(t, records[0].Available.IsZero(), "never below zero")
	assert.Equal(t, "45", b.Remaining("A1", "F1").String())
}

func TestDeduct_NoMatchingReservation(t *testing.T) {
	b := plan.NewBalances(nil)
	records := []*domain.InventoryRecord{record(0, "A1", "F1", 5)}

	assert.True(t, b.Deduct(records).IsZero())
	assert.Equal(t, "5", records[0].Available.String())
}
