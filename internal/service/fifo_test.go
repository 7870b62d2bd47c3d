package service_test

import (
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batch(remaining, unitCost string, age time.Duration) model.InventoryBatch {
	return model.InventoryBatch{
		ID:         uuid.New(),
		Remaining:  decimal.RequireFromString(remaining),
		UnitCost:   decimal.RequireFromString(unitCost),
		ReceivedAt: time.Now().Add(-age),
	}
}

func TestPlanFIFOSingleBatch(t *testing.T) {
	batches := []model.InventoryBatch{batch("10", "2", time.Hour)}

	draws, cost, err := service.PlanFIFO(batches, decimal.RequireFromString("4"))
	require.NoError(t, err)
	require.Len(t, draws, 1)

	assert.True(t, draws[0].Quantity.Equal(decimal.RequireFromString("4")))
	assert.True(t, cost.Equal(decimal.RequireFromString("8")))
}

func TestPlanFIFOSpansBatchesOldestFirst(t *testing.T) {
	old := batch("10", "1", 48*time.Hour)
	recent := batch("90", "2", time.Hour)

	draws, cost, err := service.PlanFIFO([]model.InventoryBatch{old, recent}, decimal.RequireFromString("15"))
	require.NoError(t, err)
	require.Len(t, draws, 2)

	assert.Equal(t, old.ID, draws[0].BatchID)
	assert.True(t, draws[0].Quantity.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, recent.ID, draws[1].BatchID)
	assert.True(t, draws[1].Quantity.Equal(decimal.RequireFromString("5")))
	// 10*1 + 5*2
	assert.True(t, cost.Equal(decimal.RequireFromString("20")), "got %s", cost)
}

func TestPlanFIFOSkipsEmptyBatches(t *testing.T) {
	empty := batch("0", "1", 72*time.Hour)
	live := batch("10", "3", time.Hour)

	draws, cost, err := service.PlanFIFO([]model.InventoryBatch{empty, live}, decimal.RequireFromString("2"))
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, live.ID, draws[0].BatchID)
	assert.True(t, cost.Equal(decimal.RequireFromString("6")))
}

func TestPlanFIFOInsufficientStock(t *testing.T) {
	batches := []model.InventoryBatch{batch("3", "1", time.Hour)}

	_, _, err := service.PlanFIFO(batches, decimal.RequireFromString("5"))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestPlanFIFORejectsNonPositiveQuantity(t *testing.T) {
	batches := []model.InventoryBatch{batch("3", "1", time.Hour)}

	_, _, err := service.PlanFIFO(batches, decimal.Zero)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, _, err = service.PlanFIFO(batches, decimal.RequireFromString("-1"))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
