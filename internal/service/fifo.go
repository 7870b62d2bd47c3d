package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchDraw is one slice of a FIFO allocation: take Quantity from BatchID
// at UnitCost.
type BatchDraw struct {
	BatchID  uuid.UUID
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// PlanFIFO allocates qty across the given batches oldest-first and returns
// the draws plus the total cost of the consumed stock. It only plans; the
// caller applies the draws inside its own transaction. Batches must already
// be ordered by received_at ascending.
func PlanFIFO(batches []model.InventoryBatch, qty decimal.Decimal) ([]BatchDraw, decimal.Decimal, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, apperror.New(apperror.KindValidation, "quantity must be positive, got %s", qty)
	}

	var draws []BatchDraw
	cost := decimal.Zero
	left := qty

	for _, batch := range batches {
		if left.IsZero() {
			break
		}
		if batch.Remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}

		take := decimal.Min(left, batch.Remaining)
		draws = append(draws, BatchDraw{
			BatchID:  batch.ID,
			Quantity: take,
			UnitCost: batch.UnitCost,
		})
		cost = cost.Add(take.Mul(batch.UnitCost))
		left = left.Sub(take)
	}

	if left.GreaterThan(decimal.Zero) {
		return nil, decimal.Zero, apperror.New(apperror.KindValidation,
			"insufficient batch stock: short by %s", left)
	}

	return draws, cost, nil
}

// applyDraws consumes each planned draw with a guarded decrement. A batch
// drained by a competing consumer after planning aborts the whole apply so
// the surrounding transaction rolls back.
func applyDraws(ctx context.Context, repo repository.ItemRepository, draws []BatchDraw) error {
	for _, draw := range draws {
		affected, err := repo.ConsumeBatch(ctx, draw.BatchID, draw.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperror.New(apperror.KindInvalidState,
				"batch %s no longer holds %s", draw.BatchID, draw.Quantity)
		}
	}
	return nil
}
