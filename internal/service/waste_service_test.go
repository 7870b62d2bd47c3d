package service_test

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type WasteServiceTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *WasteServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *WasteServiceTestSuite) TestCheapWasteAppliesImmediately() {
	f := newFixture(s.T(), decimal.RequireFromString("1000"))

	// 5 kg drawn from the 10 kg batch at cost 1 → cost 5.
	result, err := f.waste.LogWaste(s.ctx, &f.requester, service.LogWasteRequest{
		ItemID:   f.item.ID.String(),
		Quantity: decimal.RequireFromString("5"),
		Category: model.WasteCategorySpoilage,
		Note:     "found moldy",
	})
	s.Require().NoError(err)

	s.True(result.Applied)
	s.Nil(result.ApprovalID)
	s.Equal(model.ApprovalApproved, result.Entry.Status)
	s.True(result.Entry.Cost.Equal(decimal.RequireFromString("5")), "got %s", result.Entry.Cost)
	s.Equal(f.branch.ID, result.Entry.BranchID)

	item := f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("95")))

	var older model.InventoryBatch
	s.Require().NoError(f.db.First(&older, "id = ?", f.batches[0].ID).Error)
	s.True(older.Remaining.Equal(decimal.RequireFromString("5")))
}

func (s *WasteServiceTestSuite) TestWasteCostSpansBatches() {
	f := newFixture(s.T(), decimal.RequireFromString("1000"))

	// 15 kg: 10 from the old batch at 1, 5 from the new batch at 2 → 20.
	result, err := f.waste.LogWaste(s.ctx, &f.requester, service.LogWasteRequest{
		ItemID:   f.item.ID.String(),
		Quantity: decimal.RequireFromString("15"),
		Category: model.WasteCategoryExpired,
	})
	s.Require().NoError(err)
	s.True(result.Entry.Cost.Equal(decimal.RequireFromString("20")), "got %s", result.Entry.Cost)

	var older, newer model.InventoryBatch
	s.Require().NoError(f.db.First(&older, "id = ?", f.batches[0].ID).Error)
	s.Require().NoError(f.db.First(&newer, "id = ?", f.batches[1].ID).Error)
	s.True(older.Remaining.IsZero())
	s.True(newer.Remaining.Equal(decimal.RequireFromString("85")))
}

func (s *WasteServiceTestSuite) TestExpensiveWasteGoesThroughApproval() {
	f := newFixture(s.T(), decimal.RequireFromString("1"))

	result, err := f.waste.LogWaste(s.ctx, &f.requester, service.LogWasteRequest{
		ItemID:   f.item.ID.String(),
		Quantity: decimal.RequireFromString("5"),
		Category: model.WasteCategoryPlate,
	})
	s.Require().NoError(err)

	s.False(result.Applied)
	s.Require().NotNil(result.ApprovalID)
	s.Equal(model.ApprovalPending, result.Entry.Status)
	s.Require().Len(f.events.Created(), 1)
	s.Equal(result.ApprovalID.String(), f.events.Created()[0].ApprovalID)

	item := f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("100")))

	_, err = f.approvals.ProcessApprovalDecision(s.ctx, *result.ApprovalID, service.Decision{
		Status: model.ApprovalApproved,
	}, f.approver.ID, f.tenant.ID)
	s.Require().NoError(err)

	item = f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("95")), "got %s", item.CurrentStock)

	var entry model.WasteEntry
	s.Require().NoError(f.db.First(&entry, "id = ?", result.Entry.ID).Error)
	s.Equal(model.ApprovalApproved, entry.Status)
}

func (s *WasteServiceTestSuite) TestRejectedWasteLeavesStock() {
	f := newFixture(s.T(), decimal.RequireFromString("1"))

	result, err := f.waste.LogWaste(s.ctx, &f.requester, service.LogWasteRequest{
		ItemID:   f.item.ID.String(),
		Quantity: decimal.RequireFromString("5"),
		Category: model.WasteCategorySpoilage,
	})
	s.Require().NoError(err)

	_, err = f.approvals.ProcessApprovalDecision(s.ctx, *result.ApprovalID, service.Decision{
		Status: model.ApprovalRejected,
		Reason: "retrain staff instead",
	}, f.approver.ID, f.tenant.ID)
	s.Require().NoError(err)

	item := f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("100")))

	var entry model.WasteEntry
	s.Require().NoError(f.db.First(&entry, "id = ?", result.Entry.ID).Error)
	s.Equal(model.ApprovalRejected, entry.Status)
}

func (s *WasteServiceTestSuite) TestInsufficientStockRejected() {
	f := newFixture(s.T(), decimal.RequireFromString("1000"))

	_, err := f.waste.LogWaste(s.ctx, &f.requester, service.LogWasteRequest{
		ItemID:   f.item.ID.String(),
		Quantity: decimal.RequireFromString("500"),
		Category: model.WasteCategorySpoilage,
	})
	s.True(apperror.IsKind(err, apperror.KindValidation))
}

func TestWasteServiceSuite(t *testing.T) {
	suite.Run(t, new(WasteServiceTestSuite))
}
