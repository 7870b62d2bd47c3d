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

type InventoryServiceTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *InventoryServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *InventoryServiceTestSuite) TestSmallAdjustmentAppliesImmediately() {
	f := newFixture(s.T(), decimal.RequireFromString("1000"))

	// -5 kg at unit cost 2 is worth 10, well under the threshold.
	result, err := f.inventory.CreateAdjustment(s.ctx, f.requester.ID, f.tenant.ID, service.CreateAdjustmentRequest{
		ItemID: f.item.ID.String(),
		Delta:  decimal.RequireFromString("-5"),
		Reason: "cycle count",
	})
	s.Require().NoError(err)

	s.True(result.Applied)
	s.Nil(result.ApprovalID)
	s.Equal(model.ApprovalApproved, result.Adjustment.Status)

	item := f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("95")), "got %s", item.CurrentStock)
	s.Empty(f.events.Created())
}

func (s *InventoryServiceTestSuite) TestExpensiveAdjustmentGoesThroughApproval() {
	f := newFixture(s.T(), decimal.RequireFromString("1"))

	result, err := f.inventory.CreateAdjustment(s.ctx, f.requester.ID, f.tenant.ID, service.CreateAdjustmentRequest{
		ItemID: f.item.ID.String(),
		Delta:  decimal.RequireFromString("-5"),
		Reason: "cycle count",
	})
	s.Require().NoError(err)

	s.False(result.Applied)
	s.Require().NotNil(result.ApprovalID)
	s.Equal(model.ApprovalPending, result.Adjustment.Status)

	// Nothing moves until the decision.
	item := f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("100")))

	var approval model.ApprovalRequest
	s.Require().NoError(f.db.First(&approval, "id = ?", result.ApprovalID).Error)
	s.Equal(model.ApprovalPending, approval.Status)
	s.Equal(model.RequestTypeInventoryAdjustment, approval.RequestType)

	// One broadcast for the new request, emitted after the commit.
	s.Require().Len(f.events.Created(), 1)
	s.Equal(result.ApprovalID.String(), f.events.Created()[0].ApprovalID)

	_, err = f.approvals.ProcessApprovalDecision(s.ctx, *result.ApprovalID, service.Decision{
		Status: model.ApprovalApproved,
	}, f.approver.ID, f.tenant.ID)
	s.Require().NoError(err)

	item = f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("95")), "got %s", item.CurrentStock)

	var child model.InventoryAdjustment
	s.Require().NoError(f.db.First(&child, "id = ?", result.Adjustment.ID).Error)
	s.Equal(model.ApprovalApproved, child.Status)
}

func (s *InventoryServiceTestSuite) TestZeroDeltaRejected() {
	f := newFixture(s.T(), decimal.RequireFromString("1000"))

	_, err := f.inventory.CreateAdjustment(s.ctx, f.requester.ID, f.tenant.ID, service.CreateAdjustmentRequest{
		ItemID: f.item.ID.String(),
		Delta:  decimal.Zero,
		Reason: "noop",
	})
	s.True(apperror.IsKind(err, apperror.KindValidation))
}

func (s *InventoryServiceTestSuite) TestReceiveBatchBumpsStockAndCost() {
	f := newFixture(s.T(), decimal.RequireFromString("1000"))

	batch, err := f.inventory.ReceiveBatch(s.ctx, f.requester.ID, f.tenant.ID, service.ReceiveBatchRequest{
		ItemID:   f.item.ID.String(),
		Quantity: decimal.RequireFromString("20"),
		UnitCost: decimal.RequireFromString("3"),
	})
	s.Require().NoError(err)
	s.True(batch.Remaining.Equal(decimal.RequireFromString("20")))

	item := f.reloadItem(s.T())
	s.True(item.CurrentStock.Equal(decimal.RequireFromString("120")), "got %s", item.CurrentStock)
	s.True(item.UnitCost.Equal(decimal.RequireFromString("3")))
}

func (s *InventoryServiceTestSuite) TestItemCRUDAndSearch() {
	f := newFixture(s.T(), decimal.RequireFromString("1000"))

	created, err := f.inventory.CreateItem(s.ctx, f.requester.ID, f.tenant.ID, service.CreateItemRequest{
		BranchID: f.branch.ID.String(),
		SKU:      "ONION-1",
		Name:     "Red Onions",
		Unit:     "kg",
		MinStock: decimal.RequireFromString("5"),
	})
	s.Require().NoError(err)

	items, total, err := f.inventory.GetItems(s.ctx, f.tenant.ID, 1, 20, "onion")
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(items, 1)
	s.Equal(created.ID, items[0].ID)

	updated, err := f.inventory.UpdateItem(s.ctx, f.requester.ID, f.tenant.ID, created.ID, service.UpdateItemRequest{
		Name:     "Yellow Onions",
		Unit:     "kg",
		MinStock: decimal.RequireFromString("8"),
	})
	s.Require().NoError(err)
	s.Equal("Yellow Onions", updated.Name)

	s.Require().NoError(f.inventory.DeleteItem(s.ctx, f.requester.ID, f.tenant.ID, created.ID))

	_, _, err = f.inventory.GetItems(s.ctx, f.tenant.ID, 1, 20, "onion")
	s.NoError(err)
	_, err = f.inventory.UpdateItem(s.ctx, f.requester.ID, f.tenant.ID, created.ID, service.UpdateItemRequest{Name: "x", Unit: "kg"})
	s.True(apperror.IsKind(err, apperror.KindNotFound))
}

func TestInventoryServiceSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}
