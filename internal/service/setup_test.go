package service_test

import (
	"io"
	"sync"
	"testing"
	"time"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/notify"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// recordingNotifier captures emitted events so tests can assert on when a
// broadcast happens relative to the surrounding transaction.
type recordingNotifier struct {
	mu      sync.Mutex
	created []notify.Event
	decided []notify.Event
}

func (r *recordingNotifier) ApprovalCreated(event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, event)
}

func (r *recordingNotifier) ApprovalDecided(event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decided = append(r.decided, event)
}

func (r *recordingNotifier) Created() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.created...)
}

// fixture wires a full service stack over an in-memory store with one
// tenant, one branch, an approver, a requester and a stocked item.
type fixture struct {
	db *gorm.DB

	tenant    model.Tenant
	branch    model.Branch
	approver  model.User
	requester model.User
	item      model.InventoryItem
	batches   []model.InventoryBatch

	itemRepo       repository.ItemRepository
	adjustmentRepo repository.AdjustmentRepository
	wasteRepo      repository.WasteRepository
	approvalRepo   repository.ApprovalRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager

	events *recordingNotifier

	approvals service.ApprovalService
	inventory service.InventoryService
	waste     service.WasteService
}

func newFixture(t *testing.T, threshold decimal.Decimal) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db}

	f.tenant = model.Tenant{Name: "Golden Fork", Slug: "golden-fork-" + uuid.NewString()[:8], Active: true}
	require.NoError(t, db.Create(&f.tenant).Error)

	f.branch = model.Branch{TenantID: f.tenant.ID, Name: "Downtown"}
	require.NoError(t, db.Create(&f.branch).Error)

	f.approver = model.User{
		TenantID: f.tenant.ID,
		Username: "approver-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@approver.test",
		Password: "x",
		Role:     model.RoleRestaurantAdmin,
		Active:   true,
	}
	require.NoError(t, db.Create(&f.approver).Error)

	f.requester = model.User{
		TenantID: f.tenant.ID,
		BranchID: &f.branch.ID,
		Username: "requester-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@requester.test",
		Password: "x",
		Role:     model.RoleBranchAdmin,
		Active:   true,
	}
	require.NoError(t, db.Create(&f.requester).Error)

	f.item = model.InventoryItem{
		TenantID:     f.tenant.ID,
		BranchID:     f.branch.ID,
		SKU:          "TOM-" + uuid.NewString()[:8],
		Name:         "Tomatoes",
		Unit:         "kg",
		CurrentStock: decimal.RequireFromString("100"),
		UnitCost:     decimal.RequireFromString("2"),
		MinStock:     decimal.RequireFromString("10"),
	}
	require.NoError(t, db.Create(&f.item).Error)

	older := model.InventoryBatch{
		ItemID:    f.item.ID,
		Remaining: decimal.RequireFromString("10"),
		UnitCost:  decimal.RequireFromString("1"),
	}
	require.NoError(t, db.Create(&older).Error)
	newer := model.InventoryBatch{
		ItemID:    f.item.ID,
		Remaining: decimal.RequireFromString("90"),
		UnitCost:  decimal.RequireFromString("2"),
	}
	require.NoError(t, db.Create(&newer).Error)
	// Force a stable FIFO order.
	require.NoError(t, db.Model(&model.InventoryBatch{}).Where("id = ?", older.ID).
		Update("received_at", newer.ReceivedAt.Add(-time.Hour)).Error)
	f.batches = []model.InventoryBatch{older, newer}

	logger := testLogger()
	f.txManager = repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	f.itemRepo = repository.NewItemRepository(db)
	f.adjustmentRepo = repository.NewAdjustmentRepository(db)
	f.wasteRepo = repository.NewWasteRepository(db)
	f.approvalRepo = repository.NewApprovalRepository(db)
	f.auditRepo = repository.NewAuditRepository(db)

	f.events = &recordingNotifier{}
	f.approvals = service.NewApprovalService(f.approvalRepo, f.adjustmentRepo, f.wasteRepo, f.itemRepo, userRepo, tenantRepo, f.auditRepo, f.txManager, f.events, logger)
	f.inventory = service.NewInventoryService(f.itemRepo, f.adjustmentRepo, f.auditRepo, f.txManager, f.approvals, f.events, threshold, logger)
	f.waste = service.NewWasteService(f.wasteRepo, f.itemRepo, f.auditRepo, f.txManager, f.approvals, f.events, threshold, logger)

	return f
}

func (f *fixture) reloadItem(t *testing.T) model.InventoryItem {
	t.Helper()
	var item model.InventoryItem
	require.NoError(t, f.db.First(&item, "id = ?", f.item.ID).Error)
	return item
}

func (f *fixture) adjustmentPayload(delta string) service.RequestPayload {
	return service.RequestPayload{Adjustment: &service.AdjustmentPayload{
		ItemID:         f.item.ID.String(),
		ItemName:       f.item.Name,
		Unit:           f.item.Unit,
		Delta:          decimal.RequireFromString(delta),
		Reason:         "cycle count",
		EstimatedValue: decimal.RequireFromString(delta).Abs().Mul(f.item.UnitCost),
	}}
}

func (f *fixture) wastePayload(qty string) service.RequestPayload {
	return service.RequestPayload{Waste: &service.WastePayload{
		ItemID:   f.item.ID.String(),
		ItemName: f.item.Name,
		Unit:     f.item.Unit,
		Quantity: decimal.RequireFromString(qty),
		Cost:     decimal.RequireFromString(qty),
		Category: model.WasteCategorySpoilage,
	}}
}
