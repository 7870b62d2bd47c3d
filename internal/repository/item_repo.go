package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.InventoryItem) error
	Update(ctx context.Context, item *model.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.InventoryItem, int64, error)
	// AdjustStock applies a relative stock change in SQL so concurrent
	// writers cannot erase each other's deltas.
	AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	// RestockItem adds a received quantity and records the latest unit cost.
	RestockItem(ctx context.Context, id uuid.UUID, qty, unitCost decimal.Decimal) error

	CreateBatch(ctx context.Context, batch *model.InventoryBatch) error
	// ListBatchesFIFO returns the item's open batches oldest first.
	ListBatchesFIFO(ctx context.Context, itemID uuid.UUID) ([]model.InventoryBatch, error)
	// ConsumeBatch decrements a batch's remainder only while enough is left.
	// Zero rows affected means a competing consumer drained the batch first.
	ConsumeBatch(ctx context.Context, batchID uuid.UUID, qty decimal.Decimal) (int64, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *itemRepository) Update(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.InventoryItem{}).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("tenant_id = ?", tenantID)
	if search != "" {
		db = db.Where("lower(name) LIKE lower(?)", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Branch").Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *itemRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", id).
		Update("current_stock", gorm.Expr("current_stock + ?", delta)).Error
}

func (r *itemRepository) RestockItem(ctx context.Context, id uuid.UUID, qty, unitCost decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_stock": gorm.Expr("current_stock + ?", qty),
			"unit_cost":     unitCost,
		}).Error
}

func (r *itemRepository) CreateBatch(ctx context.Context, batch *model.InventoryBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *itemRepository) ListBatchesFIFO(ctx context.Context, itemID uuid.UUID) ([]model.InventoryBatch, error) {
	var batches []model.InventoryBatch
	if err := GetDB(ctx, r.db).
		Where("item_id = ? AND remaining > 0", itemID).
		Order("received_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *itemRepository) ConsumeBatch(ctx context.Context, batchID uuid.UUID, qty decimal.Decimal) (int64, error) {
	result := GetDB(ctx, r.db).Model(&model.InventoryBatch{}).
		Where("id = ? AND remaining >= ?", batchID, qty).
		Update("remaining", gorm.Expr("remaining - ?", qty))
	return result.RowsAffected, result.Error
}
