package models

import (
	"context"
	"time"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/utils"
)

// ProductInventory is the derived quantity snapshot, one row per product.
// quantity_available is always quantity_on_hand - quantity_committed. The stock
// ledger is its single writer: the row is created with its product and from then on
// mutated only inside PostStockMovement. There is deliberately no exported mutator.
type ProductInventory struct {
	ID                int        `gorm:"primary_key" json:"id"`
	ProductId         int        `gorm:"uniqueIndex;not null" json:"product_id"`
	QuantityOnHand    int        `gorm:"not null;default:0" json:"quantity_on_hand"`
	QuantityCommitted int        `gorm:"not null;default:0" json:"quantity_committed"`
	QuantityAvailable int        `gorm:"not null;default:0" json:"quantity_available"`
	LastRestockedAt   *time.Time `json:"last_restocked_at"`
	LastCountedAt     *time.Time `json:"last_counted_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetProductInventory(ctx context.Context, productId int) (*ProductInventory, error) {
	db := config.GetDB()
	var inv ProductInventory
	if err := db.WithContext(ctx).Where("product_id = ?", productId).First(&inv).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &inv, nil
}
