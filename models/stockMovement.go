package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/utils"
)

// StockMovement is one entry of the append-only movement ledger. Rows are
// write-once: the package exposes no update or delete path for them.
type StockMovement struct {
	ID             int                `gorm:"primary_key" json:"id"`
	ProductId      int                `gorm:"index;not null" json:"product_id"`
	MovementType   StockMovementType  `gorm:"size:20;not null" json:"movement_type"`
	QuantityChange int                `gorm:"not null" json:"quantity_change"`
	QuantityBefore int                `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int                `gorm:"not null" json:"quantity_after"`
	ReferenceType  StockReferenceType `gorm:"size:20;not null" json:"reference_type"`
	ReferenceId    *int               `gorm:"index" json:"reference_id"`
	MovementDate   time.Time          `gorm:"not null" json:"movement_date"`
	CreatedBy      int                `gorm:"not null" json:"created_by"`
	CorrelationId  string             `gorm:"size:36" json:"correlation_id"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockMovement struct {
	ProductId      int                `json:"product_id" validate:"required,gt=0"`
	MovementType   StockMovementType  `json:"movement_type" validate:"required"`
	QuantityChange int                `json:"quantity_change" validate:"required"`
	ReferenceType  StockReferenceType `json:"reference_type" validate:"required"`
	ReferenceId    *int               `json:"reference_id" validate:"omitempty,gt=0"`
	MovementDate   time.Time          `json:"movement_date" validate:"required"`
}

func (input *NewStockMovement) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.MovementType.Valid() {
		return utils.NewValidationError(utils.CodeBadInput,
			fmt.Sprintf("unknown movement type %q", input.MovementType))
	}
	if !input.ReferenceType.Valid() {
		return utils.NewValidationError(utils.CodeBadReferenceKind,
			fmt.Sprintf("unknown reference type %q", input.ReferenceType))
	}
	switch input.MovementType {
	case MovementTypeIn:
		if input.QuantityChange <= 0 {
			return utils.NewValidationError(utils.CodeSignMismatch, "movement type in requires a positive quantity change")
		}
	case MovementTypeOut:
		if input.QuantityChange >= 0 {
			return utils.NewValidationError(utils.CodeSignMismatch, "movement type out requires a negative quantity change")
		}
	case MovementTypeAdjustment:
		if input.QuantityChange == 0 {
			return utils.NewValidationError(utils.CodeSignMismatch, "adjustment requires a non-zero quantity change")
		}
	}
	return nil
}

// PostStockMovement appends one ledger entry and moves the product's snapshot in
// the same transaction. quantity_before is the snapshot's available quantity read
// under a row lock, so concurrent postings against one product serialize and the
// second poster sees the first one's quantity_after. Everything is rejected before
// any write on an invariant violation.
func PostStockMovement(ctx context.Context, tx *gorm.DB, input *NewStockMovement, createdBy int) (*StockMovement, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if createdBy <= 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "actor is required")
	}

	var inv ProductInventory
	if err := utils.LockForUpdate(tx.WithContext(ctx)).
		Where("product_id = ?", input.ProductId).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, utils.NewTransientError(err)
	}

	before := inv.QuantityAvailable
	after := before + input.QuantityChange
	if before < 0 || after < 0 {
		return nil, utils.NewValidationError(utils.CodeNegativeStock,
			fmt.Sprintf("movement would drive quantity below zero (before=%d change=%d)", before, input.QuantityChange))
	}

	// postings never touch the committed quantity; available stays derivable as
	// on_hand - committed
	newOnHand := inv.QuantityOnHand + input.QuantityChange
	if newOnHand-inv.QuantityCommitted != after {
		return nil, utils.NewValidationError(utils.CodeArithMismatch,
			fmt.Sprintf("snapshot out of reconciliation for product %d", input.ProductId))
	}

	movement := StockMovement{
		ProductId:      input.ProductId,
		MovementType:   input.MovementType,
		QuantityChange: input.QuantityChange,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceType:  input.ReferenceType,
		ReferenceId:    input.ReferenceId,
		MovementDate:   input.MovementDate,
		CreatedBy:      createdBy,
		CorrelationId:  utils.CorrelationIdFromContextOrNew(ctx),
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}

	updates := map[string]interface{}{
		"QuantityOnHand":    newOnHand,
		"QuantityAvailable": after,
	}
	if input.MovementType == MovementTypeIn && input.ReferenceType == ReferencePurchaseOrder {
		updates["LastRestockedAt"] = input.MovementDate
		// a count taken before this restock is stale; drop it instead of leaving
		// last_counted_at behind last_restocked_at
		if inv.LastCountedAt != nil && inv.LastCountedAt.Before(input.MovementDate) {
			updates["LastCountedAt"] = nil
		}
	}
	if input.MovementType == MovementTypeAdjustment {
		if inv.LastRestockedAt != nil && input.MovementDate.Before(*inv.LastRestockedAt) {
			return nil, utils.NewValidationError(utils.CodeDateRule, "count date predates the last restock")
		}
		updates["LastCountedAt"] = input.MovementDate
	}

	if err := tx.WithContext(ctx).Model(&inv).Updates(updates).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return &movement, nil
}

// CreateStockMovement is the standalone posting entry point: one movement, one
// transaction. The actor comes from the caller's context.
func CreateStockMovement(ctx context.Context, input *NewStockMovement) (*StockMovement, error) {
	createdBy, ok := utils.GetUserIdFromContext(ctx)
	if !ok || createdBy <= 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "actor is required")
	}

	db := config.GetDB()
	tx := db.Begin()

	movement, err := PostStockMovement(ctx, tx, input, createdBy)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return movement, nil
}

func GetStockMovement(ctx context.Context, id int) (*StockMovement, error) {
	return utils.FetchModel[StockMovement](ctx, id)
}

func GetStockMovements(ctx context.Context, productId *int) ([]*StockMovement, error) {
	db := config.GetDB()
	var results []*StockMovement

	dbCtx := db.WithContext(ctx)
	if productId != nil && *productId > 0 {
		dbCtx = dbCtx.Where("product_id = ?", *productId)
	}
	if err := dbCtx.Order("movement_date, id").Find(&results).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return results, nil
}
