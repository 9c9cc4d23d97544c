package models

import (
	"context"
	"fmt"
	"time"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/utils"
)

// StockAdjustment records one manual correction. The row itself is write-once;
// its stock effect lives in the ledger entry posted alongside it.
type StockAdjustment struct {
	ID               int                 `gorm:"primary_key" json:"id"`
	ProductId        int                 `gorm:"index;not null" json:"product_id"`
	AdjustmentType   StockAdjustmentType `gorm:"size:20;not null" json:"adjustment_type"`
	QuantityAdjusted int                 `gorm:"not null" json:"quantity_adjusted"`
	Reason           *string             `gorm:"type:text" json:"reason"`
	AdjustmentDate   time.Time           `gorm:"not null" json:"adjustment_date"`
	CreatedBy        int                 `gorm:"not null" json:"created_by"`
	CorrelationId    string              `gorm:"size:36" json:"correlation_id"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockAdjustment struct {
	ProductId        int                 `json:"product_id" validate:"required,gt=0"`
	AdjustmentType   StockAdjustmentType `json:"adjustment_type" validate:"required"`
	QuantityAdjusted int                 `json:"quantity_adjusted" validate:"required"`
	Reason           *string             `json:"reason"`
	AdjustmentDate   time.Time           `json:"adjustment_date" validate:"required"`
}

// Validate enforces the adjustment taxonomy: loss types carry a negative
// quantity, recovery types a positive one, and loss types that feed shrinkage
// review (damaged, theft) need a substantive reason.
func (input *NewStockAdjustment) Validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.AdjustmentType.Valid() {
		return utils.NewValidationError(utils.CodeBadInput,
			fmt.Sprintf("unknown adjustment type %q", input.AdjustmentType))
	}
	if err := utils.ValidateResourceId[Product](ctx, input.ProductId); err != nil {
		return utils.NewValidationError(utils.CodeBadInput, "product not found")
	}

	if input.AdjustmentType.RequiresNegativeQuantity() {
		if input.QuantityAdjusted >= 0 {
			return utils.NewValidationError(utils.CodeBadAdjustSign,
				fmt.Sprintf("adjustment type %s requires a negative quantity", input.AdjustmentType))
		}
	} else if input.QuantityAdjusted <= 0 {
		return utils.NewValidationError(utils.CodeBadAdjustSign,
			fmt.Sprintf("adjustment type %s requires a positive quantity", input.AdjustmentType))
	}

	if input.AdjustmentType.RequiresReason() {
		if input.Reason == nil || utils.TrimmedLen(*input.Reason) <= minAdjustmentReasonLen {
			return utils.NewValidationError(utils.CodeReasonRequired,
				fmt.Sprintf("adjustment type %s requires a reason longer than %d characters", input.AdjustmentType, minAdjustmentReasonLen))
		}
	}
	return nil
}

func GetStockAdjustment(ctx context.Context, id int) (*StockAdjustment, error) {
	return utils.FetchModel[StockAdjustment](ctx, id)
}

func GetStockAdjustments(ctx context.Context, productId *int) ([]*StockAdjustment, error) {
	db := config.GetDB()
	var results []*StockAdjustment

	dbCtx := db.WithContext(ctx)
	if productId != nil && *productId > 0 {
		dbCtx = dbCtx.Where("product_id = ?", *productId)
	}
	if err := dbCtx.Order("adjustment_date, id").Find(&results).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return results, nil
}
