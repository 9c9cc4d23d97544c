package workflow

import (
	"context"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/models"
	"github.com/warelane/inventory_backend/utils"
)

// PostAdjustment validates a manual correction against the adjustment taxonomy
// and, when it passes, writes the adjustment row plus its ledger entry in one
// transaction. The two rows share a correlation id; the movement's reference
// points back at the adjustment. Either both land or neither does.
func PostAdjustment(ctx context.Context, input *models.NewStockAdjustment) (*models.StockAdjustment, *models.StockMovement, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, nil, err
	}
	createdBy, ok := utils.GetUserIdFromContext(ctx)
	if !ok || createdBy <= 0 {
		return nil, nil, utils.NewValidationError(utils.CodeBadInput, "actor is required")
	}

	ctx = utils.SetCorrelationIdInContext(ctx, utils.CorrelationIdFromContextOrNew(ctx))

	db := config.GetDB()
	tx := db.Begin()

	if err := AcquireProductPostingLock(tx, input.ProductId); err != nil {
		tx.Rollback()
		return nil, nil, utils.NewTransientError(err)
	}
	defer ReleaseProductPostingLock(tx, input.ProductId)

	adjustment := models.StockAdjustment{
		ProductId:        input.ProductId,
		AdjustmentType:   input.AdjustmentType,
		QuantityAdjusted: input.QuantityAdjusted,
		Reason:           input.Reason,
		AdjustmentDate:   input.AdjustmentDate,
		CreatedBy:        createdBy,
		CorrelationId:    utils.CorrelationIdFromContextOrNew(ctx),
	}
	if err := tx.WithContext(ctx).Create(&adjustment).Error; err != nil {
		tx.Rollback()
		return nil, nil, utils.NewTransientError(err)
	}

	movement, err := models.PostStockMovement(ctx, tx, &models.NewStockMovement{
		ProductId:      input.ProductId,
		MovementType:   models.MovementTypeAdjustment,
		QuantityChange: input.QuantityAdjusted,
		ReferenceType:  models.ReferenceAdjustment,
		ReferenceId:    &adjustment.ID,
		MovementDate:   input.AdjustmentDate,
	}, createdBy)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "workflow", "PostAdjustment", "commit", adjustment, err)
		return nil, nil, utils.NewTransientError(err)
	}
	return &adjustment, movement, nil
}
