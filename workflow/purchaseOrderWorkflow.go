package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/models"
	"github.com/warelane/inventory_backend/utils"
)

// TransitionPurchaseOrder moves an order to newStatus through the state machine.
// Lifecycle dates are stamped here and only here: ordered_date on draft->ordered,
// received_date on ordered->received. Transitioning to received receives every
// outstanding line balance, so the stock arrives through the ledger like any
// other receipt. when defaults to now.
func TransitionPurchaseOrder(ctx context.Context, id int, newStatus models.PurchaseOrderStatus, when *time.Time) (*models.PurchaseOrder, error) {
	if !newStatus.Valid() {
		return nil, utils.NewValidationError(utils.CodeBadInput,
			fmt.Sprintf("unknown status %q", newStatus))
	}
	createdBy, ok := utils.GetUserIdFromContext(ctx)
	if !ok || createdBy <= 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "actor is required")
	}

	at := time.Now()
	if when != nil {
		at = *when
	}
	ctx = utils.SetCorrelationIdInContext(ctx, utils.CorrelationIdFromContextOrNew(ctx))

	db := config.GetDB()
	tx := db.Begin()

	order, err := models.FetchPurchaseOrderForUpdate(ctx, tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !order.Status.CanTransitionTo(newStatus) {
		tx.Rollback()
		return nil, utils.NewValidationError(utils.CodeBadTransition,
			fmt.Sprintf("cannot transition from %s to %s", order.Status, newStatus))
	}

	updates := map[string]interface{}{"Status": newStatus}
	switch newStatus {
	case models.PurchaseOrderStatusOrdered:
		if order.ExpectedDeliveryDate != nil && order.ExpectedDeliveryDate.Before(at) {
			tx.Rollback()
			return nil, utils.NewValidationError(utils.CodeDateRule, "expected delivery predates the order date")
		}
		updates["OrderedDate"] = at
	case models.PurchaseOrderStatusReceived:
		if order.OrderedDate != nil && at.Before(*order.OrderedDate) {
			tx.Rollback()
			return nil, utils.NewValidationError(utils.CodeDateRule, "received date predates the ordered date")
		}
		updates["ReceivedDate"] = at

		for i := range order.Items {
			item := &order.Items[i]
			outstanding := item.OutstandingQuantity()
			if outstanding <= 0 {
				continue
			}
			if err := AcquireProductPostingLock(tx, item.ProductId); err != nil {
				tx.Rollback()
				return nil, utils.NewTransientError(err)
			}
			defer ReleaseProductPostingLock(tx, item.ProductId)

			if _, err := models.PostStockMovement(ctx, tx, &models.NewStockMovement{
				ProductId:      item.ProductId,
				MovementType:   models.MovementTypeIn,
				QuantityChange: outstanding,
				ReferenceType:  models.ReferencePurchaseOrder,
				ReferenceId:    &order.ID,
				MovementDate:   at,
			}, createdBy); err != nil {
				tx.Rollback()
				return nil, err
			}
			if err := tx.WithContext(ctx).Model(item).Updates(map[string]interface{}{
				"QuantityReceived": item.QuantityOrdered,
			}).Error; err != nil {
				tx.Rollback()
				return nil, utils.NewTransientError(err)
			}
			item.QuantityReceived = item.QuantityOrdered
		}
	}

	if err := tx.WithContext(ctx).Model(order).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewTransientError(err)
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "workflow", "TransitionPurchaseOrder", "commit", order.PoNumber, err)
		return nil, utils.NewTransientError(err)
	}
	return order, nil
}

// ReceivePurchaseOrderLine books a partial or full delivery against one line of
// an ordered purchase order. The receipt lands in the ledger as an in movement
// referencing the order; when it completes the last open line the order flips to
// received in the same transaction.
func ReceivePurchaseOrderLine(ctx context.Context, orderId int, productId int, quantity int, when *time.Time) (*models.PurchaseOrder, *models.StockMovement, error) {
	if quantity <= 0 {
		return nil, nil, utils.NewValidationError(utils.CodeBadInput, "receipt quantity must be positive")
	}
	createdBy, ok := utils.GetUserIdFromContext(ctx)
	if !ok || createdBy <= 0 {
		return nil, nil, utils.NewValidationError(utils.CodeBadInput, "actor is required")
	}

	at := time.Now()
	if when != nil {
		at = *when
	}
	ctx = utils.SetCorrelationIdInContext(ctx, utils.CorrelationIdFromContextOrNew(ctx))

	db := config.GetDB()
	tx := db.Begin()

	if err := AcquireProductPostingLock(tx, productId); err != nil {
		tx.Rollback()
		return nil, nil, utils.NewTransientError(err)
	}
	defer ReleaseProductPostingLock(tx, productId)

	order, err := models.FetchPurchaseOrderForUpdate(ctx, tx, orderId)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if order.Status != models.PurchaseOrderStatusOrdered {
		tx.Rollback()
		return nil, nil, utils.NewValidationError(utils.CodeBadTransition,
			fmt.Sprintf("order in status %s cannot receive stock", order.Status))
	}
	if order.OrderedDate != nil && at.Before(*order.OrderedDate) {
		tx.Rollback()
		return nil, nil, utils.NewValidationError(utils.CodeDateRule, "receipt date predates the ordered date")
	}

	var line *models.PurchaseOrderItem
	for i := range order.Items {
		if order.Items[i].ProductId == productId {
			line = &order.Items[i]
			break
		}
	}
	if line == nil {
		tx.Rollback()
		return nil, nil, utils.NewValidationError(utils.CodeBadInput,
			fmt.Sprintf("product %d is not on order %s", productId, order.PoNumber))
	}
	if quantity > line.OutstandingQuantity() {
		tx.Rollback()
		return nil, nil, utils.NewValidationError(utils.CodeOverReceipt,
			fmt.Sprintf("receipt of %d exceeds the outstanding %d on order %s", quantity, line.OutstandingQuantity(), order.PoNumber))
	}

	movement, err := models.PostStockMovement(ctx, tx, &models.NewStockMovement{
		ProductId:      productId,
		MovementType:   models.MovementTypeIn,
		QuantityChange: quantity,
		ReferenceType:  models.ReferencePurchaseOrder,
		ReferenceId:    &order.ID,
		MovementDate:   at,
	}, createdBy)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	line.QuantityReceived += quantity
	if err := tx.WithContext(ctx).Model(line).Updates(map[string]interface{}{
		"QuantityReceived": line.QuantityReceived,
	}).Error; err != nil {
		tx.Rollback()
		return nil, nil, utils.NewTransientError(err)
	}

	allReceived := true
	for _, item := range order.Items {
		if item.OutstandingQuantity() > 0 {
			allReceived = false
			break
		}
	}
	if allReceived {
		order.Status = models.PurchaseOrderStatusReceived
		order.ReceivedDate = &at
		if err := tx.WithContext(ctx).Model(order).Updates(map[string]interface{}{
			"Status":       models.PurchaseOrderStatusReceived,
			"ReceivedDate": at,
		}).Error; err != nil {
			tx.Rollback()
			return nil, nil, utils.NewTransientError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "workflow", "ReceivePurchaseOrderLine", "commit", order.PoNumber, err)
		return nil, nil, utils.NewTransientError(err)
	}
	return order, movement, nil
}
