package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/utils"
)

type PurchaseOrder struct {
	ID                   int                 `gorm:"primary_key" json:"id"`
	PoNumber             string              `gorm:"uniqueIndex;size:50;not null" json:"po_number"`
	SupplierId           int                 `gorm:"index;not null" json:"supplier_id"`
	Status               PurchaseOrderStatus `gorm:"size:20;not null;default:draft" json:"status"`
	TotalAmount          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	OrderedDate          *time.Time          `json:"ordered_date"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date"`
	ReceivedDate         *time.Time          `json:"received_date"`
	Notes                string              `gorm:"type:text" json:"notes"`
	CreatedBy            int                 `gorm:"not null" json:"created_by"`
	CreatedAt            time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderId" json:"items"`
}

// PurchaseOrderItem is one product line. A product appears at most once per
// order; quantity_received grows from 0 to quantity_ordered through receipts.
type PurchaseOrderItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId  int             `gorm:"not null;uniqueIndex:idx_po_items_order_product" json:"purchase_order_id"`
	ProductId        int             `gorm:"not null;uniqueIndex:idx_po_items_order_product" json:"product_id"`
	QuantityOrdered  int             `gorm:"not null" json:"quantity_ordered"`
	QuantityReceived int             `gorm:"not null;default:0" json:"quantity_received"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_cost"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (item PurchaseOrderItem) OutstandingQuantity() int {
	return item.QuantityOrdered - item.QuantityReceived
}

type NewPurchaseOrderItem struct {
	ProductId       int             `json:"product_id" validate:"required,gt=0"`
	QuantityOrdered int             `json:"quantity_ordered" validate:"required,gt=0"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

type NewPurchaseOrder struct {
	// PoNumber is taken as-is when supplied (still unique); allocated from the PO
	// series when empty.
	PoNumber             string                 `json:"po_number" validate:"max=50"`
	SupplierId           int                    `json:"supplier_id" validate:"required,gt=0"`
	ExpectedDeliveryDate *time.Time             `json:"expected_delivery_date"`
	Notes                string                 `json:"notes"`
	Items                []NewPurchaseOrderItem `json:"items" validate:"required,min=1,dive"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPurchaseOrder) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, input.SupplierId)
	if err != nil {
		return utils.NewValidationError(utils.CodeBadInput, "supplier not found")
	}
	if supplier.IsActive == nil || !*supplier.IsActive {
		return utils.NewValidationError(utils.CodeInactiveRef, "supplier is inactive")
	}

	seen := make(map[int]bool, len(input.Items))
	for _, item := range input.Items {
		if seen[item.ProductId] {
			return utils.NewConflictError(utils.CodeDuplicateOrderLine,
				fmt.Sprintf("product %d appears on more than one line", item.ProductId))
		}
		seen[item.ProductId] = true

		if item.UnitCost.IsNegative() {
			return utils.NewValidationError(utils.CodeBadInput, "unit cost cannot be negative")
		}
		if err := utils.ValidateResourceId[Product](ctx, item.ProductId); err != nil {
			return utils.NewValidationError(utils.CodeBadInput,
				fmt.Sprintf("product %d not found", item.ProductId))
		}
	}

	if input.PoNumber != "" {
		if err := utils.ValidateUnique[PurchaseOrder](ctx, "po_number", input.PoNumber, id, utils.CodeDuplicatePoNumber); err != nil {
			return err
		}
	}
	return nil
}

func buildOrderItems(orderId int, inputs []NewPurchaseOrderItem) ([]PurchaseOrderItem, decimal.Decimal) {
	items := make([]PurchaseOrderItem, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		lineTotal := in.UnitCost.Mul(decimal.NewFromInt(int64(in.QuantityOrdered)))
		items = append(items, PurchaseOrderItem{
			PurchaseOrderId: orderId,
			ProductId:       in.ProductId,
			QuantityOrdered: in.QuantityOrdered,
			UnitCost:        in.UnitCost,
			LineTotal:       lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total
}

// CreatePurchaseOrder stores a draft order with its lines. total_amount is always
// the sum of the line totals, never caller supplied. Lifecycle dates start null and
// are stamped by transitions only.
func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	createdBy, ok := utils.GetUserIdFromContext(ctx)
	if !ok || createdBy <= 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "actor is required")
	}

	order := PurchaseOrder{
		PoNumber:             input.PoNumber,
		SupplierId:           input.SupplierId,
		Status:               PurchaseOrderStatusDraft,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		Notes:                input.Notes,
		CreatedBy:            createdBy,
	}

	db := config.GetDB()
	tx := db.Begin()

	if order.PoNumber == "" {
		poNumber, err := NextIdentifier(tx.WithContext(ctx), SeriesPurchaseOrder, time.Now().Year())
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		order.PoNumber = poNumber
	}

	_, total := buildOrderItems(0, input.Items)
	order.TotalAmount = total

	if err := tx.WithContext(ctx).Omit("Items").Create(&order).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflictError(utils.CodeDuplicatePoNumber, "duplicate po number")
		}
		return nil, utils.NewTransientError(err)
	}

	items, _ := buildOrderItems(order.ID, input.Items)
	if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflictError(utils.CodeDuplicateOrderLine, "duplicate order line")
		}
		return nil, utils.NewTransientError(err)
	}
	order.Items = items

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return &order, nil
}

// UpdatePurchaseOrder edits the order header and, while the order is still a
// draft, replaces its lines. An ordered order keeps its lines frozen but may
// still move expected delivery and notes. Terminal orders reject every edit.
func UpdatePurchaseOrder(ctx context.Context, id int, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	order, err := utils.FetchModel[PurchaseOrder](ctx, id, "Items")
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, utils.NewValidationError(utils.CodeImmutableOrder,
			fmt.Sprintf("order in status %s cannot be edited", order.Status))
	}
	if order.Status != PurchaseOrderStatusDraft && input.SupplierId != order.SupplierId {
		return nil, utils.NewValidationError(utils.CodeImmutableOrder, "supplier is frozen once ordered")
	}
	if order.OrderedDate != nil && input.ExpectedDeliveryDate != nil && input.ExpectedDeliveryDate.Before(*order.OrderedDate) {
		return nil, utils.NewValidationError(utils.CodeDateRule, "expected delivery predates the ordered date")
	}

	db := config.GetDB()
	tx := db.Begin()

	headerChanges := utils.ChangedFields(map[string]interface{}{
		"ExpectedDeliveryDate": order.ExpectedDeliveryDate,
		"Notes":                order.Notes,
		"SupplierId":           order.SupplierId,
	}, map[string]interface{}{
		"ExpectedDeliveryDate": input.ExpectedDeliveryDate,
		"Notes":                input.Notes,
		"SupplierId":           input.SupplierId,
	})

	if order.Status == PurchaseOrderStatusDraft {
		items, total := buildOrderItems(order.ID, input.Items)
		if !total.Equal(order.TotalAmount) || linesDiffer(order.Items, items) {
			if err := tx.WithContext(ctx).
				Where("purchase_order_id = ?", order.ID).
				Delete(&PurchaseOrderItem{}).Error; err != nil {
				tx.Rollback()
				return nil, utils.NewTransientError(err)
			}
			if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
				tx.Rollback()
				return nil, utils.NewTransientError(err)
			}
			order.Items = items
			headerChanges["TotalAmount"] = total
		}
	}

	if len(headerChanges) > 0 {
		if err := tx.WithContext(ctx).Model(order).Updates(headerChanges).Error; err != nil {
			tx.Rollback()
			return nil, utils.NewTransientError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return order, nil
}

func linesDiffer(current []PurchaseOrderItem, proposed []PurchaseOrderItem) bool {
	if len(current) != len(proposed) {
		return true
	}
	byProduct := make(map[int]PurchaseOrderItem, len(current))
	for _, item := range current {
		byProduct[item.ProductId] = item
	}
	for _, item := range proposed {
		existing, ok := byProduct[item.ProductId]
		if !ok || existing.QuantityOrdered != item.QuantityOrdered || !existing.UnitCost.Equal(item.UnitCost) {
			return true
		}
	}
	return false
}

// FetchPurchaseOrderForUpdate reads the order header with its lines under a row
// lock; transition and receipt paths go through it so concurrent callers serialize.
func FetchPurchaseOrderForUpdate(ctx context.Context, tx *gorm.DB, id int) (*PurchaseOrder, error) {
	var order PurchaseOrder
	if err := utils.LockForUpdate(tx.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, utils.NewTransientError(err)
	}
	if err := tx.WithContext(ctx).
		Where("purchase_order_id = ?", order.ID).
		Order("id").Find(&order.Items).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return &order, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return utils.FetchModel[PurchaseOrder](ctx, id, "Items")
}

func GetPurchaseOrders(ctx context.Context, status *PurchaseOrderStatus, supplierId *int) ([]*PurchaseOrder, error) {
	db := config.GetDB()
	var results []*PurchaseOrder

	dbCtx := db.WithContext(ctx).Preload("Items")
	if status != nil {
		if !status.Valid() {
			return nil, utils.NewValidationError(utils.CodeBadInput,
				fmt.Sprintf("unknown status %q", *status))
		}
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return results, nil
}
