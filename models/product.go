package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/utils"
)

type Product struct {
	ID                int              `gorm:"primary_key" json:"id"`
	Sku               string           `gorm:"uniqueIndex;size:100;not null" json:"sku"`
	Name              string           `gorm:"index;size:255;not null" json:"name"`
	Description       string           `gorm:"type:text" json:"description"`
	CategoryId        int              `gorm:"index;not null" json:"category_id"`
	SupplierId        int              `gorm:"index;not null" json:"supplier_id"`
	Price             decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	CostPrice         *decimal.Decimal `gorm:"type:decimal(10,2)" json:"cost_price"`
	LowStockThreshold int              `gorm:"not null;default:10" json:"low_stock_threshold"`
	ReorderPoint      int              `gorm:"not null;default:15" json:"reorder_point"`
	ReorderQuantity   int              `gorm:"not null;default:50" json:"reorder_quantity"`
	IsActive          *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	// Sku is taken as-is when supplied (still unique); allocated from the SKU
	// series when empty.
	Sku               string           `json:"sku" validate:"max=100"`
	Name              string           `json:"name" validate:"required,max=255"`
	Description       string           `json:"description"`
	CategoryId        int              `json:"category_id" validate:"required,gt=0"`
	SupplierId        int              `json:"supplier_id" validate:"required,gt=0"`
	Price             decimal.Decimal  `json:"price"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	LowStockThreshold int              `json:"low_stock_threshold" validate:"min=0"`
	ReorderPoint      int              `json:"reorder_point" validate:"min=0"`
	ReorderQuantity   int              `json:"reorder_quantity" validate:"required,gt=0"`
}

// IsLowStock reports whether available stock is at or under the alert threshold.
func (p Product) IsLowStock(inv *ProductInventory) bool {
	return inv != nil && inv.QuantityAvailable <= p.LowStockThreshold
}

func (p Product) NeedsReorder(inv *ProductInventory) bool {
	return inv != nil && inv.QuantityAvailable <= p.ReorderPoint
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	// decimal fields sit outside validator tags
	if input.Price.Cmp(decimal.Zero) <= 0 {
		return utils.NewValidationError(utils.CodeBadInput, "price must be positive")
	}
	if input.CostPrice != nil && input.CostPrice.IsNegative() {
		return utils.NewValidationError(utils.CodeBadInput, "cost price cannot be negative")
	}
	if err := utils.ValidateResourceId[ProductCategory](ctx, input.CategoryId); err != nil {
		return utils.NewValidationError(utils.CodeBadInput, "category not found")
	}
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return utils.NewValidationError(utils.CodeBadInput, "supplier not found")
	}
	if input.Sku != "" {
		if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, id, utils.CodeDuplicateSku); err != nil {
			return err
		}
	}
	return nil
}

// CreateProduct stores the product together with its zeroed inventory snapshot.
// The snapshot row exists from the first moment the product does, so every later
// ledger posting finds a row to lock.
func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Sku:               input.Sku,
		Name:              input.Name,
		Description:       input.Description,
		CategoryId:        input.CategoryId,
		SupplierId:        input.SupplierId,
		Price:             input.Price,
		CostPrice:         input.CostPrice,
		LowStockThreshold: input.LowStockThreshold,
		ReorderPoint:      input.ReorderPoint,
		ReorderQuantity:   input.ReorderQuantity,
		IsActive:          utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()

	if product.Sku == "" {
		sku, err := NextIdentifier(tx.WithContext(ctx), SeriesSku, time.Now().Year())
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		product.Sku = sku
	}

	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflictError(utils.CodeDuplicateSku, "duplicate sku")
		}
		return nil, utils.NewTransientError(err)
	}

	inventory := ProductInventory{ProductId: product.ID}
	if err := tx.WithContext(ctx).Create(&inventory).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewTransientError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	sku := input.Sku
	if sku == "" {
		sku = product.Sku
	}

	changed := utils.ChangedFields(map[string]interface{}{
		"Sku":               product.Sku,
		"Name":              product.Name,
		"Description":       product.Description,
		"CategoryId":        product.CategoryId,
		"SupplierId":        product.SupplierId,
		"Price":             product.Price,
		"CostPrice":         product.CostPrice,
		"LowStockThreshold": product.LowStockThreshold,
		"ReorderPoint":      product.ReorderPoint,
		"ReorderQuantity":   product.ReorderQuantity,
	}, map[string]interface{}{
		"Sku":               sku,
		"Name":              input.Name,
		"Description":       input.Description,
		"CategoryId":        input.CategoryId,
		"SupplierId":        input.SupplierId,
		"Price":             input.Price,
		"CostPrice":         input.CostPrice,
		"LowStockThreshold": input.LowStockThreshold,
		"ReorderPoint":      input.ReorderPoint,
		"ReorderQuantity":   input.ReorderQuantity,
	})
	if len(changed) == 0 {
		return product, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(product).Updates(changed).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflictError(utils.CodeDuplicateSku, "duplicate sku")
		}
		return nil, utils.NewTransientError(err)
	}
	return product, nil
}

func ToggleActiveProduct(ctx context.Context, id int, isActive bool) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsActive != nil && *product.IsActive == isActive {
		return product, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"IsActive": isActive,
	}).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return product, nil
}

// DeleteProduct hard-deletes a product only while nothing references it. Once
// ledger or order history exists, deactivation is the only destructive operation.
func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	for _, check := range []struct {
		count func() (int64, error)
		msg   string
	}{
		{func() (int64, error) { return utils.ResourceCountWhere[StockMovement](ctx, "product_id = ?", id) }, "product has stock movements"},
		{func() (int64, error) { return utils.ResourceCountWhere[StockAdjustment](ctx, "product_id = ?", id) }, "product has stock adjustments"},
		{func() (int64, error) { return utils.ResourceCountWhere[PurchaseOrderItem](ctx, "product_id = ?", id) }, "product has purchase order lines"},
	} {
		count, err := check.count()
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.NewValidationError(utils.CodeBadInput, check.msg)
		}
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("product_id = ?", id).Delete(&ProductInventory{}).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewTransientError(err)
	}
	if err := tx.WithContext(ctx).Delete(product).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewTransientError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

func GetProducts(ctx context.Context, name *string, categoryId *int) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if categoryId != nil && *categoryId > 0 {
		dbCtx = dbCtx.Where("category_id = ?", *categoryId)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return results, nil
}
