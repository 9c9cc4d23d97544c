package workflow_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/models"
	"github.com/warelane/inventory_backend/utils"
)

func setupTestDB(t *testing.T) context.Context {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	if err := config.ConnectSqlite("file:" + name + "?mode=memory&cache=shared"); err != nil {
		t.Fatalf("ConnectSqlite: %v", err)
	}
	models.MigrateTable()

	return utils.SetUserIdInContext(context.Background(), 1)
}

func seedProduct(t *testing.T, ctx context.Context, sku string) *models.Product {
	t.Helper()

	category, err := models.CreateProductCategory(ctx, &models.NewProductCategory{Name: "Widgets " + sku})
	if err != nil {
		t.Fatalf("CreateProductCategory: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Acme " + sku})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Sku:             sku,
		Name:            "Widget " + sku,
		CategoryId:      category.ID,
		SupplierId:      supplier.ID,
		Price:           decimal.NewFromFloat(19.99),
		ReorderQuantity: 50,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return product
}

func seedOrder(t *testing.T, ctx context.Context, product *models.Product, quantity int) *models.PurchaseOrder {
	t.Helper()

	order, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		SupplierId: product.SupplierId,
		Items: []models.NewPurchaseOrderItem{
			{ProductId: product.ID, QuantityOrdered: quantity, UnitCost: decimal.NewFromInt(8)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	return order
}
