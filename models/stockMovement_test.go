package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/warelane/inventory_backend/models"
	"github.com/warelane/inventory_backend/utils"
)

func TestPostStockMovement_ChainsBeforeAndAfter(t *testing.T) {
	ctx := setupTestDB(t)
	product := seedProduct(t, ctx, "WID-001")
	now := time.Now()

	first, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeIn,
		QuantityChange: 100,
		ReferenceType:  models.ReferenceTransfer,
		MovementDate:   now,
	})
	if err != nil {
		t.Fatalf("post first movement: %v", err)
	}
	if first.QuantityBefore != 0 || first.QuantityAfter != 100 {
		t.Fatalf("first movement before/after = %d/%d, want 0/100", first.QuantityBefore, first.QuantityAfter)
	}

	second, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeOut,
		QuantityChange: -30,
		ReferenceType:  models.ReferenceSale,
		MovementDate:   now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("post second movement: %v", err)
	}
	if second.QuantityBefore != first.QuantityAfter {
		t.Fatalf("second movement before = %d, want %d", second.QuantityBefore, first.QuantityAfter)
	}
	if second.QuantityAfter != 70 {
		t.Fatalf("second movement after = %d, want 70", second.QuantityAfter)
	}

	inv, err := models.GetProductInventory(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductInventory: %v", err)
	}
	if inv.QuantityOnHand != 70 || inv.QuantityAvailable != 70 || inv.QuantityCommitted != 0 {
		t.Fatalf("snapshot = %+v, want on_hand=70 available=70 committed=0", inv)
	}
}

func TestPostStockMovement_RejectsNegativeStock(t *testing.T) {
	ctx := setupTestDB(t)
	product := seedProduct(t, ctx, "WID-001")
	now := time.Now()

	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeIn,
		QuantityChange: 10,
		ReferenceType:  models.ReferenceTransfer,
		MovementDate:   now,
	}); err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	_, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeOut,
		QuantityChange: -11,
		ReferenceType:  models.ReferenceSale,
		MovementDate:   now.Add(time.Minute),
	})
	if utils.ErrorCode(err) != utils.CodeNegativeStock {
		t.Fatalf("overdraw: err = %v, want negative_stock", err)
	}
	if !utils.IsValidation(err) || utils.IsTransient(err) {
		t.Fatalf("overdraw should classify as a validation error, got %T", err)
	}

	// the rejected posting must leave no trace
	movements, err := models.GetStockMovements(ctx, &product.ID)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("ledger has %d entries after a rejected posting, want 1", len(movements))
	}
	inv, err := models.GetProductInventory(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductInventory: %v", err)
	}
	if inv.QuantityOnHand != 10 {
		t.Fatalf("snapshot moved on a rejected posting: %+v", inv)
	}
}

func TestPostStockMovement_EnforcesSignDiscipline(t *testing.T) {
	ctx := setupTestDB(t)
	product := seedProduct(t, ctx, "WID-001")
	now := time.Now()

	cases := []struct {
		name  string
		input models.NewStockMovement
		code  string
	}{
		{
			name: "in with negative change",
			input: models.NewStockMovement{
				ProductId: product.ID, MovementType: models.MovementTypeIn,
				QuantityChange: -5, ReferenceType: models.ReferenceTransfer, MovementDate: now,
			},
			code: utils.CodeSignMismatch,
		},
		{
			name: "out with positive change",
			input: models.NewStockMovement{
				ProductId: product.ID, MovementType: models.MovementTypeOut,
				QuantityChange: 5, ReferenceType: models.ReferenceSale, MovementDate: now,
			},
			code: utils.CodeSignMismatch,
		},
		{
			name: "unknown movement type",
			input: models.NewStockMovement{
				ProductId: product.ID, MovementType: "teleport",
				QuantityChange: 5, ReferenceType: models.ReferenceSale, MovementDate: now,
			},
			code: utils.CodeBadInput,
		},
		{
			name: "unknown reference type",
			input: models.NewStockMovement{
				ProductId: product.ID, MovementType: models.MovementTypeIn,
				QuantityChange: 5, ReferenceType: "wishlist", MovementDate: now,
			},
			code: utils.CodeBadReferenceKind,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := models.CreateStockMovement(ctx, &tc.input)
			if utils.ErrorCode(err) != tc.code {
				t.Fatalf("err = %v, want code %s", err, tc.code)
			}
		})
	}
}

func TestPostStockMovement_PurchaseReceiptStampsLastRestockedAt(t *testing.T) {
	ctx := setupTestDB(t)
	product := seedProduct(t, ctx, "WID-001")
	refId := 1
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeIn,
		QuantityChange: 40,
		ReferenceType:  models.ReferencePurchaseOrder,
		ReferenceId:    &refId,
		MovementDate:   at,
	}); err != nil {
		t.Fatalf("post receipt: %v", err)
	}

	inv, err := models.GetProductInventory(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductInventory: %v", err)
	}
	if inv.LastRestockedAt == nil || !inv.LastRestockedAt.Equal(at) {
		t.Fatalf("LastRestockedAt = %v, want %v", inv.LastRestockedAt, at)
	}
	if inv.LastCountedAt != nil {
		t.Fatalf("LastCountedAt set by a receipt: %v", inv.LastCountedAt)
	}
}

func TestPostStockMovement_AdjustmentStampsLastCountedAt(t *testing.T) {
	ctx := setupTestDB(t)
	product := seedProduct(t, ctx, "WID-001")
	refId := 1
	restockAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	countAt := restockAt.Add(48 * time.Hour)

	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeIn,
		QuantityChange: 40,
		ReferenceType:  models.ReferencePurchaseOrder,
		ReferenceId:    &refId,
		MovementDate:   restockAt,
	}); err != nil {
		t.Fatalf("post receipt: %v", err)
	}

	// a count that predates the restock is stale and refused
	_, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeAdjustment,
		QuantityChange: -2,
		ReferenceType:  models.ReferenceAdjustment,
		MovementDate:   restockAt.Add(-time.Hour),
	})
	if utils.ErrorCode(err) != utils.CodeDateRule {
		t.Fatalf("backdated count: err = %v, want date_rule", err)
	}

	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeAdjustment,
		QuantityChange: -2,
		ReferenceType:  models.ReferenceAdjustment,
		MovementDate:   countAt,
	}); err != nil {
		t.Fatalf("post count: %v", err)
	}

	inv, err := models.GetProductInventory(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductInventory: %v", err)
	}
	if inv.LastCountedAt == nil || !inv.LastCountedAt.Equal(countAt) {
		t.Fatalf("LastCountedAt = %v, want %v", inv.LastCountedAt, countAt)
	}
	if inv.LastRestockedAt == nil || !inv.LastRestockedAt.Equal(restockAt) {
		t.Fatalf("LastRestockedAt = %v, want %v", inv.LastRestockedAt, restockAt)
	}
}

func TestPostStockMovement_LaterRestockClearsStaleCount(t *testing.T) {
	ctx := setupTestDB(t)
	product := seedProduct(t, ctx, "WID-001")
	refId := 1
	countAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	restockAt := countAt.Add(24 * time.Hour)

	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeIn,
		QuantityChange: 40,
		ReferenceType:  models.ReferenceTransfer,
		MovementDate:   countAt.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeAdjustment,
		QuantityChange: -1,
		ReferenceType:  models.ReferenceAdjustment,
		MovementDate:   countAt,
	}); err != nil {
		t.Fatalf("post count: %v", err)
	}
	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeIn,
		QuantityChange: 20,
		ReferenceType:  models.ReferencePurchaseOrder,
		ReferenceId:    &refId,
		MovementDate:   restockAt,
	}); err != nil {
		t.Fatalf("post receipt: %v", err)
	}

	inv, err := models.GetProductInventory(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductInventory: %v", err)
	}
	if inv.LastCountedAt != nil {
		t.Fatalf("stale count survived a later restock: %v", inv.LastCountedAt)
	}
	if inv.LastRestockedAt == nil || !inv.LastRestockedAt.Equal(restockAt) {
		t.Fatalf("LastRestockedAt = %v, want %v", inv.LastRestockedAt, restockAt)
	}
}

func TestCreateStockMovement_RequiresActor(t *testing.T) {
	ctx := setupTestDB(t)
	product := seedProduct(t, ctx, "WID-001")

	_, err := models.CreateStockMovement(context.Background(), &models.NewStockMovement{
		ProductId:      product.ID,
		MovementType:   models.MovementTypeIn,
		QuantityChange: 5,
		ReferenceType:  models.ReferenceTransfer,
		MovementDate:   time.Now(),
	})
	if utils.ErrorCode(err) != utils.CodeBadInput {
		t.Fatalf("posting without an actor: err = %v, want bad_input", err)
	}
}
