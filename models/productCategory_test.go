package models_test

import (
	"context"
	"testing"

	"github.com/warelane/inventory_backend/models"
	"github.com/warelane/inventory_backend/utils"
)

func mustCreateCategory(t *testing.T, ctx context.Context, input *models.NewProductCategory) *models.ProductCategory {
	t.Helper()
	category, err := models.CreateProductCategory(ctx, input)
	if err != nil {
		t.Fatalf("CreateProductCategory(%s): %v", input.Name, err)
	}
	return category
}

func TestCreateProductCategory_RejectsUnknownParent(t *testing.T) {
	ctx := setupTestDB(t)

	missing := 999
	_, err := models.CreateProductCategory(ctx, &models.NewProductCategory{
		Name:     "Electronics",
		ParentId: &missing,
	})
	if utils.ErrorCode(err) != utils.CodeBadInput {
		t.Fatalf("create with unknown parent: err = %v, want bad_input", err)
	}
}

func TestUpdateProductCategory_RejectsSelfParent(t *testing.T) {
	ctx := setupTestDB(t)
	category := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Electronics"})

	_, err := models.UpdateProductCategory(ctx, category.ID, &models.NewProductCategory{
		Name:     "Electronics",
		ParentId: &category.ID,
	})
	if utils.ErrorCode(err) != utils.CodeSelfParent {
		t.Fatalf("self parent: err = %v, want self_parent", err)
	}
}

func TestUpdateProductCategory_RejectsCycle(t *testing.T) {
	ctx := setupTestDB(t)

	// A <- B <- C, then try to hang A under C
	a := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "A"})
	b := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "B", ParentId: &a.ID})
	c := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "C", ParentId: &b.ID})

	_, err := models.UpdateProductCategory(ctx, a.ID, &models.NewProductCategory{
		Name:     "A",
		ParentId: &c.ID,
	})
	if utils.ErrorCode(err) != utils.CodeCategoryCycle {
		t.Fatalf("cycle: err = %v, want category_cycle", err)
	}
}

func TestCreateProductCategory_RejectsActiveChildUnderInactiveParent(t *testing.T) {
	ctx := setupTestDB(t)

	parent := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Discontinued"})
	if _, err := models.ToggleActiveProductCategory(ctx, parent.ID, false); err != nil {
		t.Fatalf("ToggleActiveProductCategory: %v", err)
	}

	_, err := models.CreateProductCategory(ctx, &models.NewProductCategory{
		Name:     "New Arrivals",
		ParentId: &parent.ID,
	})
	if utils.ErrorCode(err) != utils.CodeInactiveParent {
		t.Fatalf("active child under inactive parent: err = %v, want inactive_parent", err)
	}

	// an explicitly inactive child is fine
	if _, err := models.CreateProductCategory(ctx, &models.NewProductCategory{
		Name:     "Archived Arrivals",
		ParentId: &parent.ID,
		IsActive: utils.NewFalse(),
	}); err != nil {
		t.Fatalf("inactive child under inactive parent: %v", err)
	}
}

func TestToggleActiveProductCategory_DeactivationCascades(t *testing.T) {
	ctx := setupTestDB(t)

	root := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Root"})
	mid := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Mid", ParentId: &root.ID})
	leaf := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Leaf", ParentId: &mid.ID})

	if _, err := models.ToggleActiveProductCategory(ctx, root.ID, false); err != nil {
		t.Fatalf("deactivate root: %v", err)
	}

	for _, id := range []int{root.ID, mid.ID, leaf.ID} {
		got, err := models.GetProductCategory(ctx, id)
		if err != nil {
			t.Fatalf("GetProductCategory(%d): %v", id, err)
		}
		if got.IsActive == nil || *got.IsActive {
			t.Fatalf("category %d still active after ancestor deactivation", id)
		}
	}

	// reactivating the root must not reactivate the subtree
	if _, err := models.ToggleActiveProductCategory(ctx, root.ID, true); err != nil {
		t.Fatalf("reactivate root: %v", err)
	}
	gotMid, err := models.GetProductCategory(ctx, mid.ID)
	if err != nil {
		t.Fatalf("GetProductCategory(mid): %v", err)
	}
	if gotMid.IsActive != nil && *gotMid.IsActive {
		t.Fatalf("child reactivated alongside parent")
	}
}

func TestToggleActiveProductCategory_ReactivationUnderInactiveParentRejected(t *testing.T) {
	ctx := setupTestDB(t)

	parent := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Parent"})
	child := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Child", ParentId: &parent.ID})

	if _, err := models.ToggleActiveProductCategory(ctx, parent.ID, false); err != nil {
		t.Fatalf("deactivate parent: %v", err)
	}

	_, err := models.ToggleActiveProductCategory(ctx, child.ID, true)
	if utils.ErrorCode(err) != utils.CodeInactiveParent {
		t.Fatalf("reactivate under inactive parent: err = %v, want inactive_parent", err)
	}
}

func TestUpdateProductCategory_NoopLeavesUpdatedAtUntouched(t *testing.T) {
	ctx := setupTestDB(t)

	category := mustCreateCategory(t, ctx, &models.NewProductCategory{
		Name:        "Stationery",
		Description: "pens and paper",
	})
	before, err := models.GetProductCategory(ctx, category.ID)
	if err != nil {
		t.Fatalf("GetProductCategory: %v", err)
	}

	if _, err := models.UpdateProductCategory(ctx, category.ID, &models.NewProductCategory{
		Name:        "Stationery",
		Description: "pens and paper",
	}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}

	after, err := models.GetProductCategory(ctx, category.ID)
	if err != nil {
		t.Fatalf("GetProductCategory: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("UpdatedAt moved on a no-op update: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestDeleteProductCategory_RefusesWhileReferenced(t *testing.T) {
	ctx := setupTestDB(t)

	parent := mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Parent"})
	mustCreateCategory(t, ctx, &models.NewProductCategory{Name: "Child", ParentId: &parent.ID})

	_, err := models.DeleteProductCategory(ctx, parent.ID)
	if utils.ErrorCode(err) != utils.CodeBadInput {
		t.Fatalf("delete with children: err = %v, want bad_input", err)
	}
}
