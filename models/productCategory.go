package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/utils"
)

type ProductCategory struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ParentId    *int      `gorm:"index" json:"parent_id"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductCategory struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	ParentId    *int   `json:"parent_id" validate:"omitempty,gt=0"`
	IsActive    *bool  `json:"is_active"`
}

// get ids of associated products
func (pc ProductCategory) ProductIds(ctx context.Context) (ids []int, err error) {
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Product{}).
		Where("category_id = ?", pc.ID).
		Select("id").Scan(&ids).Error
	return
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProductCategory) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateUnique[ProductCategory](ctx, "name", input.Name, id, utils.CodeDuplicateCategory); err != nil {
		return err
	}
	return nil
}

// checkParentRules enforces the hierarchy invariants for a node whose parent or
// active flag is being set. Rules in order: no self-parent, no cycle (the node must
// not appear in the proposed parent's ancestor chain), and an active node's parent
// must currently be active. The parent row is read under a row lock so a concurrent
// deactivation of the parent cannot race past the check.
func checkParentRules(tx *gorm.DB, selfId int, parentId int, childActive bool) error {
	if selfId != 0 && parentId == selfId {
		return utils.NewValidationError(utils.CodeSelfParent, "category cannot be its own parent")
	}

	var parent ProductCategory
	if err := utils.LockForUpdate(tx).Where("id = ?", parentId).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewValidationError(utils.CodeBadInput, "parent category not found")
		}
		return utils.NewTransientError(err)
	}

	if selfId != 0 {
		inChain, err := ancestorChainContains(tx, parentId, selfId)
		if err != nil {
			return err
		}
		if inChain {
			return utils.NewValidationError(utils.CodeCategoryCycle, "category cannot become an ancestor of itself")
		}
	}

	if childActive && (parent.IsActive == nil || !*parent.IsActive) {
		return utils.NewValidationError(utils.CodeInactiveParent, "active category cannot sit under an inactive parent")
	}
	return nil
}

// ancestorChainContains walks parent pointers from startId to the root. The walk is
// bounded by tree depth; a repeated id means the stored chain already loops.
func ancestorChainContains(tx *gorm.DB, startId int, targetId int) (bool, error) {
	seen := make(map[int]bool)
	current := startId
	for current != 0 {
		if current == targetId {
			return true, nil
		}
		if seen[current] {
			return true, nil
		}
		seen[current] = true

		var parentId *int
		if err := tx.Model(&ProductCategory{}).
			Where("id = ?", current).
			Select("parent_id").Scan(&parentId).Error; err != nil {
			return false, utils.NewTransientError(err)
		}
		if parentId == nil {
			return false, nil
		}
		current = *parentId
	}
	return false, nil
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	category := ProductCategory{
		Name:        input.Name,
		Description: input.Description,
		ParentId:    input.ParentId,
		IsActive:    isActive,
	}

	db := config.GetDB()
	tx := db.Begin()

	if input.ParentId != nil {
		if err := checkParentRules(tx.WithContext(ctx), 0, *input.ParentId, *isActive); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflictError(utils.CodeDuplicateCategory, "duplicate category name")
		}
		return nil, utils.NewTransientError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return &category, nil
}

// UpdateProductCategory replaces name, description and parent with the input values
// (nil parent makes the node a root). A nil IsActive keeps the current flag.
// Identical values are a no-op and leave UpdatedAt untouched.
func UpdateProductCategory(ctx context.Context, id int, input *NewProductCategory) (*ProductCategory, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = category.IsActive
	}

	changed := utils.ChangedFields(map[string]interface{}{
		"Name":        category.Name,
		"Description": category.Description,
		"ParentId":    category.ParentId,
		"IsActive":    category.IsActive,
	}, map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
		"ParentId":    input.ParentId,
		"IsActive":    isActive,
	})
	if len(changed) == 0 {
		return category, nil
	}

	db := config.GetDB()
	tx := db.Begin()

	_, parentTouched := changed["ParentId"]
	_, activeTouched := changed["IsActive"]
	if input.ParentId != nil && (parentTouched || activeTouched) {
		if err := checkParentRules(tx.WithContext(ctx), id, *input.ParentId, *isActive); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(category).Updates(changed).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflictError(utils.CodeDuplicateCategory, "duplicate category name")
		}
		return nil, utils.NewTransientError(err)
	}

	// deactivation cascades so no active node is left under an inactive ancestor;
	// reactivation does not cascade
	if activeTouched && !*isActive {
		if err := toggleChildrenCategories(ctx, tx, id, false); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return category, nil
}

func ToggleActiveProductCategory(ctx context.Context, id int, isActive bool) (*ProductCategory, error) {
	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}
	if category.IsActive != nil && *category.IsActive == isActive {
		return category, nil
	}

	db := config.GetDB()
	tx := db.Begin()

	if isActive && category.ParentId != nil {
		if err := checkParentRules(tx.WithContext(ctx), id, *category.ParentId, true); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(category).Updates(map[string]interface{}{
		"IsActive": isActive,
	}).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewTransientError(err)
	}

	if !isActive {
		if err := toggleChildrenCategories(ctx, tx, id, false); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return category, nil
}

// toggle children of the parent recursively, parent is assumed to have toggled
func toggleChildrenCategories(ctx context.Context, tx *gorm.DB, parentId int, isActive bool) error {
	var childrenIds []int
	if err := tx.WithContext(ctx).
		Model(&ProductCategory{}).
		Where("parent_id = ?", parentId).
		Select("id").
		Scan(&childrenIds).Error; err != nil {
		return utils.NewTransientError(err)
	}

	// break when parent has no children
	if len(childrenIds) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Model(&ProductCategory{}).
		Where("id IN ?", childrenIds).Updates(map[string]interface{}{
		"IsActive": isActive,
	}).Error; err != nil {
		return utils.NewTransientError(err)
	}

	for _, childId := range childrenIds {
		if err := toggleChildrenCategories(ctx, tx, childId, isActive); err != nil {
			return err
		}
	}
	return nil
}

func DeleteProductCategory(ctx context.Context, id int) (*ProductCategory, error) {
	result, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}

	// don't delete if the category has children
	count, err := utils.ResourceCountWhere[ProductCategory](ctx, "parent_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "category has children")
	}

	// don't delete if the category is used by products
	count, err = utils.ResourceCountWhere[Product](ctx, "category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "used by product")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return result, nil
}

func GetProductCategory(ctx context.Context, id int) (*ProductCategory, error) {
	return utils.FetchModel[ProductCategory](ctx, id)
}

func GetProductCategories(ctx context.Context, name *string) ([]*ProductCategory, error) {
	db := config.GetDB()
	var results []*ProductCategory

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return results, nil
}
