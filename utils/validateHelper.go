package utils

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/warelane/inventory_backend/config"
)

var validate = validator.New()

// ValidateStruct runs the `validate:` tags of an input struct. Tag failures are
// surfaced as bad_input validation errors.
func ValidateStruct(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		return NewValidationError(CodeBadInput, err.Error())
	}
	return nil
}

// check if id exists, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

// ValidateUnique rejects with a conflict error when another row already holds the
// value in column. exceptId = 0 for create.
func ValidateUnique[T any](ctx context.Context, column string, value interface{}, exceptId interface{}, code string) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, column+" = ? AND NOT id = ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return NewConflictError(code, "duplicate "+column)
	}
	return nil
}

func ResourceCountWhere[T any](ctx context.Context, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&model).Where(condition, value...).Count(&count).Error; err != nil {
		return 0, NewTransientError(err)
	}
	return count, nil
}
