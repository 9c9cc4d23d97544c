package utils

import (
	"context"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/warelane/inventory_backend/config"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	if err := dbCtx.First(&result, id).Error; err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// LockForUpdate adds a row-level write lock on mysql. sqlite serializes writers at
// the engine level, so the clause is skipped there (FOR UPDATE is a syntax error).
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ChangedFields compares a proposed field map against the current values and keeps
// only the fields that actually differ. An empty result means the update is a no-op
// and no UPDATE should be issued, so UpdatedAt stays untouched.
func ChangedFields(current map[string]interface{}, proposed map[string]interface{}) map[string]interface{} {
	changed := make(map[string]interface{})
	for field, value := range proposed {
		if !valuesEqual(current[field], value) {
			changed[field] = value
		}
	}
	return changed
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return isNilish(a) && isNilish(b)
	}
	switch av := a.(type) {
	case decimal.Decimal:
		if bv, ok := b.(decimal.Decimal); ok {
			return av.Equal(bv)
		}
	case *decimal.Decimal:
		if bv, ok := b.(*decimal.Decimal); ok {
			if av == nil || bv == nil {
				return av == bv
			}
			return av.Equal(*bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Equal(bv)
		}
	case *time.Time:
		if bv, ok := b.(*time.Time); ok {
			if av == nil || bv == nil {
				return av == bv
			}
			return av.Equal(*bv)
		}
	case *bool:
		if bv, ok := b.(*bool); ok {
			if av == nil || bv == nil {
				return av == bv
			}
			return *av == *bv
		}
	case *int:
		if bv, ok := b.(*int); ok {
			if av == nil || bv == nil {
				return av == bv
			}
			return *av == *bv
		}
	case *string:
		if bv, ok := b.(*string); ok {
			if av == nil || bv == nil {
				return av == bv
			}
			return *av == *bv
		}
	}
	return reflect.DeepEqual(a, b)
}

func isNilish(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
