package models

import (
	"context"
	"time"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/utils"
)

type Supplier struct {
	ID                int       `gorm:"primary_key" json:"id"`
	Name              string    `gorm:"index;size:255;not null" json:"name"`
	ContactPersonName string    `gorm:"size:255" json:"contact_person_name"`
	ContactEmail      string    `gorm:"size:255" json:"contact_email"`
	ContactPhone      string    `gorm:"size:50" json:"contact_phone"`
	AddressLine1      string    `gorm:"size:255" json:"address_line1"`
	AddressLine2      string    `gorm:"size:255" json:"address_line2"`
	City              string    `gorm:"size:100" json:"city"`
	State             string    `gorm:"size:100" json:"state"`
	PostalCode        string    `gorm:"size:20" json:"postal_code"`
	Country           string    `gorm:"size:100" json:"country"`
	IsActive          *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name              string `json:"name" validate:"required,max=255"`
	ContactPersonName string `json:"contact_person_name" validate:"max=255"`
	ContactEmail      string `json:"contact_email" validate:"omitempty,email,max=255"`
	ContactPhone      string `json:"contact_phone" validate:"max=50"`
	AddressLine1      string `json:"address_line1" validate:"max=255"`
	AddressLine2      string `json:"address_line2" validate:"max=255"`
	City              string `json:"city" validate:"max=100"`
	State             string `json:"state" validate:"max=100"`
	PostalCode        string `json:"postal_code" validate:"max=20"`
	Country           string `json:"country" validate:"max=100"`
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	supplier := Supplier{
		Name:              input.Name,
		ContactPersonName: input.ContactPersonName,
		ContactEmail:      input.ContactEmail,
		ContactPhone:      input.ContactPhone,
		AddressLine1:      input.AddressLine1,
		AddressLine2:      input.AddressLine2,
		City:              input.City,
		State:             input.State,
		PostalCode:        input.PostalCode,
		Country:           input.Country,
		IsActive:          utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	changed := utils.ChangedFields(map[string]interface{}{
		"Name":              supplier.Name,
		"ContactPersonName": supplier.ContactPersonName,
		"ContactEmail":      supplier.ContactEmail,
		"ContactPhone":      supplier.ContactPhone,
		"AddressLine1":      supplier.AddressLine1,
		"AddressLine2":      supplier.AddressLine2,
		"City":              supplier.City,
		"State":             supplier.State,
		"PostalCode":        supplier.PostalCode,
		"Country":           supplier.Country,
	}, map[string]interface{}{
		"Name":              input.Name,
		"ContactPersonName": input.ContactPersonName,
		"ContactEmail":      input.ContactEmail,
		"ContactPhone":      input.ContactPhone,
		"AddressLine1":      input.AddressLine1,
		"AddressLine2":      input.AddressLine2,
		"City":              input.City,
		"State":             input.State,
		"PostalCode":        input.PostalCode,
		"Country":           input.Country,
	})
	if len(changed) == 0 {
		return supplier, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(supplier).Updates(changed).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return supplier, nil
}

func ToggleActiveSupplier(ctx context.Context, id int, isActive bool) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier.IsActive != nil && *supplier.IsActive == isActive {
		return supplier, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(supplier).Updates(map[string]interface{}{
		"IsActive": isActive,
	}).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return supplier, nil
}

// DeleteSupplier hard-deletes only an unreferenced supplier; anything with history
// must be deactivated instead.
func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Product](ctx, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "used by product")
	}
	count, err = utils.ResourceCountWhere[PurchaseOrder](ctx, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError(utils.CodeBadInput, "used by purchase order")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(supplier).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

func GetSuppliers(ctx context.Context, name *string) ([]*Supplier, error) {
	db := config.GetDB()
	var results []*Supplier

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, utils.NewTransientError(err)
	}
	return results, nil
}
