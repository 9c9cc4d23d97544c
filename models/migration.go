package models

import (
	"log"

	"github.com/warelane/inventory_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&NumberSequence{},
		&ProductCategory{},
		&Supplier{},
		&Product{},
		&ProductInventory{},
		&StockMovement{},
		&StockAdjustment{},
		&PurchaseOrder{},
		&PurchaseOrderItem{},
	)
	if err != nil {
		log.Fatal("migration error: ", err)
	}
}
