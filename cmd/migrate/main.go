package main

import (
	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	config.GetLogger().Info("migration complete")
}
