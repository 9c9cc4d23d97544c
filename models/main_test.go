package models_test

import (
	"context"
	"strings"
	"testing"

	"github.com/warelane/inventory_backend/config"
	"github.com/warelane/inventory_backend/models"
	"github.com/warelane/inventory_backend/utils"
)

// setupTestDB wires the global DB to a fresh in-memory sqlite database named
// after the test, migrates the schema and returns a context carrying an actor.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	if err := config.ConnectSqlite("file:" + name + "?mode=memory&cache=shared"); err != nil {
		t.Fatalf("ConnectSqlite: %v", err)
	}
	models.MigrateTable()

	return utils.SetUserIdInContext(context.Background(), 1)
}
