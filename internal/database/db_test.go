package database

import (
	"fmt"
	"sync/atomic"
	"testing"

	"assetledger/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// Shared cache keeps every pooled connection on the same in-memory database
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

// The schema has to migrate cleanly on sqlite, which rejects postgres
// default expressions in DDL. IDs come from the BeforeCreate hooks.
func TestMigrateOnSqlite(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, SeedBaseData(db))

	role := model.Role{Name: "Auditor"}
	require.NoError(t, db.Create(&role).Error)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", role.ID.String())
}

func TestSeedBaseDataIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, SeedBaseData(db))
	require.NoError(t, SeedBaseData(db))

	var count int64
	require.NoError(t, db.Model(&model.Role{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSeedBootstrapAdmin(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, SeedBaseData(db))

	require.NoError(t, SeedBootstrapAdmin(db, "root@example.com", "changeme"))

	var admin model.User
	require.NoError(t, db.Preload("Office").Where("email = ?", "root@example.com").First(&admin).Error)
	assert.Equal(t, "HQ", admin.Office.Code)

	var inventory model.Inventory
	require.NoError(t, db.Where("office_id = ?", admin.OfficeID).First(&inventory).Error)

	// Second call must not create a second admin
	require.NoError(t, SeedBootstrapAdmin(db, "other@example.com", "changeme"))
	var users int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)
}
