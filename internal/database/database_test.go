package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftserve/swiftserve-backend/internal/config"
	"github.com/swiftserve/swiftserve-backend/internal/database"
	"github.com/swiftserve/swiftserve-backend/internal/database/dbtest"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	_, err := database.InitDB(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestMigrationsCreateTables(t *testing.T) {
	db := dbtest.New(t)

	for _, table := range []any{
		&models.User{}, &models.CarOwner{}, &models.Driver{}, &models.Garage{},
		&models.Car{}, &models.ServiceRequest{}, &models.WorkItem{}, &models.Notification{},
		&models.Product{}, &models.Order{}, &models.ServiceInquiry{},
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table for %T", table)
	}
}

func TestEnsureAdmin(t *testing.T) {
	db := dbtest.New(t)

	admin, err := database.EnsureAdmin(db, " Ops@SwiftServe.test ", "changeme")
	require.NoError(t, err)
	assert.Equal(t, "ops@swiftserve.test", admin.Email)
	assert.Equal(t, models.UserTypeAdmin, admin.UserType)
	require.NoError(t, admin.CheckPassword("changeme"))

	again, err := database.EnsureAdmin(db, "ops@swiftserve.test", "different")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
	assert.NoError(t, again.CheckPassword("changeme"), "existing password must not be replaced")

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = database.EnsureAdmin(db, "", "x")
	assert.Error(t, err)
}
