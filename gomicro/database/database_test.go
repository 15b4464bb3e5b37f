package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestMigrateModels_NotInitialized(t *testing.T) {
	DB = nil

	err := MigrateModels(&widget{})
	assert.EqualError(t, err, "database is not initialized")
}

func TestMigrateModels(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	DB = db
	t.Cleanup(func() { DB = nil })

	require.NoError(t, MigrateModels(&widget{}))
	assert.True(t, GetDB().Migrator().HasTable(&widget{}))
}
