package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testOpenDatabaseFailureMessage = "open failure"

func TestOpenDatabaseWrapsOpenerError(testingT *testing.T) {
	originalOpeners := databaseOpeners
	testingT.Cleanup(func() {
		databaseOpeners = originalOpeners
	})

	databaseOpeners = map[string]databaseOpener{
		DriverNameSQLite: func(Config) (*gorm.DB, error) {
			return nil, errors.New(testOpenDatabaseFailureMessage)
		},
	}

	_, openErr := OpenDatabase(Config{
		DriverName:     DriverNameSQLite,
		DataSourceName: "file:invalid",
	})
	require.Error(testingT, openErr)
	require.Contains(testingT, openErr.Error(), errorMessageOpenDatabase)
	require.Contains(testingT, openErr.Error(), testOpenDatabaseFailureMessage)
}

func TestOpenDatabaseNormalizesDriverName(testingT *testing.T) {
	originalOpeners := databaseOpeners
	testingT.Cleanup(func() {
		databaseOpeners = originalOpeners
	})

	var receivedConfiguration Config
	databaseOpeners = map[string]databaseOpener{
		DriverNameSQLite: func(configuration Config) (*gorm.DB, error) {
			receivedConfiguration = configuration
			return &gorm.DB{}, nil
		},
	}

	_, openErr := OpenDatabase(Config{DriverName: "  SQLite ", DataSourceName: "  file:boards.db  "})
	require.NoError(testingT, openErr)
	require.Equal(testingT, DriverNameSQLite, receivedConfiguration.DriverName)
	require.Equal(testingT, "file:boards.db", receivedConfiguration.DataSourceName)
}

func TestOpenSQLiteDatabaseReportsOpenError(testingT *testing.T) {
	tempDirectory := testingT.TempDir()
	missingDirectory := filepath.Join(tempDirectory, "missing")
	dataSourceName := fmt.Sprintf("file:%s?mode=rw", filepath.Join(missingDirectory, "boards.db"))

	database, openErr := openSQLiteDatabase(Config{DataSourceName: dataSourceName})
	if openErr == nil {
		// the pure-go driver connects lazily; the first statement surfaces the failure
		openErr = database.Exec("SELECT 1").Error
	}
	require.Error(testingT, openErr)
}
