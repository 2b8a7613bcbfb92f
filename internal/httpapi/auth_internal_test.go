package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/temirov/GAuss/pkg/session"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/homeboard/internal/model"
	"github.com/MarkoPoloResearchLab/homeboard/internal/testutil"
)

func TestPersistUserUpsertsProfile(testingT *testing.T) {
	session.NewSession([]byte("12345678901234567890123456789012"))
	database := testutil.NewMigratedSQLiteDatabase(testingT)
	manager := NewAuthManager(database, zap.NewNop())

	firstSeen := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	manager.clock = func() time.Time { return firstSeen }
	require.NoError(testingT, manager.persistUser(context.Background(), &CurrentUser{Email: "user@example.com", Name: "First"}))

	secondSeen := firstSeen.Add(48 * time.Hour)
	manager.clock = func() time.Time { return secondSeen }
	require.NoError(testingT, manager.persistUser(context.Background(), &CurrentUser{Email: "user@example.com", Name: "Renamed", PictureURL: "https://example.com/a.png"}))

	var users []model.User
	require.NoError(testingT, database.Find(&users).Error)
	require.Len(testingT, users, 1)
	require.Equal(testingT, "Renamed", users[0].Name)
	require.Equal(testingT, "https://example.com/a.png", users[0].PictureURL)
	require.True(testingT, users[0].LastSeenAt.Equal(secondSeen))
}

func TestPersistUserWithoutDatabaseIsNoop(testingT *testing.T) {
	session.NewSession([]byte("12345678901234567890123456789012"))
	manager := NewAuthManager(nil, nil)
	require.NoError(testingT, manager.persistUser(context.Background(), &CurrentUser{Email: "user@example.com"}))
}
