package configs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/testutil"
)

func TestRepositorySaveInsertsThenReplaces(testingT *testing.T) {
	repository := configs.NewRepository(testutil.NewMigratedSQLiteDatabase(testingT))
	ctx := context.Background()

	first, parseErr := configs.ParseConfiguration([]byte(`{"schemaVersion": 1, "apps": []}`))
	require.NoError(testingT, parseErr)
	require.NoError(testingT, repository.Save(ctx, "mydash", first))

	second, parseErr := configs.ParseConfiguration([]byte(`{"schemaVersion": 2, "apps": [{"id": "x"}]}`))
	require.NoError(testingT, parseErr)
	require.NoError(testingT, repository.Save(ctx, "mydash", second))

	loaded, loadErr := repository.Load(ctx, "mydash")
	require.NoError(testingT, loadErr)
	require.Equal(testingT, 2, *loaded.SchemaVersion)
	require.JSONEq(testingT, `{"schemaVersion": 2, "apps": [{"id": "x"}]}`, string(loaded.Payload))

	summaries, listErr := repository.List(ctx)
	require.NoError(testingT, listErr)
	require.Len(testingT, summaries, 1)
	require.Equal(testingT, "mydash", summaries[0].Name)
	require.Equal(testingT, int64(2), summaries[0].Revision)
}

func TestRepositoryLoadReportsMissingConfiguration(testingT *testing.T) {
	repository := configs.NewRepository(testutil.NewMigratedSQLiteDatabase(testingT))

	_, loadErr := repository.Load(context.Background(), "absent")
	require.ErrorIs(testingT, loadErr, configs.ErrConfigurationNotFound)
}

func TestRepositorySaveRejectsInvalidName(testingT *testing.T) {
	repository := configs.NewRepository(testutil.NewMigratedSQLiteDatabase(testingT))

	saveErr := repository.Save(context.Background(), "bad name", configs.Configuration{})
	require.ErrorIs(testingT, saveErr, configs.ErrInvalidName)
}

func TestRepositoryListOrdersByName(testingT *testing.T) {
	repository := configs.NewRepository(testutil.NewMigratedSQLiteDatabase(testingT))
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "default"} {
		configuration, parseErr := configs.ParseConfiguration([]byte(`{"schemaVersion": 1}`))
		require.NoError(testingT, parseErr)
		require.NoError(testingT, repository.Save(ctx, name, configuration))
	}

	summaries, listErr := repository.List(ctx)
	require.NoError(testingT, listErr)
	require.Len(testingT, summaries, 3)
	require.Equal(testingT, []string{"alpha", "default", "zeta"}, []string{summaries[0].Name, summaries[1].Name, summaries[2].Name})
}
