package database

import (
	"context"
	"testing"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/services/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func TestModule(t *testing.T) {
	var db *gorm.DB

	app := fx.New(
		Module,
		fx.Provide(func() *config.Config {
			cfg := createTestConfig("sqlite", ":memory:", false)
			return &cfg
		}),
		fx.Provide(logging.NewNop),
		fx.Provide(func() *ModelsOption { return nil }),
		fx.NopLogger,
		fx.Populate(&db),
	)
	require.NoError(t, app.Err())

	require.NoError(t, app.Start(context.Background()))
	assert.NotNil(t, db)
	assert.NoError(t, Ping(context.Background(), db))

	require.NoError(t, app.Stop(context.Background()))
	assert.Error(t, Ping(context.Background(), db))
}
