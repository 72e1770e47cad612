package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklot/stocklot-backend/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("stocklot-server")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "csv", cfg.Storage.Driver)
	assert.Equal(t, "./data", cfg.Storage.Dir)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)

	assert.Equal(t, 1.5, cfg.Inventory.WarningMultiplier)
	assert.Empty(t, cfg.RabbitMQ.URL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STOCKLOT_SERVER_PORT", "9090")
	t.Setenv("STOCKLOT_STORAGE_DRIVER", "postgres")
	t.Setenv("STOCKLOT_INVENTORY_WARNING_MULTIPLIER", "1.2")

	cfg, err := config.Load("stocklot-server")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 1.2, cfg.Inventory.WarningMultiplier)
}

func TestLoadWithValidation_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STOCKLOT_STORAGE_DRIVER", "sqlite")

	_, err := config.LoadWithValidation("stocklot-server")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage driver")
}

func TestLoadWithValidation_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("STOCKLOT_SERVER_ENVIRONMENT", "production")

	_, err := config.LoadWithValidation("stocklot-server")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STOCKLOT_JWT_SECRET")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "stocklot",
		Password: "secret",
		Database: "stocklot",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=stocklot password=secret dbname=stocklot sslmode=require",
		cfg.DSN(),
	)
}
