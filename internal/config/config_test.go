package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/config"
)

func TestLoadRequiresRedisURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL":    "",
		"ERP_BASE_URL": "http://erp.local",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":    "redis://localhost:6379/0",
		"ERP_BASE_URL": "http://erp.local",
		"PORT":         "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "frappe", cfg.ERPProvider)
	require.Equal(t, "IDR", cfg.CurrencyCode)
	require.Equal(t, 50, cfg.CatalogPageSize)
	require.True(t, cfg.CatalogWarmEnabled)
}

func TestMockProviderNeedsNoBaseURL(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":    "redis://localhost:6379/0",
		"ERP_BASE_URL": "",
		"ERP_PROVIDER": "mock",
	})
	require.NoError(t, err)
	require.Equal(t, "mock", cfg.ERPProvider)
}
