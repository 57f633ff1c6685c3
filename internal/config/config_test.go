package config_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-apotek/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"APP_ENV":                  "",
		"PORT":                     "",
		"CURRENCY":                 "",
		"TAX_RATE":                 "",
		"SALE_REF_PREFIX":          "",
		"DEFAULT_REORDER_LEVEL":    "",
		"DEFAULT_REORDER_QUANTITY": "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "USD", cfg.Currency)
	require.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.15")))
	require.Equal(t, "SALE", cfg.SaleRefPrefix)
	require.Equal(t, 50, cfg.DefaultReorderLevel)
	require.Equal(t, 100, cfg.DefaultReorderQuantity)
	require.Equal(t, "apotek", cfg.MetricsNamespace)
	require.True(t, cfg.MetricsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"PORT":                     "9090",
		"CURRENCY":                 "idr",
		"TAX_RATE":                 "0.11",
		"SALE_REF_PREFIX":          "TRX",
		"DEFAULT_REORDER_LEVEL":    "25",
		"DEFAULT_REORDER_QUANTITY": "75",
		"CORS_ALLOWED_ORIGINS":     "https://a.example, https://b.example",
		"OBS_ENABLE_PROMETHEUS":    "false",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "IDR", cfg.Currency)
	require.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.11")))
	require.Equal(t, "TRX", cfg.SaleRefPrefix)
	require.Equal(t, 25, cfg.DefaultReorderLevel)
	require.Equal(t, 75, cfg.DefaultReorderQuantity)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.MetricsEnabled)
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	for _, bad := range []string{"abc", "-0.1", "1", "1.5"} {
		_, err := config.LoadForTests(map[string]string{"TAX_RATE": bad})
		require.Error(t, err, "tax rate %q", bad)
	}
}

func TestLoadRejectsBadReorderDefaults(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"TAX_RATE":              "",
		"DEFAULT_REORDER_LEVEL": "-1",
	})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{
		"TAX_RATE":                 "",
		"DEFAULT_REORDER_QUANTITY": "-5",
	})
	require.Error(t, err)
}
