package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	require.True(t, cfg.TreeCache)
	require.False(t, cfg.Seed)
	require.Equal(t, "menus.events", cfg.KafkaTopic)
	require.Empty(t, cfg.Brokers())
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	err := applyEnv(&cfg, mapLookup(map[string]string{
		"MENU_HTTP_ADDR":            "127.0.0.1:18080",
		"MENU_STORAGE_DRIVER":       "postgres",
		"MENU_POSTGRES_DSN":         "postgres://menus@localhost/menus",
		"MENU_DEBUG":                "true",
		"MENU_TREE_CACHE":           "false",
		"MENU_SEED":                 "1",
		"MENU_GRPC_ADDR":            "",
		"KAFKA_BROKERS":             "kafka-1:9092, kafka-2:9092,",
		"MENU_OUTBOX_BATCH_SIZE":    "10",
		"MENU_OUTBOX_POLL_INTERVAL": "250ms",
		"MENU_SHUTDOWN_TIMEOUT":     "3s",
	}))
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:18080", cfg.HTTPAddr)
	require.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	require.Equal(t, "postgres://menus@localhost/menus", cfg.PostgresDSN)
	require.True(t, cfg.Debug)
	require.False(t, cfg.TreeCache)
	require.True(t, cfg.Seed)
	require.Empty(t, cfg.GRPCAddr)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	require.Equal(t, 10, cfg.OutboxBatchSize)
	require.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvBlankValuesKeepDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, applyEnv(&cfg, mapLookup(map[string]string{
		"MENU_HTTP_ADDR":  "  ",
		"MENU_TREE_CACHE": "",
	})))
	require.Equal(t, DefaultConfig(), cfg)
}

func TestApplyEnvInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MENU_DEBUG":                "maybe",
		"MENU_OUTBOX_BATCH_SIZE":    "ten",
		"MENU_OUTBOX_POLL_INTERVAL": "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			cfg := DefaultConfig()
			err := applyEnv(&cfg, mapLookup(map[string]string{key: value}))
			require.Error(t, err)
			require.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":18081"
storage_driver: memory
tree_cache: false
kafka_brokers: "localhost:9092"
outbox_poll_interval: 2s
`), 0o600))

	t.Setenv("MENU_HTTP_ADDR", "")
	t.Setenv("MENU_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, ":18081", cfg.HTTPAddr)
	require.False(t, cfg.TreeCache)
	require.Equal(t, []string{"localhost:9092"}, cfg.Brokers())
	require.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	require.Equal(t, "debug", cfg.LogLevel)
	// не заданные в файле поля сохраняют значения по умолчанию
	require.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: [unterminated"), 0o600))
	_, err = LoadConfig(path)
	require.ErrorContains(t, err, "parse config file")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unsupported driver",
			mutate:  func(c *Config) { c.StorageDriver = "sqlite" },
			wantErr: `unsupported storage driver "sqlite"`,
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.StorageDriver = StorageDriverPostgres },
			wantErr: "MENU_POSTGRES_DSN is required",
		},
		{
			name:    "empty http addr",
			mutate:  func(c *Config) { c.HTTPAddr = "" },
			wantErr: "http address",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "invalid log level",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.OutboxPollInterval = 0 },
			wantErr: "poll interval",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.OutboxBatchSize = 0 },
			wantErr: "batch size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	require.NoError(t, SetupLogger("warn"))
	require.Error(t, SetupLogger("verbose"))
	require.NoError(t, SetupLogger("info"))
}
