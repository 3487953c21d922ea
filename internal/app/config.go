package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска menu-service.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	// GRPCAddr — адрес gRPC health-сервера; пустая строка отключает его.
	GRPCAddr string `yaml:"grpc_addr"`

	StorageDriver       string `yaml:"storage_driver"`
	PostgresDSN         string `yaml:"postgres_dsn"`
	PostgresAutoMigrate bool   `yaml:"postgres_auto_migrate"`

	Debug     bool   `yaml:"debug"`
	LogLevel  string `yaml:"log_level"`
	TreeCache bool   `yaml:"tree_cache"`
	Seed      bool   `yaml:"seed"`

	// KafkaBrokers — список брокеров через запятую; пустой отключает Kafka.
	KafkaBrokers string `yaml:"kafka_brokers"`
	KafkaTopic   string `yaml:"kafka_topic"`

	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval"`
	OutboxBatchSize    int           `yaml:"outbox_batch_size"`
	OutboxMaxAttempts  int           `yaml:"outbox_max_attempts"`
	OutboxRetryDelay   time.Duration `yaml:"outbox_retry_delay"`

	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		GRPCAddr:            ":50051",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		LogLevel:            "info",
		TreeCache:           true,
		KafkaTopic:          "menus.events",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		RequestTimeout:      10 * time.Second,
		ShutdownTimeout:     5 * time.Second,
	}
}

// Brokers разбирает KafkaBrokers в список адресов.
func (c Config) Brokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("MENU_POSTGRES_DSN is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http address must not be empty")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("outbox poll interval must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive")
	}
	return nil
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем YAML-файл
// (если path не пуст), затем переменные окружения.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromEnv читает конфигурацию из окружения; MENU_CONFIG_FILE
// задаёт необязательный YAML-файл.
func ConfigFromEnv() (Config, error) {
	return LoadConfig(os.Getenv("MENU_CONFIG_FILE"))
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MENU_HTTP_ADDR":      &cfg.HTTPAddr,
		"MENU_METRICS_ADDR":   &cfg.MetricsAddr,
		"MENU_STORAGE_DRIVER": &cfg.StorageDriver,
		"MENU_POSTGRES_DSN":   &cfg.PostgresDSN,
		"MENU_LOG_LEVEL":      &cfg.LogLevel,
		"KAFKA_BROKERS":       &cfg.KafkaBrokers,
		"MENU_KAFKA_TOPIC":    &cfg.KafkaTopic,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	// пустое значение отключает gRPC health-сервер
	if v, ok := lookup("MENU_GRPC_ADDR"); ok {
		cfg.GRPCAddr = strings.TrimSpace(v)
	}

	bools := map[string]*bool{
		"MENU_POSTGRES_AUTO_MIGRATE": &cfg.PostgresAutoMigrate,
		"MENU_DEBUG":                 &cfg.Debug,
		"MENU_TREE_CACHE":            &cfg.TreeCache,
		"MENU_SEED":                  &cfg.Seed,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = parsed
	}

	ints := map[string]*int{
		"MENU_OUTBOX_BATCH_SIZE":   &cfg.OutboxBatchSize,
		"MENU_OUTBOX_MAX_ATTEMPTS": &cfg.OutboxMaxAttempts,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = parsed
	}

	durations := map[string]*time.Duration{
		"MENU_OUTBOX_POLL_INTERVAL": &cfg.OutboxPollInterval,
		"MENU_OUTBOX_RETRY_DELAY":   &cfg.OutboxRetryDelay,
		"MENU_REQUEST_TIMEOUT":      &cfg.RequestTimeout,
		"MENU_SHUTDOWN_TIMEOUT":     &cfg.ShutdownTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = parsed
	}
	return nil
}

// SetupLogger настраивает формат и уровень логирования.
func SetupLogger(level string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(parsed)
	return nil
}
