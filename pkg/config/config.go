package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	RabbitMQ  RabbitMQConfig
	JWT       JWTConfig
	Inventory InventoryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// StorageConfig selects and configures the persistence driver.
type StorageConfig struct {
	// Driver is either "csv" (flat files, the default) or "postgres".
	Driver string `mapstructure:"driver"`
	// Dir is where the csv driver keeps its files.
	Dir string `mapstructure:"dir"`
}

// DatabaseConfig holds database connection configuration for the
// postgres storage driver.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RabbitMQConfig holds RabbitMQ connection configuration. An empty URL
// disables event publishing.
type RabbitMQConfig struct {
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string        `mapstructure:"secret"`
	AccessExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer       string        `mapstructure:"issuer"`
}

// InventoryConfig holds inventory business thresholds.
type InventoryConfig struct {
	// WarningMultiplier scales the minimum-stock threshold for the
	// warning band. 1.5 is canonical; older deployments ran 1.2.
	WarningMultiplier float64 `mapstructure:"warning_multiplier"`
}

// Load loads configuration from environment and config files.
// This function applies development defaults and is suitable for local
// development. For production use, prefer LoadWithValidation.
func Load(serviceName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("STOCKLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stocklot")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithValidation loads configuration and validates it for the
// current environment. In production this fails fast when required
// configuration is missing.
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := Load(serviceName)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Driver != "csv" && cfg.Storage.Driver != "postgres" {
		return nil, fmt.Errorf("unknown storage driver %q (want csv or postgres)", cfg.Storage.Driver)
	}

	if cfg.Inventory.WarningMultiplier < 1 {
		return nil, errors.New("STOCKLOT_INVENTORY_WARNING_MULTIPLIER must be >= 1")
	}

	if cfg.Server.Environment == EnvProduction || cfg.Server.Environment == EnvStaging {
		if cfg.JWT.Secret == "" || cfg.JWT.Secret == "dev-secret-change-in-production" {
			return nil, errors.New("STOCKLOT_JWT_SECRET must be set to a secure value in " + cfg.Server.Environment)
		}
		if cfg.Storage.Driver == "postgres" && (cfg.Database.Host == "" || cfg.Database.Host == "localhost") {
			return nil, errors.New("STOCKLOT_DATABASE_HOST must be set to a non-localhost value in " + cfg.Server.Environment)
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.environment", "development")

	// Storage defaults: flat files next to the binary, like the
	// original deployments.
	v.SetDefault("storage.driver", "csv")
	v.SetDefault("storage.dir", "./data")

	// Database defaults (postgres driver only)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "stocklot")
	v.SetDefault("database.password", "devpassword")
	v.SetDefault("database.database", "stocklot")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// RabbitMQ defaults: empty URL means events are disabled.
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.reconnect_delay", 5*time.Second)
	v.SetDefault("rabbitmq.max_retries", 5)

	// JWT defaults
	v.SetDefault("jwt.secret", "dev-secret-change-in-production")
	v.SetDefault("jwt.access_expiry", 12*time.Hour)
	v.SetDefault("jwt.issuer", "stocklot")

	// Inventory defaults
	v.SetDefault("inventory.warning_multiplier", 1.5)
}
