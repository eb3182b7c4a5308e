package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Order    OrderConfig    `yaml:"order"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	AutoMigrate     *bool         `yaml:"autoMigrate"`
}

// MigrateOnStart reports whether pending migrations run when the store is
// opened. An unset AutoMigrate means yes.
func (c DatabaseConfig) MigrateOnStart() bool {
	return c.AutoMigrate == nil || *c.AutoMigrate
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type OrderConfig struct {
	TxTimeout        time.Duration `yaml:"txTimeout"`
	MaxRetryAttempts int           `yaml:"maxRetryAttempts"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Load builds the configuration from built-in defaults, then the values in
// file (when non-nil), then environment variables.
func Load(file *Config) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "30s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "laundry")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "laundrypro")
	v.SetDefault("DB_PATH", "laundrypro.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ORDER_TX_TIMEOUT", "5s")
	v.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)

	if file != nil {
		overlayFile(v, file)
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"SERVER_SHUTDOWN_TIMEOUT", "DB_CONN_MAX_LIFETIME", "ORDER_TX_TIMEOUT",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	autoMigrate := v.GetBool("DB_AUTO_MIGRATE")
	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    durations["SERVER_WRITE_TIMEOUT"],
			IdleTimeout:     durations["SERVER_IDLE_TIMEOUT"],
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			Path:            v.GetString("DB_PATH"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
			AutoMigrate:     &autoMigrate,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Order: OrderConfig{
			TxTimeout:        durations["ORDER_TX_TIMEOUT"],
			MaxRetryAttempts: v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Order.MaxRetryAttempts < 1 {
		return fmt.Errorf("order max retry attempts must be at least 1")
	}
	return nil
}

// overlayFile promotes non-zero file values to defaults so that environment
// variables still win over them.
func overlayFile(v *viper.Viper, f *Config) {
	setInt := func(key string, val int) {
		if val != 0 {
			v.SetDefault(key, val)
		}
	}
	setString := func(key, val string) {
		if val != "" {
			v.SetDefault(key, val)
		}
	}
	setDuration := func(key string, val time.Duration) {
		if val != 0 {
			v.SetDefault(key, val.String())
		}
	}

	setInt("SERVER_PORT", f.Server.Port)
	setDuration("SERVER_READ_TIMEOUT", f.Server.ReadTimeout)
	setDuration("SERVER_WRITE_TIMEOUT", f.Server.WriteTimeout)
	setDuration("SERVER_IDLE_TIMEOUT", f.Server.IdleTimeout)
	setDuration("SERVER_SHUTDOWN_TIMEOUT", f.Server.ShutdownTimeout)
	setString("DB_DRIVER", f.Database.Driver)
	setString("DB_HOST", f.Database.Host)
	setInt("DB_PORT", f.Database.Port)
	setString("DB_USER", f.Database.User)
	setString("DB_PASSWORD", f.Database.Password)
	setString("DB_NAME", f.Database.Name)
	setString("DB_PATH", f.Database.Path)
	setInt("DB_MAX_OPEN_CONNS", f.Database.MaxOpenConns)
	setInt("DB_MAX_IDLE_CONNS", f.Database.MaxIdleConns)
	setDuration("DB_CONN_MAX_LIFETIME", f.Database.ConnMaxLifetime)
	if f.Database.AutoMigrate != nil {
		v.SetDefault("DB_AUTO_MIGRATE", *f.Database.AutoMigrate)
	}
	setString("LOG_LEVEL", f.Log.Level)
	setDuration("ORDER_TX_TIMEOUT", f.Order.TxTimeout)
	setInt("ORDER_MAX_RETRY_ATTEMPTS", f.Order.MaxRetryAttempts)
}
