package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HELPDESK_DATABASE_DRIVER.
const EnvPrefix = "HELPDESK"

type Config struct {
	Database struct {
		Driver  string `mapstructure:"driver"` // "sqlite" or "postgres"
		Primary struct {
			DSN string `mapstructure:"dsn"`
		} `mapstructure:"primary"`
	} `mapstructure:"database"`

	Models struct {
		Dir                string        `mapstructure:"dir"`
		Backend            string        `mapstructure:"backend"` // "filesystem" or "database"
		Seed               uint64        `mapstructure:"seed"`
		MaxFeatures        int           `mapstructure:"max_features"`
		MaxDepth           int           `mapstructure:"max_depth"`
		Estimators         int           `mapstructure:"estimators"`
		MinResolvedTickets int           `mapstructure:"min_resolved_tickets"`
		TrainTimeout       time.Duration `mapstructure:"train_timeout"`
		TrainOnStartup     bool          `mapstructure:"train_on_startup"`
	} `mapstructure:"models"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
		Mode string `mapstructure:"mode"` // gin mode: debug, release or test
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // "text" or "json"
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.primary.dsn", "instance/database.db")

	v.SetDefault("models.dir", "ml_models")
	v.SetDefault("models.backend", "filesystem")
	v.SetDefault("models.seed", 42)
	v.SetDefault("models.max_features", 1000)
	v.SetDefault("models.max_depth", 10)
	v.SetDefault("models.estimators", 100)
	v.SetDefault("models.min_resolved_tickets", 10)
	v.SetDefault("models.train_timeout", "5m")
	v.SetDefault("models.train_on_startup", true)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.queues", map[string]int{"training": 6, "default": 3})

	v.SetDefault("server.addr", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads configFile, or config.yaml from the working directory when
// configFile is empty. A missing config.yaml is not an error; defaults and
// HELPDESK_* environment variables apply on top.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// redis is commonly configured through the standard variable
	v.BindEnv("redis.address", EnvPrefix+"_REDIS_ADDRESS", "REDIS_ADDR")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &config, nil
}
