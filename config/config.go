package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug     bool   `envconfig:"debug"`
	Port      int    `envconfig:"port" default:"8080"`
	Env       string `envconfig:"env" default:"dev"`
	LogLevel  string `envconfig:"log_level" default:"info"`
	LogFormat string `envconfig:"log_format" default:"json"`

	DBDriver         string `envconfig:"db_driver" default:"postgres"`
	PostgresHost     string `envconfig:"postgres_host"`
	PostgresPort     int    `envconfig:"postgres_port" default:"5432"`
	PostgresUser     string `envconfig:"postgres_user"`
	PostgresPassword string `envconfig:"postgres_password"`
	PostgresDB       string `envconfig:"postgres_db"`
	MySQLDSN         string `envconfig:"mysql_dsn"`
	SQLitePath       string `envconfig:"sqlite_path" default:"marketplace.db"`

	JWTSecret string `envconfig:"jwt_secret"`

	Broker        string `envconfig:"broker" default:"memory"`
	RedisAddr     string `envconfig:"redis_addr" default:"localhost:6379"`
	RedisPassword string `envconfig:"redis_password"`
	RedisDB       int    `envconfig:"redis_db"`
	NatsURL       string `envconfig:"nats_url" default:"nats://127.0.0.1:4222"`

	AWSRegion          string `envconfig:"aws_region"`
	AWSBucket          string `envconfig:"aws_bucket"`
	AWSAccessKeyID     string `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey string `envconfig:"aws_secret_access_key"`
	AWSEndpoint        string `envconfig:"aws_endpoint"`

	AccessControlAllowOrigin string `envconfig:"access_control_allow_origin"`
	RateLimit                uint   `envconfig:"rate_limit" default:"60"`
	PageSize                 int    `envconfig:"page_size" default:"20"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("marketplace", c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unknown db driver %q", c.DBDriver)
	}
	switch c.Broker {
	case "memory", "redis", "nats":
	default:
		return fmt.Errorf("unknown broker %q", c.Broker)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	return nil
}
