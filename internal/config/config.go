// Package config loads service configuration from an optional YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`

	Store struct {
		Backend string `yaml:"backend"` // cassandra | postgres | sqlite | memory
	} `yaml:"store"`

	Cassandra struct {
		Hosts          []string      `yaml:"hosts"`
		Keyspace       string        `yaml:"keyspace"`
		Consistency    string        `yaml:"consistency"`
		Username       string        `yaml:"username"`
		Password       string        `yaml:"password"`
		NumConns       int           `yaml:"num_conns"`
		Timeout        time.Duration `yaml:"timeout"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
	} `yaml:"cassandra"`

	Postgres struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
		MinConns int32  `yaml:"min_conns"`
	} `yaml:"postgres"`

	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`

	Views struct {
		Backend string `yaml:"backend"` // store | redis
	} `yaml:"views"`

	Redis struct {
		Addr         string        `yaml:"addr"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size"`
		MinIdleConns int           `yaml:"min_idle_conns"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"redis"`

	Events struct {
		NATSURL       string `yaml:"nats_url"` // empty disables NATS publishing
		SubjectPrefix string `yaml:"subject_prefix"`
		LiveViews     bool   `yaml:"live_views"`
	} `yaml:"events"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() *Config {
	c := &Config{}

	c.Server.Port = 8080
	c.Server.ReadTimeout = 5 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Server.CORSOrigins = []string{"*"}

	c.Store.Backend = "cassandra"

	c.Cassandra.Hosts = []string{"127.0.0.1"}
	c.Cassandra.Keyspace = "cassandra_duombaze"
	c.Cassandra.Consistency = "QUORUM"
	c.Cassandra.NumConns = 2
	c.Cassandra.Timeout = 5 * time.Second
	c.Cassandra.ConnectTimeout = 10 * time.Second

	c.Postgres.MaxConns = 10
	c.Postgres.MinConns = 2

	c.SQLite.Path = "vidcatalog.db"

	c.Views.Backend = "store"

	c.Redis.Addr = "localhost:6379"
	c.Redis.PoolSize = 10
	c.Redis.MinIdleConns = 2
	c.Redis.ReadTimeout = 3 * time.Second
	c.Redis.WriteTimeout = 3 * time.Second

	c.Events.SubjectPrefix = "catalog"
	c.Events.LiveViews = true

	c.Log.Level = "info"
	return c
}

// Load applies, in order: defaults, the YAML file at path (skipped when path
// is empty), environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("CASSANDRA_HOSTS"); v != "" {
		c.Cassandra.Hosts = splitList(v)
	}
	if v := os.Getenv("CASSANDRA_KEYSPACE"); v != "" {
		c.Cassandra.Keyspace = v
	}
	if v := os.Getenv("CASSANDRA_CONSISTENCY"); v != "" {
		c.Cassandra.Consistency = v
	}
	if v := os.Getenv("CASSANDRA_USERNAME"); v != "" {
		c.Cassandra.Username = v
	}
	if v := os.Getenv("CASSANDRA_PASSWORD"); v != "" {
		c.Cassandra.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.SQLite.Path = v
	}
	if v := os.Getenv("VIEWS_BACKEND"); v != "" {
		c.Views.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Store.Backend {
	case "cassandra":
		if len(c.Cassandra.Hosts) == 0 {
			errs = append(errs, errors.New("cassandra.hosts is empty"))
		}
		if c.Cassandra.Keyspace == "" {
			errs = append(errs, errors.New("cassandra.keyspace is empty"))
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is empty (set DATABASE_URL)"))
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite.path is empty"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Views.Backend {
	case "store":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown views.backend %q", c.Views.Backend))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
