// Package config assembles the server configuration from command-line flags,
// KV_* environment variables and an optional .env file, in that order of
// precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every tunable of the server. An empty GRPCAddr or HTTPAddr
// disables that listener.
type Config struct {
	RESPAddr string `validate:"required,hostname_port"`
	GRPCAddr string `validate:"omitempty,hostname_port"`
	HTTPAddr string `validate:"omitempty,hostname_port"`

	Password   string
	BcryptCost int `validate:"min=4,max=31"`

	Shards         int           `validate:"min=1,max=4096"`
	Capacity       int           `validate:"min=0"`
	EvictionPolicy string        `validate:"oneof=none lru lfu fifo random"`
	SweepInterval  time.Duration `validate:"gte=0"`

	LogLevel string `validate:"oneof=trace debug info warn error"`
	LogJSON  bool
}

var validate = validator.New()

// Validate checks field constraints and their combinations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Capacity > 0 && c.EvictionPolicy == "none" {
		return errors.New("capacity requires an eviction policy")
	}
	return nil
}

// Load parses args with defaults taken from the process environment, falling
// back to envFile when it exists.
func Load(args []string, envFile string) (*Config, error) {
	fileEnv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = m
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	return Parse(args, func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileEnv[key]
	})
}

// Parse parses args with defaults resolved through getenv.
func Parse(args []string, getenv func(string) string) (*Config, error) {
	env := envDefaults{getenv: getenv}
	cfg := &Config{}

	flags := flag.NewFlagSet("kvstore", flag.ContinueOnError)
	flags.StringVar(&cfg.RESPAddr, "resp_addr", env.str("KV_RESP_ADDR", ":6379"), "RESP listen address")
	flags.StringVar(&cfg.GRPCAddr, "grpc_addr", env.str("KV_GRPC_ADDR", ":50051"), "gRPC listen address, empty to disable")
	flags.StringVar(&cfg.HTTPAddr, "http_addr", env.str("KV_HTTP_ADDR", ":8080"), "HTTP admin listen address, empty to disable")
	flags.StringVar(&cfg.Password, "password", env.str("KV_PASSWORD", ""), "Shared password, empty for an open server")
	flags.IntVar(&cfg.BcryptCost, "bcrypt_cost", env.integer("KV_BCRYPT_COST", bcrypt.DefaultCost), "bcrypt cost of the stored password hash")
	flags.IntVar(&cfg.Shards, "shards", env.integer("KV_SHARDS", 16), "Number of keyspace shards")
	flags.IntVar(&cfg.Capacity, "capacity", env.integer("KV_CAPACITY", 0), "Maximum number of keys, 0 for unbounded")
	flags.StringVar(&cfg.EvictionPolicy, "eviction_policy", env.str("KV_EVICTION_POLICY", "none"), "Eviction policy: none, lru, lfu, fifo or random")
	flags.DurationVar(&cfg.SweepInterval, "sweep_interval", env.duration("KV_SWEEP_INTERVAL", time.Second), "Expired key sweep interval, 0 to disable")
	flags.StringVar(&cfg.LogLevel, "log_level", env.str("KV_LOG_LEVEL", "info"), "Log level")
	flags.BoolVar(&cfg.LogJSON, "log_json", env.boolean("KV_LOG_JSON", false), "Log as JSON")

	if env.err != nil {
		return nil, env.err
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envDefaults turns environment variables into flag defaults and keeps the
// first conversion error.
type envDefaults struct {
	getenv func(string) string
	err    error
}

func (e *envDefaults) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envDefaults) integer(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envDefaults) boolean(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}

func (e *envDefaults) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *envDefaults) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
}
