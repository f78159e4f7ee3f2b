// Package config loads server settings from defaults, an optional YAML file
// and TOPICGRAPH_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TOPICGRAPH_"

type Config struct {
	Env         string        `yaml:"env" validate:"required,oneof=development production test"`
	LogLevel    string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	HTTPAddr    string        `yaml:"http_addr" validate:"required"`
	RPCSocket   string        `yaml:"rpc_socket"`
	DBPath      string        `yaml:"db_path" validate:"required"`
	CORSOrigins []string      `yaml:"cors_origins"`
	TokenTTL    time.Duration `yaml:"token_ttl" validate:"gte=0"`
	ShutdownTTL time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

func Default() Config {
	return Config{
		Env:         "development",
		HTTPAddr:    ":8080",
		RPCSocket:   "./topicgraph.sock",
		DBPath:      "./topicgraph.db",
		CORSOrigins: []string{"*"},
		TokenTTL:    0,
		ShutdownTTL: 5 * time.Second,
	}
}

// Load reads an optional .env file, then the YAML file at path when path is
// non-empty, then environment overrides, and validates the result.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.RPCSocket = getEnv("RPC_SOCKET", c.RPCSocket)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}

	var err error
	if c.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.ShutdownTTL, err = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTTL); err != nil {
		return err
	}
	return nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// TokenTTLPtr returns nil when tokens do not expire.
func (c Config) TokenTTLPtr() *time.Duration {
	if c.TokenTTL <= 0 {
		return nil
	}
	ttl := c.TokenTTL
	return &ttl
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: invalid duration %q", envPrefix, key, v)
	}
	return time.Duration(secs) * time.Second, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
