package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kiryu-dev/battleship/internal/rules"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrUnknownStoreDriver = errors.New("unknown store driver")

const (
	MemoryDriver = "memory"
	SQLiteDriver = "sqlite"

	envPrefix = "BATTLESHIP_"
)

type ServerConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver" env:"DRIVER"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type SweeperConfig struct {
	Period time.Duration `yaml:"period" env:"PERIOD"`
}

type config struct {
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Store   StoreConfig   `yaml:"store" envPrefix:"STORE_"`
	Rules   rules.Ruleset `yaml:"rules" envPrefix:"RULES_"`
	Sweeper SweeperConfig `yaml:"sweeper" envPrefix:"SWEEPER_"`
}

func defaults() config {
	return config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Store: StoreConfig{
			Driver:     MemoryDriver,
			SQLitePath: "./data/battleship.db",
		},
		Rules: rules.Default(),
		Sweeper: SweeperConfig{
			Period: time.Minute,
		},
	}
}

// New reads the YAML file at cfgPath over the defaults, then applies
// BATTLESHIP_* environment overrides. An empty path skips the file.
func New(cfgPath string) (config, error) {
	cfg := defaults()
	if cfgPath != "" {
		if err := decodeFile(cfgPath, &cfg); err != nil {
			return config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return config{}, errors.WithMessage(err, "parse env")
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func decodeFile(cfgPath string, cfg *config) error {
	file, err := os.Open(cfgPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return errors.WithMessagef(err, "decode '%s'", cfgPath)
	}
	return nil
}

func (c config) validate() error {
	switch c.Store.Driver {
	case MemoryDriver:
	case SQLiteDriver:
		if c.Store.SQLitePath == "" {
			return errors.New("sqlite store requires sqlite_path")
		}
	default:
		return errors.WithMessagef(ErrUnknownStoreDriver, "'%s'", c.Store.Driver)
	}
	if c.Sweeper.Period <= 0 {
		return errors.Errorf("sweeper period must be positive, got %s", c.Sweeper.Period)
	}
	if err := c.Rules.Validate(); err != nil {
		return errors.WithMessage(err, "rules")
	}
	return nil
}
