package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the process environment of cmd/server.
type Config struct {
	Addr      string `env:"VC_ADDR" envDefault:":8080" validate:"required"`
	DataDir   string `env:"VC_DATA_DIR" envDefault:"./data" validate:"required"`
	ConfigDir string `env:"VC_CONFIG_DIR" envDefault:"./configs" validate:"required"`
	Seed      int64  `env:"VC_SEED" envDefault:"1337"`

	DisableDB           bool   `env:"VC_DISABLE_DB"`
	IndexBackend        string `env:"VC_INDEX_BACKEND" envDefault:"sqlite" validate:"oneof=sqlite none off disabled"`
	EnableAdminHTTP     bool   `env:"VC_ENABLE_ADMIN_HTTP" envDefault:"true"`
	ObserverAllowRemote bool   `env:"VC_OBSERVER_ALLOW_REMOTE"`
	EnablePprof         bool   `env:"VC_ENABLE_PPROF_HTTP"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
}

func (c Config) TuningPath() string { return filepath.Join(c.ConfigDir, "tuning.yaml") }
func (c Config) WorldsPath() string { return filepath.Join(c.ConfigDir, "worlds.yaml") }
func (c Config) IndexPath() string  { return filepath.Join(c.DataDir, "index", "mobs.sqlite") }

// IndexEnabled reports whether the SQLite read model should be opened.
func (c Config) IndexEnabled() bool {
	return !c.DisableDB && c.IndexBackend == "sqlite"
}

// Load reads envFiles (".env" when none are given) into the process
// environment, skipping missing files, then parses it.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%s: %w", f, err)
		}
	}
	return parse(env.Options{})
}

// Parse builds a Config from vars alone, ignoring the process environment.
func Parse(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
