package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load reads dotenv files into the process environment and parses the
// environment into v using `env` struct tags.
//
// Without files, ".env" in the working directory is tried. Missing files are
// skipped. Values already present in the environment take precedence over
// the files.
//
//	type StorageConfig struct {
//		Driver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
//		Path   string `env:"DB_PATH" envDefault:"keymeter.db"`
//	}
//
//	var cfg StorageConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, files ...string) error {
	if v == nil {
		return ErrNilPointer
	}

	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(ErrReadingEnvFile, fmt.Errorf("%s: %w", f, err))
		}
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure.
// Meant for configuration the process cannot start without.
func MustLoad[T any](v *T, files ...string) {
	if err := Load(v, files...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
