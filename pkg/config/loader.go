package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// EnvFileVar names the variable that points at an optional dotenv file.
const EnvFileVar = "ENV_FILE"

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Before parsing, variables from a dotenv file are merged into the process
// environment without overriding values that are already set. The file is
// taken from ENV_FILE, falling back to ".env" in the working directory. A
// missing default file is not an error; a missing ENV_FILE is.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := loadEnvFile(); err != nil {
		return err
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func loadEnvFile() error {
	path, explicit := os.LookupEnv(EnvFileVar)
	if !explicit || path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
