package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv applies .env files to the process environment and returns the
// resulting environment as a map. Missing files are skipped. godotenv never
// overrides variables that are already set, so the real environment wins
// over every file and earlier files win over later ones
func LoadEnv(files ...string) (map[string]string, error) {
	for _, file := range files {
		if file == "" {
			continue
		}

		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	config := make(map[string]string)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if ok && key != "" {
			config[key] = value
		}
	}

	return config, nil
}

// GetEnvWithDefault returns an environment variable value or a default if not set
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
