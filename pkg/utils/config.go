package utils

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config provides a thread-safe view over configuration values sourced from
// the environment and .env files
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewConfig creates a new Config instance with a copy of the provided key-value pairs
func NewConfig(values map[string]string) *Config {
	config := &Config{
		values: make(map[string]string),
	}

	maps.Copy(config.values, values)

	return config
}

// NewConfigFromEnv creates a new Config by applying the given .env files and
// snapshotting the resulting process environment
func NewConfigFromEnv(files ...string) (*Config, error) {
	envMap, err := LoadEnv(files...)
	if err != nil {
		return nil, err
	}
	return NewConfig(envMap), nil
}

// Get retrieves a configuration value by key
// Returns empty string if key doesn't exist
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetWithDefault retrieves a configuration value by key with a fallback default
// for missing or empty values
func (c *Config) GetWithDefault(key, defaultValue string) string {
	if value := c.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBool retrieves a configuration value as a boolean
// Returns false if key doesn't exist or cannot be parsed as boolean
func (c *Config) GetBool(key string) bool {
	value := strings.ToLower(strings.TrimSpace(c.Get(key)))
	switch value {
	case "1", "t", "true", "yes", "on", "enabled":
		return true
	default:
		return false
	}
}

// GetDuration retrieves a configuration value as a time.Duration. Plain
// integers are read as seconds ("30" == 30s)
func (c *Config) GetDuration(key string) (time.Duration, error) {
	value := strings.TrimSpace(c.Get(key))
	if value == "" {
		return 0, fmt.Errorf("%s is not set", key)
	}

	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}

// LookupInt parses an optional integer key. ok is false when the key is
// unset; a set but malformed value is an error
func (c *Config) LookupInt(key string) (value int, ok bool, err error) {
	raw := strings.TrimSpace(c.Get(key))
	if raw == "" {
		return 0, false, nil
	}

	value, err = strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return value, true, nil
}

// LookupFloat parses an optional float key, see LookupInt
func (c *Config) LookupFloat(key string) (value float64, ok bool, err error) {
	raw := strings.TrimSpace(c.Get(key))
	if raw == "" {
		return 0, false, nil
	}

	value, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return value, true, nil
}

// LookupDuration parses an optional duration key, see LookupInt and GetDuration
func (c *Config) LookupDuration(key string) (value time.Duration, ok bool, err error) {
	if strings.TrimSpace(c.Get(key)) == "" {
		return 0, false, nil
	}

	value, err = c.GetDuration(key)
	return value, true, err
}

// Require returns an error naming every key that is unset or empty
func (c *Config) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if c.Get(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Set modifies a configuration value
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}
