package utils

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds service settings loaded from .env files and the process environment.
// All getters are safe for concurrent use.
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewConfig creates a new Config holding a copy of the provided values
func NewConfig(values map[string]string) *Config {
	config := &Config{
		values: make(map[string]string),
	}

	maps.Copy(config.values, values)

	return config
}

// NewConfigFromEnv loads the given .env files (later files win) and the environment
func NewConfigFromEnv(files ...string) *Config {
	return NewConfig(LoadEnv(files...))
}

// Get retrieves a value by key, or the empty string
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetWithDefault retrieves a non-empty value by key with a fallback default
func (c *Config) GetWithDefault(key, defaultValue string) string {
	if value := c.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBool parses a value as a boolean. Unknown or missing values are false.
func (c *Config) GetBool(key string) bool {
	return c.GetBoolWithDefault(key, false)
}

// GetBoolWithDefault parses a value as a boolean with a fallback default
func (c *Config) GetBoolWithDefault(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(c.Get(key)))
	if value == "" {
		return defaultValue
	}

	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed
	}

	switch value {
	case "yes", "on", "enabled":
		return true
	case "no", "off", "disabled":
		return false
	}
	return defaultValue
}

// GetIntWithDefault parses a value as an integer with a fallback default
func (c *Config) GetIntWithDefault(key string, defaultValue int) int {
	value := strings.TrimSpace(c.Get(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetFloatWithDefault parses a value as a float64 with a fallback default
func (c *Config) GetFloatWithDefault(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(c.Get(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetDurationWithDefault parses a value with time.ParseDuration with a fallback default
func (c *Config) GetDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(c.Get(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Require returns an error naming every key that is missing or empty
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

// Has checks if a configuration key exists
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.values[key]
	return exists
}

// Keys returns all configuration keys in sorted order
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
