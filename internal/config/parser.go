package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissing marks a required setting that was not provided.
var ErrMissing = errors.New("missing required setting")

// ParseConfig overlays a JSON document onto the defaults.
func ParseConfig(byteConfig []byte) (*Config, error) {
	cfg := Default()
	if len(byteConfig) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(byteConfig, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the optional JSON file and .env file, applies the process
// environment on top and validates the result.
func Load(configPath, envFile string) (*Config, error) {
	var raw []byte
	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		raw = b
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, err
	}

	// godotenv.Load never overrides variables already in the environment.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	require := func(key, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissing, key))
		}
	}
	require(KeyMQTTHost, c.MQTT.Host)
	require(KeyUsername, c.Portal.Username)
	require(KeyPassword, c.Portal.Password)
	require(KeyUtilityCode, c.Portal.UtilityCode)
	require(KeyRemoteURL, c.Browser.RemoteURL)

	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s out of range: %d", KeyMQTTPort, c.MQTT.Port))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyInterval))
	}
	if c.Browser.ElementTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyElementTimeout))
	}
	if c.Browser.SessionLifeTime <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeySessionLifeTime))
	}
	return errors.Join(errs...)
}
