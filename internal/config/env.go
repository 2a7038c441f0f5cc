package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Environment keys. The hyphenated names are the canonical ones; each is also
// looked up in UPPER_SNAKE form for shells that cannot export hyphens. Keys
// that collide with variables the OS sets itself (USERNAME on Windows) fall
// back to an MVF_ prefixed name instead.
const (
	KeyMQTTHost        = "mqtt-host"
	KeyMQTTPort        = "mqtt-port"
	KeyMQTTTopic       = "mqtt-topic"
	KeyMQTTUsername    = "mqtt-username"
	KeyMQTTPassword    = "mqtt-password"
	KeyMQTTTLS         = "mqtt-tls"
	KeyMQTTTLSInsecure = "mqtt-tls-insecure"
	KeyUsername        = "username"
	KeyPassword        = "password"
	KeyUtilityCode     = "utility-code"
	KeyRemoteURL       = "webdriver-remote-url"
	KeyBrowserDriver   = "browser-driver"
	KeyInterval        = "interval"
	KeyElementTimeout  = "element-timeout"
	KeySessionLifeTime = "session-lifetime"
	KeyPortalURL       = "portal-url"
	KeyMetricsAddr     = "metrics-addr"
	KeyLogLevel        = "log-level"

	// Misspelled key from older deployments, still honoured.
	legacyKeyMQTTPassword = "mqtt-passowrd"
)

type LookupFunc func(key string) (string, bool)

func lookup(fn LookupFunc, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := fn(key); ok {
			return v, true
		}
		if v, ok := fn(snake(key)); ok {
			return v, true
		}
	}
	return "", false
}

// prefixedKeys only fall back to the MVF_ form; bare USERNAME is the OS login name.
var prefixedKeys = map[string]bool{
	KeyUsername: true,
	KeyPassword: true,
}

const envPrefix = "MVF_"

func snake(key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	if prefixedKeys[key] {
		return envPrefix + name
	}
	return name
}

// ApplyEnv overrides fields for every key fn reports as set.
func (c *Config) ApplyEnv(fn LookupFunc) error {
	var errs []error

	str := func(dst *string, keys ...string) {
		if v, ok := lookup(fn, keys...); ok {
			*dst = v
		}
	}
	boolean := func(dst *bool, key string) {
		v, ok := lookup(fn, key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
	duration := func(dst *Duration, key string) {
		v, ok := lookup(fn, key)
		if !ok {
			return
		}
		d, err := ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str(&c.MQTT.Host, KeyMQTTHost)
	if v, ok := lookup(fn, KeyMQTTPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", KeyMQTTPort, err))
		} else {
			c.MQTT.Port = port
		}
	}
	str(&c.MQTT.Topic, KeyMQTTTopic)
	str(&c.MQTT.Username, KeyMQTTUsername)
	str(&c.MQTT.Password, KeyMQTTPassword, legacyKeyMQTTPassword)
	boolean(&c.MQTT.TLS, KeyMQTTTLS)
	boolean(&c.MQTT.TLSInsecure, KeyMQTTTLSInsecure)

	str(&c.Portal.Username, KeyUsername)
	str(&c.Portal.Password, KeyPassword)
	str(&c.Portal.UtilityCode, KeyUtilityCode)
	str(&c.Portal.URL, KeyPortalURL)

	str(&c.Browser.RemoteURL, KeyRemoteURL)
	str(&c.Browser.Driver, KeyBrowserDriver)
	duration(&c.Browser.ElementTimeout, KeyElementTimeout)
	duration(&c.Browser.SessionLifeTime, KeySessionLifeTime)

	duration(&c.Interval, KeyInterval)
	str(&c.MetricsAddr, KeyMetricsAddr)
	str(&c.LogLevel, KeyLogLevel)

	return errors.Join(errs...)
}
