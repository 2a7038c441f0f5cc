package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func fullEnv() map[string]string {
	return map[string]string{
		"mqtt-host":            "broker.local",
		"username":             "user@example.dk",
		"password":             "secret",
		"utility-code":         "1234",
		"webdriver-remote-url": "ws://chrome:9222",
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, 1883, cfg.MQTT.Port)
	require.Equal(t, "minvandforsyningdk/total", cfg.MQTT.Topic)
	require.Equal(t, time.Hour, cfg.Interval.Std())
	require.Equal(t, 10*time.Second, cfg.Browser.ElementTimeout.Std())
	require.Equal(t, "chromedp", cfg.Browser.Driver)
	require.Equal(t, 2*time.Minute, cfg.Browser.SessionLifeTime.Std())
}

func TestParseConfigJSON(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{
		"mqtt": {"host": "10.0.0.2", "port": 8883, "tls": true},
		"portal": {"username": "u", "password": "p", "utility_code": "42"},
		"browser": {"remote_url": "http://chrome:9222", "driver": "rod", "element_timeout": "20s"},
		"interval": 1800
	}`))
	require.NoError(t, err)
	require.Equal(t, "10.0.0.2", cfg.MQTT.Host)
	require.Equal(t, 8883, cfg.MQTT.Port)
	require.True(t, cfg.MQTT.TLS)
	require.Equal(t, "minvandforsyningdk/total", cfg.MQTT.Topic)
	require.Equal(t, "42", cfg.Portal.UtilityCode)
	require.Equal(t, "rod", cfg.Browser.Driver)
	require.Equal(t, 20*time.Second, cfg.Browser.ElementTimeout.Std())
	require.Equal(t, 30*time.Minute, cfg.Interval.Std())
	require.NoError(t, cfg.Validate())
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig([]byte(`{"interval": "soon"}`))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := fullEnv()
	env["mqtt-port"] = "1884"
	env["interval"] = "3600"
	env["mqtt-tls"] = "true"
	env["portal-url"] = "http://localhost:8080/LoginIntermediate"

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(mapLookup(env)))
	require.NoError(t, cfg.Validate())
	require.Equal(t, "broker.local", cfg.MQTT.Host)
	require.Equal(t, 1884, cfg.MQTT.Port)
	require.True(t, cfg.MQTT.TLS)
	require.Equal(t, time.Hour, cfg.Interval.Std())
	require.Equal(t, "ws://chrome:9222", cfg.Browser.RemoteURL)
	require.Equal(t, "http://localhost:8080/LoginIntermediate", cfg.Portal.URL)
}

func TestApplyEnvSnakeCaseFallback(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(mapLookup(map[string]string{
		"MQTT_HOST":            "broker",
		"UTILITY_CODE":         "99",
		"WEBDRIVER_REMOTE_URL": "ws://x",
	})))
	require.Equal(t, "broker", cfg.MQTT.Host)
	require.Equal(t, "99", cfg.Portal.UtilityCode)
	require.Equal(t, "ws://x", cfg.Browser.RemoteURL)
}

func TestApplyEnvLegacyPasswordKey(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(mapLookup(map[string]string{"mqtt-passowrd": "old"})))
	require.Equal(t, "old", cfg.MQTT.Password)

	cfg = Default()
	require.NoError(t, cfg.ApplyEnv(mapLookup(map[string]string{
		"mqtt-passowrd": "old",
		"mqtt-password": "new",
	})))
	require.Equal(t, "new", cfg.MQTT.Password)
}

func TestApplyEnvBadValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"mqtt-port": "eighteen",
		"interval":  "-5",
		"mqtt-tls":  "maybe",
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "mqtt-port")
	require.Contains(t, err.Error(), "interval")
	require.Contains(t, err.Error(), "mqtt-tls")
}

func TestValidateMissing(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrMissing)
	for _, key := range []string{"mqtt-host", "username", "password", "utility-code", "webdriver-remote-url"} {
		require.Contains(t, err.Error(), key)
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "appconfig.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"mqtt": {"host": "file-broker"}}`), 0o600))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"MVF_USERNAME=u\nMVF_PASSWORD=p\nUTILITY_CODE=7\nWEBDRIVER_REMOTE_URL=ws://chrome:9222\n"), 0o600))

	for _, key := range []string{"MVF_USERNAME", "MVF_PASSWORD", "UTILITY_CODE", "WEBDRIVER_REMOTE_URL", "MQTT_HOST"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(cfgPath, envPath)
	require.NoError(t, err)
	require.Equal(t, "file-broker", cfg.MQTT.Host)
	require.Equal(t, "7", cfg.Portal.UtilityCode)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.env"))
	// Fails on the missing settings, not on the absent .env file.
	require.ErrorIs(t, err, ErrMissing)
}

func TestValidateRejectsUnboundedSession(t *testing.T) {
	cfg := Default()
	env := fullEnv()
	env["session-lifetime"] = "0"
	require.NoError(t, cfg.ApplyEnv(mapLookup(env)))

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "session-lifetime")
}

func TestApplyEnvIgnoresOSUsername(t *testing.T) {
	env := fullEnv()
	delete(env, "username")
	delete(env, "password")
	env["USERNAME"] = "Administrator"
	env["PASSWORD"] = "unrelated"

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(mapLookup(env)))
	require.Empty(t, cfg.Portal.Username)
	require.Empty(t, cfg.Portal.Password)

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrMissing)
	require.Contains(t, err.Error(), "username")
	require.Contains(t, err.Error(), "password")
}

func TestApplyEnvPrefixedCredentials(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(mapLookup(map[string]string{
		"MVF_USERNAME": "user@example.dk",
		"MVF_PASSWORD": "secret",
	})))
	require.Equal(t, "user@example.dk", cfg.Portal.Username)
	require.Equal(t, "secret", cfg.Portal.Password)
}
