package config

import (
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/domain/model"
)

const (
	DefaultMQTTPort       = 1883
	DefaultMQTTTopic      = "minvandforsyningdk/total"
	DefaultInterval       = time.Hour
	DefaultElementTimeout = 10 * time.Second
	DefaultSessionLife    = 2 * time.Minute
	DefaultBrowserDriver  = "chromedp"
	DefaultLogLevel       = "info"
)

type Config struct {
	MQTT struct {
		Host        string `json:"host"`
		Port        int    `json:"port"`
		Topic       string `json:"topic"`
		Username    string `json:"username"`
		Password    string `json:"password"`
		TLS         bool   `json:"tls"`
		TLSInsecure bool   `json:"tls_insecure"`
	} `json:"mqtt"`

	Portal struct {
		model.Credentials
		// URL overrides the login entry point; empty means minvandforsyning.dk.
		URL string `json:"url"`
	} `json:"portal"`

	Browser struct {
		RemoteURL       string   `json:"remote_url"`
		Driver          string   `json:"driver"`
		Incognito       bool     `json:"incognito"`
		UserAgent       string   `json:"user_agent"`
		ElementTimeout  Duration `json:"element_timeout"`
		SessionLifeTime Duration `json:"session_life_time"`
	} `json:"browser"`

	Interval    Duration `json:"interval"`
	MetricsAddr string   `json:"metrics_addr"`
	LogLevel    string   `json:"log_level"`
}

// Default returns a Config with every optional field filled in.
func Default() *Config {
	var cfg Config
	cfg.MQTT.Port = DefaultMQTTPort
	cfg.MQTT.Topic = DefaultMQTTTopic
	cfg.Browser.Driver = DefaultBrowserDriver
	cfg.Browser.Incognito = true
	cfg.Browser.ElementTimeout = Duration(DefaultElementTimeout)
	cfg.Browser.SessionLifeTime = Duration(DefaultSessionLife)
	cfg.Interval = Duration(DefaultInterval)
	cfg.LogLevel = DefaultLogLevel
	return &cfg
}
