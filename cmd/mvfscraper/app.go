package main

import (
	"github.com/LouYuanbo1/mvfscraper/internal/config"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/metrics"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/publisher"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper/param"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	service  scraper.ScraperService
}

// clientID is generated once per process and reused by every attempt.
var clientID = "mvfscraper-" + uuid.NewString()

func buildApp(cfg *config.Config) (*app, error) {
	// A single navigation or click may outlast one element wait.
	opener, err := chrome.InitOpener(cfg.Browser.Driver, chrome.Options{
		Endpoint:      cfg.Browser.RemoteURL,
		Incognito:     cfg.Browser.Incognito,
		UserAgent:     cfg.Browser.UserAgent,
		LifeTime:      cfg.Browser.SessionLifeTime.Std(),
		ActionTimeout: 3 * cfg.Browser.ElementTimeout.Std(),
	})
	if err != nil {
		return nil, err
	}

	pub := publisher.NewMQTTPublisher(publisher.Config{
		Host:        cfg.MQTT.Host,
		Port:        cfg.MQTT.Port,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		Topic:       cfg.MQTT.Topic,
		ClientID:    clientID,
		TLS:         cfg.MQTT.TLS,
		TLSInsecure: cfg.MQTT.TLSInsecure,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := scraper.InitScraperService(opener, pub, metrics.NewRecorder(registry), param.Scrape{
		LoginURL:       cfg.Portal.URL,
		Credentials:    cfg.Portal.Credentials,
		ElementTimeout: cfg.Browser.ElementTimeout.Std(),
	})

	return &app{cfg: cfg, registry: registry, service: svc}, nil
}
