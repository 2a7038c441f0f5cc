package publisher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrBrokerUnreachable is returned when the broker refuses the connection.
var ErrBrokerUnreachable = errors.New("cannot reach broker")

// Publisher sends one serialized reading to the bus.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Topic       string
	ClientID    string
	TLS         bool
	TLSInsecure bool
	// Timeout bounds connect and publish; zero means 10s.
	Timeout time.Duration
}

func (c Config) brokerURL() string {
	return fmt.Sprintf("%s://%s:%d", brokerScheme(c.TLS), c.Host, c.Port)
}

type mqttPublisher struct {
	cfg       Config
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

// NewMQTTPublisher returns a fire-and-forget publisher: every Publish opens
// a connection, sends at QoS 0 without retain, and disconnects.
func NewMQTTPublisher(cfg Config) Publisher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &mqttPublisher{cfg: cfg, newClient: mqtt.NewClient}
}

func (p *mqttPublisher) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(p.cfg.brokerURL()).
		SetClientID(p.cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(p.cfg.Timeout)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}
	if p.cfg.TLS {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: p.cfg.TLSInsecure})
	}
	return opts
}

func (p *mqttPublisher) Publish(ctx context.Context, payload []byte) error {
	client := p.newClient(p.options())

	if err := wait(ctx, client.Connect(), p.cfg.Timeout); err != nil {
		if isConnectionRefused(err) {
			return fmt.Errorf("%w at %s: %v", ErrBrokerUnreachable, p.cfg.brokerURL(), err)
		}
		return fmt.Errorf("connect %s: %w", p.cfg.brokerURL(), err)
	}
	defer client.Disconnect(250)

	if err := wait(ctx, client.Publish(p.cfg.Topic, 0, false, payload), p.cfg.Timeout); err != nil {
		return fmt.Errorf("publish to %s: %w", p.cfg.Topic, err)
	}
	return nil
}

func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	// paho sometimes keeps only the error text.
	return strings.Contains(err.Error(), "connection refused")
}

func brokerScheme(useTLS bool) string {
	if useTLS {
		return "ssl"
	}
	return "tcp"
}
