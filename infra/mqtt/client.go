// Package mqtt connects the simulation engine to an MQTT broker. Hosts
// publish tick requests and bay occupancy reports per experiment and
// receive the output batches on a sibling topic.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/assetsim/auth"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string          `json:"broker"`
	ClientID    string          `json:"client_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	TopicPrefix string          `json:"topic_prefix"`
	UseTLS      bool            `json:"use_tls"`
	ClientCert  string          `json:"client_cert"`
	ClientKey   string          `json:"client_key"`
	CABundle    string          `json:"ca_bundle"`
	AuthMethod  string          `json:"auth_method"`
	OAuth2      auth.Conf       `json:"oauth2"`
	QoS         map[string]byte `json:"qos"`
	LWTTopic    string          `json:"lwt_topic"`
	LWTPayload  string          `json:"lwt_payload"`
	LWTQoS      byte            `json:"lwt_qos"`
	LWTRetain   bool            `json:"lwt_retain"`
	MaxRetries  int             `json:"max_retries"`
	BackoffMS   int             `json:"backoff_ms"`
	QueueSize   int             `json:"queue_size"`
	TLSConfig   *tls.Config     `json:"-"`
}

// SetDefaults fills the optional fields.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "assetsim"
	}
	if c.ClientID == "" {
		c.ClientID = "assetsim-" + uuid.NewString()
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
}

// Validate checks the settings required to connect. An empty broker
// disables the transport and is valid.
func (c Config) Validate() error {
	if c.Broker == "" {
		return nil
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	case "oauth2":
		if err := c.OAuth2.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown auth_method %s", c.AuthMethod)
	}
	for k, q := range c.QoS {
		if q > 2 {
			return fmt.Errorf("qos %s: %d out of range", k, q)
		}
	}
	return nil
}

func (c Config) qos(name string) byte {
	if q, ok := c.QoS[name]; ok {
		return q
	}
	return 0
}

// pahoClient is the subset of paho.Client used by the bridge.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewClientOptions builds mqtt client options from Config. With the oauth2
// auth method the password is a client credentials access token fetched on
// every connection attempt.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.SetOrderMatters(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.AuthMethod == "oauth2" {
		cred := auth.NewClientCred(cfg.OAuth2)
		opts.SetCredentialsProvider(cred.CredentialsProvider(cfg.Username, nil))
	}
	if cfg.UseTLS || cfg.AuthMethod == "certificate" {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificate", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
