// Package config loads the cluster definitions of the console.
//
// The file is YAML. ${VAR} references in the file are expanded from the
// environment before it is parsed, so credentials can stay out of the file.
// Only the braced form is expanded; a bare $ is kept as written:
//
//	clusters:
//	  - name: local
//	    brokers: ["localhost:9092"]
//	  - name: prod
//	    brokers: ["kafka-1:9093", "kafka-2:9093"]
//	    tls:
//	      enabled: true
//	    sasl:
//	      mechanism: SCRAM-SHA-512
//	      username: console
//	      password: ${PROD_KAFKA_PASSWORD}
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultClientID       = "franz-manager"
	defaultRequestTimeout = 15 * time.Second
	defaultAdminRateLimit = 20
)

// SASL mechanisms understood by the cluster client.
const (
	MechanismPlain       = "PLAIN"
	MechanismScramSHA256 = "SCRAM-SHA-256"
	MechanismScramSHA512 = "SCRAM-SHA-512"
)

type Config struct {
	Clusters       []ClusterConfig `yaml:"clusters"`
	DefaultCluster string          `yaml:"defaultCluster"`
	// AdminRateLimit caps admin requests per second sent to a cluster.
	AdminRateLimit float64       `yaml:"adminRateLimit"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type ClusterConfig struct {
	Name     string     `yaml:"name"`
	Brokers  []string   `yaml:"brokers"`
	ClientID string     `yaml:"clientId"`
	TLS      TLSConfig  `yaml:"tls"`
	SASL     SASLConfig `yaml:"sasl"`
}

type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CAFile             string `yaml:"caFile"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

type SASLConfig struct {
	Mechanism string `yaml:"mechanism"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// LoadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Variables already set in the environment win. Missing files are not an
// error.
func LoadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the cluster file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML cluster file.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the value of VAR, or nothing when it is unset.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

// FromBrokers builds a single-cluster config, used when the console is started
// with -brokers instead of a cluster file.
func FromBrokers(name string, brokers []string) (*Config, error) {
	cfg := Config{Clusters: []ClusterConfig{{Name: name, Brokers: brokers}}}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.AdminRateLimit <= 0 {
		c.AdminRateLimit = defaultAdminRateLimit
	}
	for i := range c.Clusters {
		cl := &c.Clusters[i]
		if cl.ClientID == "" {
			cl.ClientID = defaultClientID
		}
		cl.SASL.Mechanism = strings.ToUpper(cl.SASL.Mechanism)
	}
	if c.DefaultCluster == "" && len(c.Clusters) > 0 {
		c.DefaultCluster = c.Clusters[0].Name
	}
}

// Validate checks that every cluster is usable.
func (c *Config) Validate() error {
	if len(c.Clusters) == 0 {
		return errors.New("config: no cluster defined")
	}

	var errs []error
	seen := make(map[string]struct{}, len(c.Clusters))
	for i, cl := range c.Clusters {
		if cl.Name == "" {
			errs = append(errs, fmt.Errorf("config: cluster #%d has no name", i))
			continue
		}
		if _, dup := seen[cl.Name]; dup {
			errs = append(errs, fmt.Errorf("config: duplicate cluster name %q", cl.Name))
		}
		seen[cl.Name] = struct{}{}

		if len(cl.Brokers) == 0 {
			errs = append(errs, fmt.Errorf("config: cluster %q has no brokers", cl.Name))
		}
		switch cl.SASL.Mechanism {
		case "", MechanismPlain, MechanismScramSHA256, MechanismScramSHA512:
		default:
			errs = append(errs, fmt.Errorf("config: cluster %q: unknown SASL mechanism %q", cl.Name, cl.SASL.Mechanism))
		}
	}
	if _, ok := seen[c.DefaultCluster]; !ok && c.DefaultCluster != "" {
		errs = append(errs, fmt.Errorf("config: default cluster %q is not defined", c.DefaultCluster))
	}
	return errors.Join(errs...)
}

// Cluster returns the cluster named name.
func (c *Config) Cluster(name string) (ClusterConfig, bool) {
	for _, cl := range c.Clusters {
		if cl.Name == name {
			return cl, true
		}
	}
	return ClusterConfig{}, false
}

// Names lists the configured clusters in file order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Clusters))
	for i, cl := range c.Clusters {
		names[i] = cl.Name
	}
	return names
}
