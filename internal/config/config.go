// Package config parses the YAML configuration file for an IST daemon,
// following the same "public struct + unexported yaml-tagged aux struct"
// pattern the teacher repo uses for its own top-level config.
package config

import (
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/dutow/galera/internal/log"
)

// Role selects whether the daemon runs as an IST donor or joiner.
type Role string

const (
	RoleDonor  Role = "donor"
	RoleJoiner Role = "joiner"
)

// TLSConfig configures the optional TLS layer around the IST TCP socket.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// RetryConfig holds the parsed retry-with-backoff settings. No component
// in this module reads them.
type RetryConfig struct {
	Interval     time.Duration
	BackoffCoeff int
}

// Config is the parsed configuration for an istd process.
type Config struct {
	Role Role

	// RecvAddr is the public address the joiner advertises
	// ([scheme://]host[:port]); RecvBind is the local bind address.
	RecvAddr string
	RecvBind string
	KeepKeys bool

	BaseHost string
	BasePort int

	TLS   TLSConfig
	Retry RetryConfig

	MetricsAddr string
	LogLevel    string

	PeerAddr string // donor-only: joiner's recv_addr to push the IST stream to
	CacheDir string // donor-only: directory the write-set cache reads from
}

const (
	defaultKeepKeys         = true
	defaultRetryInterval    = time.Second
	defaultRetryBackoff     = 2
	defaultMetricsAddr      = ":9110"
)

// Parse decodes a YAML configuration document into a Config, applying the
// same defaulting rules described in the external interfaces: recv_bind
// defaults to recv_addr, and keep_keys defaults to true when absent.
func Parse(data []byte) (*Config, error) {
	var aux struct {
		Role     string `yaml:"role"`
		RecvAddr string `yaml:"recv_addr"`
		RecvBind string `yaml:"recv_bind"`
		KeepKeys *bool  `yaml:"keep_keys"`
		BaseHost string `yaml:"base_host"`
		BasePort int    `yaml:"base_port"`
		TLS      struct {
			Enabled  bool   `yaml:"enabled"`
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
			CAFile   string `yaml:"ca_file"`
		} `yaml:"tls"`
		Retry struct {
			IntervalMS   int `yaml:"interval_ms"`
			BackoffCoeff int `yaml:"backoff_coeff"`
		} `yaml:"retry"`
		MetricsAddr string `yaml:"metrics_addr"`
		LogLevel    string `yaml:"log_level"`
		PeerAddr    string `yaml:"peer_addr"`
		CacheDir    string `yaml:"cache_dir"`
	}

	if err := yaml.Unmarshal(data, &aux); err != nil {
		return nil, errors.Wrap(err, "failed to parse IST configuration")
	}

	if aux.RecvAddr == "" && aux.Role == string(RoleJoiner) {
		log.Warn("ist.recv_addr not set; falling back to base_host/base_port+1")
	}

	cfg := &Config{
		Role:     Role(aux.Role),
		RecvAddr: aux.RecvAddr,
		RecvBind: aux.RecvBind,
		KeepKeys: defaultKeepKeys,
		BaseHost: aux.BaseHost,
		BasePort: aux.BasePort,
		TLS: TLSConfig{
			Enabled:  aux.TLS.Enabled,
			CertFile: aux.TLS.CertFile,
			KeyFile:  aux.TLS.KeyFile,
			CAFile:   aux.TLS.CAFile,
		},
		Retry: RetryConfig{
			Interval:     defaultRetryInterval,
			BackoffCoeff: defaultRetryBackoff,
		},
		MetricsAddr: defaultMetricsAddr,
		LogLevel:    aux.LogLevel,
		PeerAddr:    aux.PeerAddr,
		CacheDir:    aux.CacheDir,
	}

	if aux.KeepKeys != nil {
		cfg.KeepKeys = *aux.KeepKeys
	}
	if aux.Retry.IntervalMS > 0 {
		cfg.Retry.Interval = time.Duration(aux.Retry.IntervalMS) * time.Millisecond
	}
	if aux.Retry.BackoffCoeff > 0 {
		cfg.Retry.BackoffCoeff = aux.Retry.BackoffCoeff
	}
	if aux.MetricsAddr != "" {
		cfg.MetricsAddr = aux.MetricsAddr
	}

	if cfg.RecvBind == "" {
		cfg.RecvBind = cfg.RecvAddr
	}

	return cfg, nil
}
