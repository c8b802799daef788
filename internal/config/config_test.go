package config_test

import (
	"testing"
	"time"

	"github.com/dutow/galera/internal/config"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()
	// --- given ---
	data := []byte(`
role: joiner
recv_addr: "host1:4568"
`)

	// --- when ---
	cfg, err := config.Parse(data)

	// --- then ---
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !cfg.KeepKeys {
		t.Error("keep_keys should default to true")
	}
	if cfg.RecvBind != cfg.RecvAddr {
		t.Errorf("recv_bind should default to recv_addr, got %q vs %q", cfg.RecvBind, cfg.RecvAddr)
	}
	if cfg.Retry.Interval != time.Second {
		t.Errorf("default retry interval = %v, want 1s", cfg.Retry.Interval)
	}
	if cfg.Retry.BackoffCoeff != 2 {
		t.Errorf("default retry backoff coeff = %d, want 2", cfg.Retry.BackoffCoeff)
	}
}

func TestParse_KeepKeysExplicitFalse(t *testing.T) {
	t.Parallel()
	// --- given ---
	data := []byte(`
role: donor
keep_keys: false
`)

	// --- when ---
	cfg, err := config.Parse(data)

	// --- then ---
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.KeepKeys {
		t.Error("explicit keep_keys: false should be honored")
	}
}

func TestResolveRecvAddr_FallsBackToBaseHostAndPort(t *testing.T) {
	t.Parallel()
	// --- given: no recv_addr at all ---
	data := []byte(`
role: joiner
base_host: "10.0.0.5"
base_port: 4567
`)
	cfg, err := config.Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// --- when ---
	addr, err := cfg.ResolveRecvAddr()

	// --- then ---
	if err != nil {
		t.Fatalf("ResolveRecvAddr returned error: %v", err)
	}
	want := "tcp://10.0.0.5:4568"
	if addr != want {
		t.Errorf("ResolveRecvAddr() = %q, want %q", addr, want)
	}
}

func TestResolveRecvAddr_SSLSchemeWhenTLSEnabled(t *testing.T) {
	t.Parallel()
	// --- given ---
	data := []byte(`
role: joiner
recv_addr: "host1:4568"
tls:
  enabled: true
`)
	cfg, err := config.Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// --- when ---
	addr, err := cfg.ResolveRecvAddr()

	// --- then ---
	if err != nil {
		t.Fatalf("ResolveRecvAddr returned error: %v", err)
	}
	want := "ssl://host1:4568"
	if addr != want {
		t.Errorf("ResolveRecvAddr() = %q, want %q", addr, want)
	}
}

func TestResolveRecvAddr_NoAddrAndNoBaseHost_Errors(t *testing.T) {
	t.Parallel()
	// --- given ---
	cfg, err := config.Parse([]byte(`role: joiner`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// --- when ---
	_, err = cfg.ResolveRecvAddr()

	// --- then ---
	if err == nil {
		t.Error("expected an error when neither recv_addr nor base_host is set")
	}
}
