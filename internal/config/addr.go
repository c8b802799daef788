package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	schemeTCP = "tcp://"
	schemeSSL = "ssl://"
)

// ResolveRecvAddr implements the ist.recv_addr fallback chain from the
// external interfaces: if no recv_addr is configured, fall back to
// base_host; if no port is present, fall back to base_port+1; the scheme
// defaults to tcp:// unless TLS is configured, in which case it defaults
// to ssl://.
func (c *Config) ResolveRecvAddr() (string, error) {
	return resolveAddr(c.RecvAddr, c.BaseHost, c.BasePort+1, c.TLS.Enabled)
}

// ResolveRecvBind resolves the local bind address the same way, defaulting
// to the resolved recv_addr when recv_bind is unset.
func (c *Config) ResolveRecvBind() (string, error) {
	if c.RecvBind == "" {
		return c.ResolveRecvAddr()
	}
	return resolveAddr(c.RecvBind, c.BaseHost, c.BasePort+1, c.TLS.Enabled)
}

func resolveAddr(addr, baseHost string, fallbackPort int, useTLS bool) (string, error) {
	if addr == "" {
		if baseHost == "" {
			return "", fmt.Errorf("config: no recv address and no base_host to fall back to")
		}
		addr = baseHost
	}

	scheme, rest := splitScheme(addr)
	if scheme == "" {
		if useTLS {
			scheme = schemeSSL
		} else {
			scheme = schemeTCP
		}
	}

	host, port := splitHostPort(rest)
	if port == "" {
		port = strconv.Itoa(fallbackPort)
	}

	return scheme + host + ":" + port, nil
}

func splitScheme(addr string) (scheme, rest string) {
	if i := strings.Index(addr, "://"); i >= 0 {
		return addr[:i+3], addr[i+3:]
	}
	return "", addr
}

func splitHostPort(hostport string) (host, port string) {
	i := strings.LastIndex(hostport, ":")
	if i < 0 {
		return hostport, ""
	}
	return hostport[:i], hostport[i+1:]
}
