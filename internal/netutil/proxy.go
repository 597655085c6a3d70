// Package netutil implements outbound connectivity: proxy detection from
// environment variables, proxy URL parsing, and tunneled dialing through
// HTTP CONNECT, SOCKS4, and SOCKS5 proxies.
package netutil

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// ProxyKind identifies the proxy protocol.
type ProxyKind string

const (
	ProxyHTTP   ProxyKind = "http"
	ProxyHTTPS  ProxyKind = "https"
	ProxySOCKS4 ProxyKind = "socks4"
	ProxySOCKS5 ProxyKind = "socks5"
)

// ProxyConfig describes a single egress proxy.
type ProxyConfig struct {
	Kind     ProxyKind
	Host     string
	Port     uint16
	Username string
	Password string
	HasAuth  bool
}

// Addr returns the host:port of the proxy itself.
func (p *ProxyConfig) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// ParseProxyURL parses a proxy URL of the loose form
// [scheme://][user[:pass]@]host[:port][/...]. A missing scheme means HTTP.
// Returns nil when the string is empty or unparseable.
func ParseProxyURL(raw string) *ProxyConfig {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var kind ProxyKind
	rest := raw
	switch {
	case strings.HasPrefix(raw, "socks4://"), strings.HasPrefix(raw, "socks4a://"):
		kind = ProxySOCKS4
		rest = raw[strings.Index(raw, "://")+3:]
	case strings.HasPrefix(raw, "socks5://"), strings.HasPrefix(raw, "socks5h://"), strings.HasPrefix(raw, "socks://"):
		kind = ProxySOCKS5
		rest = raw[strings.Index(raw, "://")+3:]
	case strings.HasPrefix(raw, "https://"):
		kind = ProxyHTTPS
		rest = raw[len("https://"):]
	case strings.HasPrefix(raw, "http://"):
		kind = ProxyHTTP
		rest = raw[len("http://"):]
	default:
		kind = ProxyHTTP
	}

	cfg := &ProxyConfig{Kind: kind}

	hostPort := rest
	if at := strings.Index(rest, "@"); at >= 0 {
		auth := rest[:at]
		hostPort = rest[at+1:]
		cfg.HasAuth = true
		if colon := strings.Index(auth, ":"); colon >= 0 {
			cfg.Username = auth[:colon]
			cfg.Password = auth[colon+1:]
		} else {
			cfg.Username = auth
		}
	}

	// Drop any trailing path.
	if slash := strings.Index(hostPort, "/"); slash >= 0 {
		hostPort = hostPort[:slash]
	}

	if colon := strings.LastIndex(hostPort, ":"); colon >= 0 {
		port, err := strconv.ParseUint(hostPort[colon+1:], 10, 16)
		if err != nil {
			return nil
		}
		cfg.Host = hostPort[:colon]
		cfg.Port = uint16(port)
	} else {
		cfg.Host = hostPort
		switch kind {
		case ProxyHTTP:
			cfg.Port = 80
		case ProxyHTTPS:
			cfg.Port = 443
		default:
			cfg.Port = 1080
		}
	}

	if cfg.Host == "" {
		return nil
	}
	return cfg
}

// DetectProxy picks the proxy to use for a ws:// or wss:// target based on
// environment variables. NO_PROXY wins over everything; then ALL_PROXY,
// HTTPS_PROXY (wss targets only), HTTP_PROXY, and finally SOCKS_PROXY.
// Uppercase names take precedence over lowercase. Returns nil for a direct
// connection.
func DetectProxy(targetURL string) *ProxyConfig {
	if shouldBypassProxy(targetURL) {
		log.Printf("[netutil] target matches NO_PROXY, using direct connection")
		return nil
	}

	isWSS := strings.HasPrefix(targetURL, "wss://")

	if p := proxyFromEnv("ALL_PROXY", "all_proxy"); p != nil {
		log.Printf("[netutil] using ALL_PROXY: %s", p.Addr())
		return p
	}
	if isWSS {
		if p := proxyFromEnv("HTTPS_PROXY", "https_proxy"); p != nil {
			log.Printf("[netutil] using HTTPS_PROXY for wss target: %s", p.Addr())
			return p
		}
	}
	if p := proxyFromEnv("HTTP_PROXY", "http_proxy"); p != nil {
		log.Printf("[netutil] using HTTP_PROXY: %s", p.Addr())
		return p
	}
	if p := proxyFromEnv("SOCKS_PROXY", "socks_proxy"); p != nil {
		log.Printf("[netutil] using SOCKS_PROXY: %s", p.Addr())
		return p
	}

	return nil
}

func proxyFromEnv(upper, lower string) *ProxyConfig {
	v := os.Getenv(upper)
	if v == "" {
		v = os.Getenv(lower)
	}
	if v == "" {
		return nil
	}
	return ParseProxyURL(v)
}

// shouldBypassProxy reports whether the target host matches a NO_PROXY
// entry. Entries are comma-separated; "*" bypasses everything, a leading
// dot matches the domain and its subdomains, and a bare name matches
// exactly or as a dot-separated suffix.
func shouldBypassProxy(targetURL string) bool {
	noProxy := os.Getenv("NO_PROXY")
	if noProxy == "" {
		noProxy = os.Getenv("no_proxy")
	}
	if noProxy == "" {
		return false
	}

	host := ExtractHost(targetURL)
	if host == "" {
		return false
	}

	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == "*" {
			return true
		}
		if strings.HasPrefix(entry, ".") {
			if strings.HasSuffix(host, entry) || host == entry[1:] {
				return true
			}
		} else if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// ExtractHost returns the bare host of a ws:// or wss:// URL, without port,
// path, or query.
func ExtractHost(rawURL string) string {
	u := strings.TrimPrefix(strings.TrimPrefix(rawURL, "wss://"), "ws://")
	hostPort := u
	if slash := strings.Index(u, "/"); slash >= 0 {
		hostPort = u[:slash]
	}

	idx := strings.LastIndex(hostPort, ":")
	if idx < 0 {
		return hostPort
	}
	if strings.Contains(hostPort, "[") {
		if end := strings.LastIndex(hostPort, "]"); end >= 0 && idx > end {
			return hostPort[:idx]
		}
		return hostPort
	}
	return hostPort[:idx]
}

// ExtractHostPort splits a ws:// or wss:// URL into host and port, applying
// the scheme default (80 or 443) when no port is given. IPv6 literals keep
// their brackets stripped in the returned host.
func ExtractHostPort(rawURL string) (string, uint16, error) {
	isWSS := strings.HasPrefix(rawURL, "wss://")
	var defaultPort uint16 = 80
	if isWSS {
		defaultPort = 443
	}

	var u string
	switch {
	case isWSS:
		u = rawURL[len("wss://"):]
	case strings.HasPrefix(rawURL, "ws://"):
		u = rawURL[len("ws://"):]
	default:
		return "", 0, fmt.Errorf("invalid websocket url %q", rawURL)
	}

	hostPort := u
	if slash := strings.Index(u, "/"); slash >= 0 {
		hostPort = u[:slash]
	}

	if strings.HasPrefix(hostPort, "[") {
		end := strings.Index(hostPort, "]")
		if end >= 0 {
			host := hostPort[1:end]
			if len(hostPort) > end+2 && hostPort[end+1] == ':' {
				port, err := strconv.ParseUint(hostPort[end+2:], 10, 16)
				if err != nil {
					return "", 0, fmt.Errorf("invalid port in %q", rawURL)
				}
				return host, uint16(port), nil
			}
			return host, defaultPort, nil
		}
	}

	if idx := strings.LastIndex(hostPort, ":"); idx >= 0 {
		port, err := strconv.ParseUint(hostPort[idx+1:], 10, 16)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port in %q", rawURL)
		}
		return hostPort[:idx], uint16(port), nil
	}
	return hostPort, defaultPort, nil
}
