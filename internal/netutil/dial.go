package netutil

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	xproxy "golang.org/x/net/proxy"
)

const dialTimeout = 30 * time.Second

// DialContext opens a TCP connection to the ws:// or wss:// target URL,
// tunneling through the given proxy when one is set. A nil proxy means a
// direct connection.
func DialContext(ctx context.Context, targetURL string, proxy *ProxyConfig) (net.Conn, error) {
	host, port, err := ExtractHostPort(targetURL)
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	if proxy == nil {
		d := net.Dialer{Timeout: dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("direct connection to %s failed: %w", addr, err)
		}
		log.Printf("[netutil] direct connection established to %s", addr)
		return conn, nil
	}

	switch proxy.Kind {
	case ProxyHTTP, ProxyHTTPS:
		return dialHTTPConnect(ctx, proxy, host, port)
	case ProxySOCKS4:
		return dialSOCKS4(ctx, proxy, host, port)
	case ProxySOCKS5:
		return dialSOCKS5(ctx, proxy, addr)
	default:
		return nil, fmt.Errorf("unsupported proxy kind %q", proxy.Kind)
	}
}

// bufferedConn replays bytes the CONNECT response reader buffered past the
// header block.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func dialHTTPConnect(ctx context.Context, proxy *ProxyConfig, targetHost string, targetPort uint16) (net.Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", proxy.Addr())
	if err != nil {
		return nil, fmt.Errorf("connect to http proxy %s: %w", proxy.Addr(), err)
	}

	target := fmt.Sprintf("%s:%d", targetHost, targetPort)
	var req strings.Builder
	fmt.Fprintf(&req, "CONNECT %s HTTP/1.1\r\nHost: %s\r\n", target, target)
	if proxy.Username != "" && proxy.Password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(proxy.Username + ":" + proxy.Password))
		fmt.Fprintf(&req, "Proxy-Authorization: Basic %s\r\n", creds)
	}
	req.WriteString("Proxy-Connection: Keep-Alive\r\n\r\n")

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(dialTimeout))
	}

	if _, err := conn.Write([]byte(req.String())); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write CONNECT request: %w", err)
	}

	r := bufio.NewReader(conn)
	statusLine, err := r.ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read CONNECT response: %w", err)
	}
	if !strings.Contains(statusLine, " 200 ") {
		conn.Close()
		return nil, fmt.Errorf("proxy CONNECT failed: %s", strings.TrimSpace(statusLine))
	}

	// Consume remaining response headers.
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("read CONNECT response headers: %w", err)
		}
		if line == "\r\n" || line == "\n" {
			break
		}
	}

	conn.SetDeadline(time.Time{})
	log.Printf("[netutil] http CONNECT tunnel established to %s", target)
	return &bufferedConn{Conn: conn, r: r}, nil
}

// dialSOCKS4 performs a SOCKS4 handshake, falling back to the SOCKS4a
// hostname form when the target is not an IPv4 literal.
func dialSOCKS4(ctx context.Context, proxy *ProxyConfig, targetHost string, targetPort uint16) (net.Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", proxy.Addr())
	if err != nil {
		return nil, fmt.Errorf("connect to socks4 proxy %s: %w", proxy.Addr(), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(dialTimeout))
	}

	req := []byte{0x04, 0x01, 0, 0}
	binary.BigEndian.PutUint16(req[2:4], targetPort)

	ip4 := net.ParseIP(targetHost).To4()
	if ip4 != nil {
		req = append(req, ip4...)
	} else {
		// SOCKS4a: invalid destination IP signals the proxy to resolve
		// the hostname appended after the user id.
		req = append(req, 0, 0, 0, 1)
	}
	req = append(req, []byte(proxy.Username)...)
	req = append(req, 0)
	if ip4 == nil {
		req = append(req, []byte(targetHost)...)
		req = append(req, 0)
	}

	if _, err := conn.Write(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write socks4 request: %w", err)
	}

	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read socks4 reply: %w", err)
	}
	if reply[1] != 0x5A {
		conn.Close()
		return nil, fmt.Errorf("socks4 connection failed: code 0x%02X", reply[1])
	}

	conn.SetDeadline(time.Time{})
	log.Printf("[netutil] socks4 tunnel established to %s:%d", targetHost, targetPort)
	return conn, nil
}

func dialSOCKS5(ctx context.Context, proxy *ProxyConfig, targetAddr string) (net.Conn, error) {
	var auth *xproxy.Auth
	if proxy.Username != "" && proxy.Password != "" {
		auth = &xproxy.Auth{User: proxy.Username, Password: proxy.Password}
	}

	d, err := xproxy.SOCKS5("tcp", proxy.Addr(), auth, &net.Dialer{Timeout: dialTimeout})
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer for %s: %w", proxy.Addr(), err)
	}

	cd, ok := d.(xproxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer for %s does not support context", proxy.Addr())
	}
	conn, err := cd.DialContext(ctx, "tcp", targetAddr)
	if err != nil {
		return nil, fmt.Errorf("socks5 connection failed: %w", err)
	}

	log.Printf("[netutil] socks5 tunnel established to %s", targetAddr)
	return conn, nil
}
