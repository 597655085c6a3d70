package netutil

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestDialContextDirect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
		close(accepted)
	}()

	conn, err := DialContext(context.Background(), "ws://"+ln.Addr().String()+"/socket", nil)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	conn.Close()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never accepted")
	}
}

func TestDialContextInvalidURL(t *testing.T) {
	if _, err := DialContext(context.Background(), "http://example.com", nil); err == nil {
		t.Fatal("expected error for non-websocket url")
	}
}

// fakeConnectProxy accepts one connection, validates the CONNECT request
// against wantTarget, and replies with the given status line.
func fakeConnectProxy(t *testing.T, wantTarget, statusLine string, wantAuth string) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		requestLine, err := r.ReadString('\n')
		if err != nil {
			t.Errorf("read request line: %v", err)
			return
		}
		if !strings.HasPrefix(requestLine, "CONNECT "+wantTarget+" HTTP/1.1") {
			t.Errorf("request line: %q", requestLine)
		}

		var sawAuth bool
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				t.Errorf("read header: %v", err)
				return
			}
			if strings.HasPrefix(line, "Proxy-Authorization: ") {
				sawAuth = true
				if wantAuth != "" && !strings.Contains(line, wantAuth) {
					t.Errorf("auth header: %q", line)
				}
			}
			if line == "\r\n" {
				break
			}
		}
		if wantAuth != "" && !sawAuth {
			t.Error("missing Proxy-Authorization header")
		}

		conn.Write([]byte(statusLine + "\r\n\r\n"))
		// Prove the tunnel is transparent after the handshake.
		conn.Write([]byte("tunneled"))
	}()

	return ln
}

func TestDialHTTPConnect(t *testing.T) {
	ln := fakeConnectProxy(t, "example.com:80", "HTTP/1.1 200 Connection established", "")
	defer ln.Close()

	proxy := ParseProxyURL("http://" + ln.Addr().String())
	if proxy == nil {
		t.Fatal("parse proxy addr")
	}

	conn, err := DialContext(context.Background(), "ws://example.com/socket", proxy)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 8)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read tunneled data: %v", err)
	}
	if string(buf) != "tunneled" {
		t.Fatalf("tunneled data: %q", buf)
	}
}

func TestDialHTTPConnectWithAuth(t *testing.T) {
	// base64("user:pass")
	ln := fakeConnectProxy(t, "example.com:80", "HTTP/1.1 200 OK", "Basic dXNlcjpwYXNz")
	defer ln.Close()

	proxy := ParseProxyURL("http://user:pass@" + ln.Addr().String())
	conn, err := DialContext(context.Background(), "ws://example.com/socket", proxy)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	conn.Close()
}

func TestDialHTTPConnectRefused(t *testing.T) {
	ln := fakeConnectProxy(t, "example.com:80", "HTTP/1.1 403 Forbidden", "")
	defer ln.Close()

	proxy := ParseProxyURL("http://" + ln.Addr().String())
	_, err := DialContext(context.Background(), "ws://example.com/socket", proxy)
	if err == nil {
		t.Fatal("expected error for refused CONNECT")
	}
	if !strings.Contains(err.Error(), "proxy CONNECT failed") {
		t.Fatalf("error: %v", err)
	}
}

// fakeSOCKS4Proxy accepts one connection, checks the request bytes, and
// replies with the given result code.
func fakeSOCKS4Proxy(t *testing.T, wantHost string, wantPort uint16, code byte) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		head := make([]byte, 8)
		if _, err := io.ReadFull(conn, head); err != nil {
			t.Errorf("read socks4 head: %v", err)
			return
		}
		if head[0] != 0x04 || head[1] != 0x01 {
			t.Errorf("socks4 head: % X", head[:2])
		}
		port := uint16(head[2])<<8 | uint16(head[3])
		if port != wantPort {
			t.Errorf("port: got %d, want %d", port, wantPort)
		}

		r := bufio.NewReader(conn)
		userID, err := r.ReadString(0)
		if err != nil {
			t.Errorf("read user id: %v", err)
			return
		}
		_ = userID

		// 0.0.0.1 marks the SOCKS4a hostname form.
		if head[4] == 0 && head[5] == 0 && head[6] == 0 && head[7] == 1 {
			host, err := r.ReadString(0)
			if err != nil {
				t.Errorf("read socks4a host: %v", err)
				return
			}
			if strings.TrimSuffix(host, "\x00") != wantHost {
				t.Errorf("host: %q", host)
			}
		}

		conn.Write([]byte{0x00, code, 0, 0, 0, 0, 0, 0})
		conn.Write([]byte("granted"))
	}()

	return ln
}

func TestDialSOCKS4Hostname(t *testing.T) {
	ln := fakeSOCKS4Proxy(t, "example.com", 80, 0x5A)
	defer ln.Close()

	proxy := ParseProxyURL("socks4://" + ln.Addr().String())
	conn, err := DialContext(context.Background(), "ws://example.com/socket", proxy)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 7)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read tunneled data: %v", err)
	}
	if string(buf) != "granted" {
		t.Fatalf("tunneled data: %q", buf)
	}
}

func TestDialSOCKS4Rejected(t *testing.T) {
	ln := fakeSOCKS4Proxy(t, "example.com", 80, 0x5B)
	defer ln.Close()

	proxy := ParseProxyURL("socks4://" + ln.Addr().String())
	_, err := DialContext(context.Background(), "ws://example.com/socket", proxy)
	if err == nil {
		t.Fatal("expected error for rejected socks4 connect")
	}
	if !strings.Contains(err.Error(), "socks4 connection failed") {
		t.Fatalf("error: %v", err)
	}
}
