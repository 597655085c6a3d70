// Package bridge relays a browser WebSocket session to an arbitrary remote
// WebSocket server, dialing the remote through whatever proxy the
// environment dictates.
package bridge

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/jslink/jslink/internal/netutil"
)

const (
	eventBuffer      = 100
	handshakeTimeout = 30 * time.Second
)

// ClientMessage is a control message from the browser, tagged by type:
// connect, disconnect, or send.
type ClientMessage struct {
	Type         string            `json:"type"`
	URL          string            `json:"url"`
	Headers      map[string]string `json:"headers"`
	AuthType     string            `json:"auth_type"`
	AuthToken    string            `json:"auth_token"`
	AuthUsername string            `json:"auth_username"`
	AuthPassword string            `json:"auth_password"`
	Message      string            `json:"message"`
}

type connectedEvent struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type disconnectedEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type messageEvent struct {
	Type      string `json:"type"`
	Data      string `json:"data"`
	Direction string `json:"direction"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// infoEvent is part of the browser protocol but currently has no emitter.
type infoEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func connected(url string) any  { return connectedEvent{Type: "connected", URL: url} }
func disconnected(r string) any { return disconnectedEvent{Type: "disconnected", Reason: r} }
func received(data string) any {
	return messageEvent{Type: "message", Data: data, Direction: "received"}
}
func sent(data string) any    { return messageEvent{Type: "message", Data: data, Direction: "sent"} }
func errEvent(msg string) any { return errorEvent{Type: "error", Message: msg} }

// remoteConn is one outbound WebSocket connection. A session replaces it
// wholesale on reconnect; pump goroutines of a stale remoteConn must not
// touch the session's new state.
type remoteConn struct {
	url    string
	conn   *websocket.Conn
	send   chan string
	closed chan struct{}
	once   sync.Once
}

func (r *remoteConn) close() {
	r.once.Do(func() {
		close(r.closed)
		r.conn.Close()
	})
}

func (r *remoteConn) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

type session struct {
	id     string
	mu     sync.Mutex
	remote *remoteConn
	events chan any
	done   chan struct{}
}

// emit queues an event for the browser unless the session is over.
func (s *session) emit(ev any) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// detach clears the session's remote if it still is r. Returns false when a
// newer remote already took its place.
func (s *session) detach(r *remoteConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote != r {
		return false
	}
	s.remote = nil
	return true
}

// Bridge upgrades inbound connections and runs one relay session per
// socket.
type Bridge struct {
	upgrader websocket.Upgrader
	sessions *xsync.Map[string, *session]
}

// New returns a ready Bridge.
func New() *Bridge {
	return &Bridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The UI is served same-origin; local tools connect directly.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: xsync.NewMap[string, *session](),
	}
}

// SessionCount reports the number of live inbound sessions.
func (b *Bridge) SessionCount() int {
	return b.sessions.Size()
}

// ServeHTTP upgrades the request and relays until the browser disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[bridge] upgrade failed: %v", err)
		return
	}

	s := &session{
		id:     uuid.NewString(),
		events: make(chan any, eventBuffer),
		done:   make(chan struct{}),
	}
	b.sessions.Store(s.id, s)
	log.Printf("[bridge] session %s opened", s.id)

	defer func() {
		close(s.done)
		s.mu.Lock()
		remote := s.remote
		s.remote = nil
		s.mu.Unlock()
		if remote != nil {
			remote.close()
		}
		conn.Close()
		b.sessions.Delete(s.id)
		log.Printf("[bridge] session %s closed", s.id)
	}()

	// Writer: single goroutine owns the inbound socket's write side.
	go func() {
		for {
			select {
			case ev := <-s.events:
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-s.done:
				return
			}
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.emit(errEvent("Invalid message format: " + err.Error()))
			continue
		}

		switch msg.Type {
		case "connect":
			b.handleConnect(r.Context(), s, msg)
		case "disconnect":
			b.handleDisconnect(s)
		case "send":
			b.handleSend(s, msg.Message)
		default:
			s.emit(errEvent("Invalid message format: unknown type " + msg.Type))
		}
	}
}

func (b *Bridge) handleConnect(ctx context.Context, s *session, msg ClientMessage) {
	log.Printf("[bridge] session %s connecting to %s", s.id, msg.URL)

	// A connect while connected replaces the remote session.
	s.mu.Lock()
	old := s.remote
	s.remote = nil
	s.mu.Unlock()
	if old != nil {
		old.close()
	}

	target, err := url.Parse(msg.URL)
	if err != nil || (target.Scheme != "ws" && target.Scheme != "wss") {
		s.emit(errEvent("Invalid WebSocket URL: " + msg.URL))
		return
	}

	header := http.Header{}
	switch msg.AuthType {
	case "bearer":
		if msg.AuthToken != "" {
			header.Set("Authorization", "Bearer "+msg.AuthToken)
		}
	case "basic":
		if msg.AuthUsername != "" || msg.AuthPassword != "" {
			header.Set("Authorization", "Basic "+basicCredentials(msg.AuthUsername, msg.AuthPassword))
		}
	}
	// User headers go last and may override the auth header.
	for key, value := range msg.Headers {
		header.Set(key, value)
	}

	dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handshakeTimeout)
	defer cancel()

	conn, _, err := b.dialer(msg.URL).DialContext(dialCtx, msg.URL, header)
	if err != nil {
		log.Printf("[bridge] session %s connect to %s failed: %v", s.id, msg.URL, err)
		s.emit(errEvent("Connection failed: " + err.Error()))
		return
	}

	remote := &remoteConn{
		url:    msg.URL,
		conn:   conn,
		send:   make(chan string, eventBuffer),
		closed: make(chan struct{}),
	}
	s.mu.Lock()
	s.remote = remote
	s.mu.Unlock()

	s.emit(connected(msg.URL))
	go remoteWritePump(remote)
	go remoteReadPump(s, remote)
}

// dialer builds a gorilla dialer whose TCP layer goes through the detected
// proxy for this target.
func (b *Bridge) dialer(targetURL string) *websocket.Dialer {
	netDial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return netutil.DialContext(ctx, targetURL, netutil.DetectProxy(targetURL))
	}
	return &websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		NetDialContext:   netDial,
		NetDialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			raw, err := netDial(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			tlsConn := tls.Client(raw, &tls.Config{ServerName: netutil.ExtractHost(targetURL)})
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				raw.Close()
				return nil, err
			}
			return tlsConn, nil
		},
	}
}

func (b *Bridge) handleDisconnect(s *session) {
	s.mu.Lock()
	remote := s.remote
	s.remote = nil
	s.mu.Unlock()
	if remote != nil {
		remote.close()
	}
	s.emit(disconnected("User disconnected"))
}

func (b *Bridge) handleSend(s *session, message string) {
	s.mu.Lock()
	remote := s.remote
	s.mu.Unlock()

	if remote == nil {
		s.emit(errEvent("Not connected to a WebSocket server"))
		return
	}

	select {
	case remote.send <- message:
		s.emit(sent(message))
	case <-remote.closed:
		s.emit(errEvent("Failed to send message"))
	}
}

func remoteWritePump(r *remoteConn) {
	for {
		select {
		case msg := <-r.send:
			if err := r.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-r.closed:
			return
		}
	}
}

// remoteReadPump translates remote frames into browser events. Ping and
// pong frames never surface here, the transport answers them itself.
func remoteReadPump(s *session, r *remoteConn) {
	defer r.close()
	for {
		msgType, data, err := r.conn.ReadMessage()
		if err != nil {
			if r.isClosed() || !s.detach(r) {
				// Torn down locally, the browser already got its event.
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.emit(disconnected("Remote closed connection"))
			} else {
				s.emit(errEvent("Connection error: " + err.Error()))
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			s.emit(received(string(data)))
		case websocket.BinaryMessage:
			s.emit(received(binaryPlaceholder(len(data))))
		}
	}
}

func binaryPlaceholder(n int) string {
	return fmt.Sprintf("[Binary: %d bytes]", n)
}

func basicCredentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
