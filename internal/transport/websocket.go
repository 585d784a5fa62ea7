// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	applog "spectrogram/internal/log"

	"github.com/gorilla/websocket"
)

// WebSocketPath is where dashboards connect.
const WebSocketPath = "/ws"

// queueDepth bounds the messages waiting for broadcast.
const queueDepth = 256

// writeWait bounds a single write so one stalled client cannot hold up the
// others.
var writeWait = 10 * time.Second

// peers is the set of connected dashboards.
type peers struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func (p *peers) add(c *websocket.Conn) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[c] = struct{}{}
	return len(p.conns)
}

func (p *peers) drop(c *websocket.Conn) {
	p.mu.Lock()
	delete(p.conns, c)
	p.mu.Unlock()
	c.Close()
}

func (p *peers) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// writeAll sends v to every peer and forgets those that fail.
func (p *peers) writeAll(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteJSON(v); err != nil {
			applog.Debugf("WebSocketTransport: dropping %s: %v", c.RemoteAddr(), err)
			c.Close()
			delete(p.conns, c)
		}
	}
}

func (p *peers) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.conns {
		c.Close()
		delete(p.conns, c)
	}
}

// WebSocketTransport fans JSON messages out to every connected client.
// Send never blocks: when the queue is full the message is discarded.
type WebSocketTransport struct {
	upgrader websocket.Upgrader
	peers    peers
	queue    chan any
	server   *http.Server
	listener net.Listener

	done      chan struct{}
	pump      sync.WaitGroup
	closeOnce sync.Once
}

// NewWebSocketTransport starts serving on addr. Use port 0 to let the
// system choose and read it back with Addr.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	t := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers:    peers{conns: make(map[*websocket.Conn]struct{})},
		queue:    make(chan any, queueDepth),
		listener: ln,
		done:     make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, t.accept)
	t.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		applog.Infof("WebSocketTransport: serving ws://%s%s", ln.Addr(), WebSocketPath)
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: server stopped: %v", err)
		}
	}()

	t.pump.Add(1)
	go t.run()

	return t, nil
}

// Addr returns the listening address.
func (t *WebSocketTransport) Addr() net.Addr { return t.listener.Addr() }

// Clients returns the number of connected clients.
func (t *WebSocketTransport) Clients() int { return t.peers.count() }

func (t *WebSocketTransport) accept(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	applog.Debugf("WebSocketTransport: %s connected (%d clients)", conn.RemoteAddr(), t.peers.add(conn))

	// The stream is one way. Reading only detects the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.peers.drop(conn)
				return
			}
		}
	}()
}

func (t *WebSocketTransport) run() {
	defer t.pump.Done()
	for {
		select {
		case msg := <-t.queue:
			t.peers.writeAll(msg)
		case <-t.done:
			return
		}
	}
}

// Send queues data for broadcast.
func (t *WebSocketTransport) Send(data any) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	select {
	case t.queue <- data:
	default:
		applog.Debugf("WebSocketTransport: queue full, message dropped")
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		t.pump.Wait()
		t.peers.closeAll()
		err = t.server.Close()
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
