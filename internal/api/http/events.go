package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/types"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local clients only
	},
}

// EventMessage is one frame of the bundle status stream
type EventMessage struct {
	Type      string            `json:"type"`
	Listener  string            `json:"listener,omitempty"`
	Data      *types.NotifyData `json:"data,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// wsListener forwards status callbacks of one bundle to a socket
type wsListener struct {
	id         id.ListenerID
	bundleName string
	events     chan types.NotifyData
	pongs      chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	dropped    int
	mu         sync.Mutex
}

func newWSListener(bundleName string) *wsListener {
	return &wsListener{
		id:         id.NewListenerID(),
		bundleName: bundleName,
		events:     make(chan types.NotifyData, eventBuffer),
		pongs:      make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (l *wsListener) BundleName() string { return l.bundleName }

// OnBundleStatus queues data without blocking the hub
func (l *wsListener) OnBundleStatus(ctx context.Context, data types.NotifyData) {
	select {
	case <-l.done:
	case l.events <- data:
	default:
		l.mu.Lock()
		l.dropped++
		l.mu.Unlock()
	}
}

func (l *wsListener) Done() <-chan struct{} { return l.done }

func (l *wsListener) droppedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

func (l *wsListener) close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// StreamEvents upgrades to a websocket streaming status reports for
// ?bundle=. The callback is unregistered when the socket closes.
func (h *Handlers) StreamEvents(c *gin.Context) {
	bundleName := c.Query("bundle")
	if bundleName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bundle parameter required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	listener := newWSListener(bundleName)
	defer listener.close()
	if !h.hub.RegisterBundleStatusCallback(listener) {
		return
	}

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	log := h.log.With(zap.String("listener", listener.id.String()), zap.String("bundle", bundleName))
	log.Info("Event stream opened")
	defer func() {
		log.Info("Event stream closed", zap.Int("dropped", listener.droppedCount()))
	}()

	go h.readLoop(conn, listener)

	if err := h.send(conn, EventMessage{Type: "subscribed", Listener: listener.id.String()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-listener.done:
			return
		case data := <-listener.events:
			if err := h.send(conn, EventMessage{Type: "bundle_status", Data: &data}); err != nil {
				log.Debug("Event write failed", zap.Error(err))
				return
			}
		case <-listener.pongs:
			if err := h.send(conn, EventMessage{Type: "pong"}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames and answers pings until the socket fails
func (h *Handlers) readLoop(conn *websocket.Conn, listener *wsListener) {
	defer listener.close()
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}
		if msg.Type == "ping" {
			select {
			case listener.pongs <- struct{}{}:
			default:
			}
		}
	}
}

func (h *Handlers) send(conn *websocket.Conn, msg EventMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", msg.Type)
	}
	return nil
}
