package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans outcomes out to subscribed WebSocket connections. A connection
// that cannot keep up is dropped rather than allowed to block publishers.
type Hub struct {
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader

	lk    sync.Mutex
	conns map[*hubConn]struct{}
}

type hubConn struct {
	channelID uuid.UUID
	out       chan []byte
}

const connQueueSize = 16

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		conns:    make(map[*hubConn]struct{}),
	}
}

var _ Sink = (*Hub)(nil)

func (h *Hub) Publish(o Outcome) {
	if o.At.IsZero() {
		o.At = time.Now().UTC()
	}

	data, err := json.Marshal(o)
	if err != nil {
		h.log.Errorf("marshal outcome: %s", err)
		return
	}

	h.lk.Lock()
	defer h.lk.Unlock()
	for conn := range h.conns {
		select {
		case conn.out <- data:
		default:
			// slow consumer, cut it loose
			close(conn.out)
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("upgrade websocket: %s", err)
		return
	}

	conn := &hubConn{channelID: uuid.New(), out: make(chan []byte, connQueueSize)}
	h.lk.Lock()
	h.conns[conn] = struct{}{}
	h.lk.Unlock()
	h.log.Infof("notify subscriber %s connected from %s", conn.channelID, wsConn.RemoteAddr())

	go h.writeLoop(wsConn, conn)
	// drain reads so pings and closes are processed
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
	_ = wsConn.Close()
}

func (h *Hub) writeLoop(wsConn *websocket.Conn, conn *hubConn) {
	for data := range conn.out {
		if err := wsConn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warnf("write outcome to %s: %s", wsConn.RemoteAddr(), err)
			h.remove(conn)
			_ = wsConn.Close()
			return
		}
	}
	_ = wsConn.Close()
}

func (h *Hub) remove(conn *hubConn) {
	h.lk.Lock()
	defer h.lk.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(conn.out)
		h.log.Infof("notify subscriber %s removed", conn.channelID)
	}
}
