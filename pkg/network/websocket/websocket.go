package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/browserdesk/browserdesk/pkg/com"
	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 64 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
)

// WS wraps a single websocket connection with one reader and one
// writer pump, so all reads and writes are serialized.
type WS struct {
	id   com.Uid
	conn *websocket.Conn
	send chan []byte
	log  *logger.Logger

	// OnMessage is called from the reader pump for every inbound message.
	OnMessage func(message []byte)

	closeOnce sync.Once
	doneOnce  sync.Once
	shutdown  sync.WaitGroup
	// Done closes when both pumps have stopped and the socket is released.
	Done chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteBufferPool: &sync.Pool{},
	// the demo client is served from anywhere
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewServer upgrades an HTTP request to a websocket connection.
// Listen must be called to start the pumps.
func NewServer(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*WS, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	id := com.NewUid()
	return &WS{
		id:   id,
		conn: conn,
		send: make(chan []byte, 16),
		log:  log.Extend(log.With().Str("ws", id.Short())),
		Done: make(chan struct{}),
	}, nil
}

func (ws *WS) Id() com.Uid { return ws.id }

// Listen starts the reader and writer pumps.
func (ws *WS) Listen() {
	ws.shutdown.Add(2)
	go ws.writer()
	go ws.reader()
}

// Write queues a message for the writer pump.
// Messages are dropped when the send queue is gone.
func (ws *WS) Write(data []byte) {
	defer func() { _ = recover() }() // send on closed channel race on teardown
	ws.send <- data
}

// Close asks the peer to close and releases the connection.
func (ws *WS) Close() {
	ws.closeOnce.Do(func() {
		_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.conn.WriteMessage(websocket.CloseMessage, []byte{})
		_ = ws.conn.Close()
	})
}

// reader pumps inbound messages to the OnMessage callback.
func (ws *WS) reader() {
	defer func() {
		close(ws.send)
		ws.shutdown.Done()
		ws.release()
	}()
	ws.conn.SetReadLimit(maxMessageSize)
	_ = ws.conn.SetReadDeadline(time.Now().Add(pongTime))
	ws.conn.SetPongHandler(func(string) error {
		return ws.conn.SetReadDeadline(time.Now().Add(pongTime))
	})
	for {
		_, message, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug().Err(err).Msg("ws read")
			}
			return
		}
		if ws.OnMessage != nil {
			ws.OnMessage(message)
		}
	}
}

// writer pumps messages from the send channel to the connection and
// keeps the ping/pong heartbeat.
func (ws *WS) writer() {
	ticker := time.NewTicker(pingTime)
	defer func() {
		ticker.Stop()
		ws.shutdown.Done()
		ws.release()
	}()
	for {
		select {
		case message, ok := <-ws.send:
			if !ok {
				return
			}
			_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ws *WS) release() {
	ws.Close()
	ws.shutdown.Wait()
	ws.doneOnce.Do(func() { close(ws.Done) })
}
