// Package realtime は進捗更新を WebSocket で配信します。
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/aggregate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Client はWebSocket接続を持つ単一の購読者を表します。
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed bool
	mu     sync.Mutex
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）。
// バッファが埋まっている遅いクライアントへのメッセージは捨てます。
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// SafeClose は安全にチャネルを閉じます。
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// Hub は接続中のクライアントを管理し、進捗更新をブロードキャストします。
type Hub struct {
	log        *logger.Logger
	aggregator aggregate.AggregateService
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool // Close 後は配信を受け付けません
	wg      sync.WaitGroup
}

// NewHub は新しい Hub を作成します。allowedOrigins が空なら全ての Origin を許可します。
func NewHub(log *logger.Logger, agg aggregate.AggregateService, allowedOrigins []string) *Hub {
	h := &Hub{
		log:        log.With("service", "ProgressHub"),
		aggregator: agg,
		clients:    make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWS は GET /ws/progress を WebSocket にアップグレードして購読を開始します。
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{Conn: conn, Send: make(chan []byte, sendBufferSize)}
	h.register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// ProgressChanged は投稿受理後に呼ばれ、全体統計を添えて配信します。
// 配信は非同期で行い、呼び出し元の応答を遅らせません。
func (h *Hub) ProgressChanged(_ context.Context, key string, count int) {
	h.mu.RLock()
	if h.closed || len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}
	h.wg.Add(1)
	h.mu.RUnlock()
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()

		update := models.ProgressUpdate{Type: "progress", Key: key, Count: count}
		global, err := h.aggregator.GlobalProgress(ctx)
		if err != nil {
			h.log.Warn("global progress unavailable for broadcast", "error", err)
		} else {
			update.Global = global
		}
		msg, err := json.Marshal(update)
		if err != nil {
			h.log.Error("failed to encode progress update", "error", err)
			return
		}
		h.Broadcast(msg)
	}()
}

// Broadcast は全クライアントへメッセージを送ります。
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.SafeSend(msg) {
			h.log.Debug("dropped progress update for slow client")
		}
	}
}

// ClientCount は接続中のクライアント数です。
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close は全ての接続を閉じ、配信中のメッセージを待ちます。
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.wg.Wait()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.SafeClose()
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.SafeClose()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("progress subscriber connected", "clients", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.SafeClose()
}

// readPump はクライアントからのメッセージを読み捨て、切断を検知します。
func (h *Hub) readPump(c *Client) {
	defer h.unregister(c)
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump は Send チャネルの内容を書き出し、定期的に ping を送ります。
func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
