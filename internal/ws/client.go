package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// オリジン検証はCORSミドルウェアと同一のオリジンポリシーをハンドラ側で適用する
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client はハブと1つのWebSocket接続の仲介を行う。
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	eventID string
	userID  string
}

// ServeWS はHTTP接続をWebSocketにアップグレードし、クライアントを登録する。
// 認証とイベントメンバーシップの検証は呼び出し側ハンドラで済んでいること。
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, eventID, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 16),
		eventID: eventID,
		userID:  userID,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump は受信側のポンプ。クライアントからの入力は読み捨てるが、
// 切断検知とpong応答のために読み取りを続ける必要がある。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump は送信側のポンプ。ハブからのメッセージと定期pingを書き込む。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
