// Package ws はイベントごとのWebSocket配信を提供する。
// ライブ位置のフィックス更新を同一イベントの閲覧者へプッシュする。
package ws

import (
	"context"
	"log/slog"
)

// message はルーム宛のブロードキャストメッセージ。
type message struct {
	eventID string
	data    []byte
}

// Hub はイベントIDごとのルームと接続クライアントを管理する。
// 全ての状態遷移はRunのループ内で行われるため、ロックは不要。
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
}

// NewHub はHubを生成する。
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
	}
}

// Run はハブのイベントループを開始する。ctxのキャンセルで終了する。
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			return

		case client := <-h.register:
			room, ok := h.rooms[client.eventID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.eventID] = room
			}
			room[client] = true
			slog.Debug("ws client registered",
				slog.String("event_id", client.eventID),
				slog.String("user_id", client.userID),
			)

		case client := <-h.unregister:
			if room, ok := h.rooms[client.eventID]; ok {
				if room[client] {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.eventID)
					}
				}
			}

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.eventID] {
				select {
				case client.send <- msg.data:
				default:
					// 送信バッファが詰まったクライアントは切断する
					delete(h.rooms[msg.eventID], client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast は指定イベントのルームにメッセージを配信する。
// ハブが停止している場合は破棄される。
func (h *Hub) Broadcast(eventID string, data []byte) {
	select {
	case h.broadcast <- message{eventID: eventID, data: data}:
	default:
		slog.Warn("ws broadcast dropped", slog.String("event_id", eventID))
	}
}
