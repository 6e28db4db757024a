package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second

	// sendQueue is how many messages a socket may fall behind before the
	// hub drops it.
	sendQueue = 32
)

// client owns one socket. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub groups live-view sockets into rooms, one room per video. Rooms only
// exist on this instance; other replicas have their own hubs.
//
// The mutex guards the room maps and the send queues. No network I/O
// happens while it is held, so a slow socket never delays a publisher.
type Hub struct {
	mu    sync.Mutex
	rooms map[RoomKey]map[*websocket.Conn]*client
	log   *logger.ZapLogger
}

var _ ports.EventPublisher = (*Hub)(nil)

func NewHub(log *logger.ZapLogger) *Hub {
	return &Hub{
		rooms: make(map[RoomKey]map[*websocket.Conn]*client),
		log:   log,
	}
}

// RoomKey identifies the room of one video. Ids are kept as separate fields,
// so no id content can make two videos share a room.
type RoomKey struct {
	ChannelID string
	VideoID   string
}

func RoomID(channelID, videoID string) RoomKey {
	return RoomKey{ChannelID: channelID, VideoID: videoID}
}

// Register adds conn to the room and starts its writer.
func (h *Hub) Register(roomID RoomKey, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}

	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]*client)
	}
	h.rooms[roomID][conn] = c
	size := len(h.rooms[roomID])
	h.mu.Unlock()

	h.debug("register", roomID, size)
	go c.writeLoop()
}

func (h *Hub) Unregister(roomID RoomKey, conn *websocket.Conn) {
	h.mu.Lock()
	removed, size := h.removeLocked(roomID, conn)
	h.mu.Unlock()

	if removed {
		h.debug("unregister", roomID, size)
	}
}

// removeLocked drops conn from the room and closes its queue, which stops
// the writer and closes the socket. Must be called with h.mu held.
func (h *Hub) removeLocked(roomID RoomKey, conn *websocket.Conn) (bool, int) {
	conns, ok := h.rooms[roomID]
	if !ok {
		return false, 0
	}
	c, ok := conns[conn]
	if !ok {
		return false, len(conns)
	}

	delete(conns, conn)
	close(c.send)

	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}
	return true, len(conns)
}

// RoomSize reports the number of sockets in a room.
func (h *Hub) RoomSize(roomID RoomKey) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// SendToRoom queues msg for every socket in the room and never blocks.
// A socket whose queue is full is dropped.
func (h *Hub) SendToRoom(roomID RoomKey, msg []byte) {
	var dropped int

	h.mu.Lock()
	for conn, c := range h.rooms[roomID] {
		select {
		case c.send <- msg:
		default:
			h.removeLocked(roomID, conn)
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		h.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "ws client too slow, dropping socket",
			Fields:  map[string]any{"channelID": roomID.ChannelID, "videoID": roomID.VideoID, "dropped": dropped},
		})
	}
}

// Publish forwards view registrations to the matching video room. Other
// event types have no live subscribers.
func (h *Hub) Publish(_ context.Context, ev models.Event) error {
	if ev.Type != models.EventViewRegistered {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.SendToRoom(RoomID(ev.ChannelID, ev.VideoID), payload)
	return nil
}

// writeLoop drains the queue until the hub closes it or a write fails. A
// failed write closes the socket; the reader then unregisters it.
func (c *client) writeLoop() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

func (h *Hub) debug(msg string, roomID RoomKey, conns int) {
	h.log.Log(logger.LogEntry{
		Level:   "debug",
		Message: "ws hub " + msg,
		Fields:  map[string]any{"channelID": roomID.ChannelID, "videoID": roomID.VideoID, "conns": conns},
	})
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
