package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/krishbhagirath/smart-interviewer/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser UI may be served from a different origin during development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// mediaMessage is the frame format on the media WebSocket, both directions.
// Server -> client: event "audio" (narration clip) or "status".
// Client -> server: event "media" (mic chunk) or "mark" (playback-done ack).
type mediaMessage struct {
	Event   string          `json:"event"`
	ClipID  string          `json:"clipId,omitempty"`
	Payload string          `json:"payload,omitempty"` // base64 audio
	Data    json.RawMessage `json:"data,omitempty"`
}

// wsMedia adapts one WebSocket connection into the playback sink and the
// microphone feed for a session.
type wsMedia struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	marks     chan string
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSMedia(conn *websocket.Conn) *wsMedia {
	return &wsMedia{
		conn:   conn,
		marks:  make(chan string, 8),
		closed: make(chan struct{}),
	}
}

// Play sends a narration clip to the browser and blocks until the browser
// acknowledges playback completion with a matching mark, the context is
// cancelled, or the stream closes. Any error counts as playback completion
// for the queue.
func (m *wsMedia) Play(ctx context.Context, clip session.Clip) error {
	msg := mediaMessage{
		Event:   "audio",
		ClipID:  clip.ID,
		Payload: base64.StdEncoding.EncodeToString(clip.Audio),
	}
	if err := m.write(msg); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.closed:
			return errors.New("media stream closed")
		case id := <-m.marks:
			if id == clip.ID {
				return nil
			}
			// Stale mark from a stopped clip; keep waiting.
		}
	}
}

func (m *wsMedia) sendStatus(st session.Status) {
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	_ = m.write(mediaMessage{Event: "status", Data: data})
}

func (m *wsMedia) write(msg mediaMessage) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.conn.WriteJSON(msg)
}

func (m *wsMedia) close() {
	m.closeOnce.Do(func() {
		close(m.closed)
		_ = m.conn.Close()
	})
}

func (r *Router) handleMediaWS(w http.ResponseWriter, req *http.Request) {
	is := r.lookup(w, req)
	if is == nil {
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("media_ws: upgrade failed: %v", err)
		return
	}

	media := newWSMedia(conn)
	is.attachMedia(media)
	defer func() {
		is.detachMedia(media)
		media.close()
	}()

	// Initial status so the UI can render immediately.
	media.sendStatus(is.machine.Status())

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Printf("media_ws: stream closed for session %s", is.machine.ID())
			} else {
				r.logger.Printf("media_ws: read error for session %s: %v", is.machine.ID(), err)
			}
			return
		}

		var msg mediaMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			r.logger.Printf("media_ws: failed to parse message: %v", err)
			continue
		}

		switch msg.Event {
		case "media":
			chunk, err := base64.StdEncoding.DecodeString(msg.Payload)
			if err != nil {
				r.logger.Printf("media_ws: bad audio payload: %v", err)
				continue
			}
			is.recorder.Ingest(chunk)
			is.touch()

		case "mark":
			select {
			case media.marks <- msg.ClipID:
			default:
			}
			is.touch()
		}
	}
}
