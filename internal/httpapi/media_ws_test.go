package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/krishbhagirath/smart-interviewer/internal/session"
)

func dialMedia(t *testing.T, h http.Handler, sessionID string) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + sessionID + "/media"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial media stream: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn, event string) mediaMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for {
		var msg mediaMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q frame: %v", event, err)
		}
		if msg.Event == event {
			return msg
		}
	}
}

func TestMediaWSRequiresKnownSession(t *testing.T) {
	h, _ := newTestRouter(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/ghost/media"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("handshake response = %v, want 404", resp)
	}
}

func TestMediaWSSendsInitialStatus(t *testing.T) {
	h, _ := newTestRouter(t)
	id := createSession(t, h)
	conn, cleanup := dialMedia(t, h, id)
	defer cleanup()

	msg := readEvent(t, conn, "status")
	if !strings.Contains(string(msg.Data), `"phase":"INIT"`) {
		t.Errorf("initial status data = %s", msg.Data)
	}
}

func TestMediaWSFeedsMicrophoneChunks(t *testing.T) {
	h, sessions := newTestRouter(t)
	id := createSession(t, h)
	conn, cleanup := dialMedia(t, h, id)
	defer cleanup()

	readEvent(t, conn, "status") // wait for attach

	is := sessions.Get(id)
	if !is.recorder.Start("1") {
		t.Fatal("recorder not bound after media attach")
	}

	chunk := base64.StdEncoding.EncodeToString([]byte("mic-audio"))
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := conn.WriteJSON(mediaMessage{Event: "media", Payload: chunk}); err != nil {
			t.Fatalf("send media frame: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if seg := is.recorder.Stop(); seg != nil && len(seg.Bytes()) > 0 {
			if string(seg.Bytes())[:9] != "mic-audio" {
				t.Fatalf("segment bytes = %q", seg.Bytes())
			}
			return
		}
		is.recorder.Start("1")
	}
	t.Fatal("mic chunk never reached the recorder")
}

func TestMediaWSPlaybackWaitsForMark(t *testing.T) {
	h, sessions := newTestRouter(t)
	id := createSession(t, h)
	conn, cleanup := dialMedia(t, h, id)
	defer cleanup()

	readEvent(t, conn, "status")

	is := sessions.Get(id)
	is.mu.Lock()
	media := is.media
	is.mu.Unlock()
	if media == nil {
		t.Fatal("no media stream attached")
	}

	playDone := make(chan error, 1)
	go func() {
		playDone <- media.Play(context.Background(), session.Clip{ID: "7", Audio: []byte("mp3")})
	}()

	// The browser receives the audio frame first.
	audio := readEvent(t, conn, "audio")
	if audio.ClipID != "7" {
		t.Fatalf("audio clipId = %q, want 7", audio.ClipID)
	}
	payload, err := base64.StdEncoding.DecodeString(audio.Payload)
	if err != nil || string(payload) != "mp3" {
		t.Fatalf("audio payload = %q (err %v)", audio.Payload, err)
	}

	// Play blocks until the matching mark arrives; stale marks are ignored.
	select {
	case err := <-playDone:
		t.Fatalf("Play returned before mark: %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	if err := conn.WriteJSON(mediaMessage{Event: "mark", ClipID: "stale"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(mediaMessage{Event: "mark", ClipID: "7"}); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-playDone:
		if err != nil {
			t.Fatalf("Play: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play never returned after mark")
	}
}

func TestMediaWSPlayAbortsOnClose(t *testing.T) {
	h, sessions := newTestRouter(t)
	id := createSession(t, h)
	conn, cleanup := dialMedia(t, h, id)
	defer cleanup()

	readEvent(t, conn, "status")

	is := sessions.Get(id)
	is.mu.Lock()
	media := is.media
	is.mu.Unlock()

	playDone := make(chan error, 1)
	go func() {
		playDone <- media.Play(context.Background(), session.Clip{ID: "1", Audio: []byte("mp3")})
	}()

	readEvent(t, conn, "audio")
	conn.Close()

	select {
	case err := <-playDone:
		if err == nil {
			t.Fatal("Play returned nil after the stream closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play never returned after close")
	}
}
