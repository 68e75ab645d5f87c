package session

import (
	"bytes"
	"log"
	"sync"
	"time"
)

// Segment holds the audio captured between one Start and Stop of the
// recorder. It is handed to transcription once and then released.
type Segment struct {
	QuestionID string
	StartedAt  time.Time
	buf        bytes.Buffer
}

// Bytes returns the accumulated audio.
func (s *Segment) Bytes() []byte {
	return s.buf.Bytes()
}

// Recorder owns the microphone capture feed. At most one segment is open at
// a time; a second Start is ignored. Capture is refused while narration is
// speaking to keep playback and recording mutually exclusive.
type Recorder struct {
	speaking func() bool
	logger   *log.Logger

	mu    sync.Mutex
	bound bool
	open  *Segment
}

// NewRecorder creates a recorder. speaking guards against capturing while
// the playback queue has a clip at the sink; it may be nil.
func NewRecorder(speaking func() bool, logger *log.Logger) *Recorder {
	return &Recorder{speaking: speaking, logger: logger}
}

// Bind attaches the capture device (the browser's mic stream).
func (r *Recorder) Bind() {
	r.mu.Lock()
	r.bound = true
	r.mu.Unlock()
}

// Unbind detaches the capture device. An open segment stays open; the
// orchestrator decides whether to stop or discard it.
func (r *Recorder) Unbind() {
	r.mu.Lock()
	r.bound = false
	r.mu.Unlock()
}

// Start opens a new segment. It reports false without side effects when a
// segment is already open, no device is bound, or narration is speaking.
func (r *Recorder) Start(questionID string) bool {
	if r.speaking != nil && r.speaking() {
		if r.logger != nil {
			r.logger.Printf("recorder: refusing start for %s while narration is playing", questionID)
		}
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.bound || r.open != nil {
		return false
	}
	r.open = &Segment{QuestionID: questionID, StartedAt: time.Now().UTC()}
	return true
}

// Stop closes the open segment and returns it, or nil if nothing was
// recording.
func (r *Recorder) Stop() *Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	seg := r.open
	r.open = nil
	return seg
}

// Ingest appends a captured audio chunk to the open segment. Chunks arriving
// while no segment is open are dropped.
func (r *Recorder) Ingest(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open == nil || len(chunk) == 0 {
		return
	}
	r.open.buf.Write(chunk)
}

// Recording reports whether a segment is currently open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open != nil
}
