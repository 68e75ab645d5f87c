package session

import (
	"context"
	"log"
	"strconv"
	"sync"

	"github.com/krishbhagirath/smart-interviewer/internal/tts"
)

// Clip is one synthesized narration utterance in flight. Clips exist only
// between synthesis and playback completion.
type Clip struct {
	ID    string
	Text  string
	Audio []byte // audio/mpeg
}

// Sink plays a clip to the candidate and returns once playback has finished
// (or failed). The media WebSocket implements this against the browser.
type Sink interface {
	Play(ctx context.Context, clip Clip) error
}

type queueEntry struct {
	text string
	done func()
}

// PlaybackQueue serializes narration so clips play strictly one after
// another no matter how many Enqueue calls arrive concurrently. A playback
// or synthesis error counts as completion so the queue never stalls.
type PlaybackQueue struct {
	synth  tts.Client
	logger *log.Logger

	mu       sync.Mutex
	sink     Sink
	pending  []queueEntry
	draining bool
	speaking bool
	cancel   context.CancelFunc // cancels the entry in flight
	seq      int
}

// NewPlaybackQueue creates a queue over the given synthesizer. The sink is
// attached later, when the browser's media stream connects.
func NewPlaybackQueue(synth tts.Client, logger *log.Logger) *PlaybackQueue {
	return &PlaybackQueue{synth: synth, logger: logger}
}

// SetSink attaches (or detaches, with nil) the playback sink.
func (q *PlaybackQueue) SetSink(sink Sink) {
	q.mu.Lock()
	q.sink = sink
	q.mu.Unlock()
}

// Enqueue schedules narration text. It never blocks; done, if non-nil, fires
// after this entry finishes playing (or fails), i.e. when the queue has
// drained to this point.
func (q *PlaybackQueue) Enqueue(text string, done func()) {
	q.mu.Lock()
	q.pending = append(q.pending, queueEntry{text: text, done: done})
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

// StopCurrent halts the clip in flight and releases its resources. Entries
// that have not started are left queued; call Clear to drop them too.
func (q *PlaybackQueue) StopCurrent() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Clear drops all queued-but-not-started entries.
func (q *PlaybackQueue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

// Speaking reports whether a clip is at the sink right now. It is false
// during the next entry's synthesis fetch; the recording controller uses
// this flag to refuse capture while narration plays.
func (q *PlaybackQueue) Speaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

func (q *PlaybackQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		entry := q.pending[0]
		q.pending = q.pending[1:]
		q.seq++
		id := strconv.Itoa(q.seq)
		ctx, cancel := context.WithCancel(context.Background())
		q.cancel = cancel
		q.mu.Unlock()

		q.playOne(ctx, id, entry)

		cancel()
		q.mu.Lock()
		q.cancel = nil
		q.mu.Unlock()
	}
}

func (q *PlaybackQueue) playOne(ctx context.Context, id string, entry queueEntry) {
	defer func() {
		if entry.done != nil {
			entry.done()
		}
	}()

	audio, err := q.synth.Synthesize(ctx, entry.text)
	if err != nil {
		// Narration is advisory; a fetch failure must not stall the queue.
		if q.logger != nil {
			q.logger.Printf("playback: synthesis failed: %v", err)
		}
		return
	}

	q.mu.Lock()
	sink := q.sink
	if sink == nil {
		q.mu.Unlock()
		if q.logger != nil {
			q.logger.Printf("playback: no sink attached, dropping clip %s", id)
		}
		return
	}
	q.speaking = true
	q.mu.Unlock()

	err = sink.Play(ctx, Clip{ID: id, Text: entry.text, Audio: audio})

	q.mu.Lock()
	q.speaking = false
	q.mu.Unlock()

	if err != nil && q.logger != nil {
		q.logger.Printf("playback: clip %s ended with error: %v", id, err)
	}
}
