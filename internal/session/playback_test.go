package session

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"
)

type fakeSynth struct {
	mu    sync.Mutex
	fail  map[string]bool
	delay time.Duration
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	failed := f.fail[text]
	f.mu.Unlock()
	if failed {
		return nil, errors.New("synthesis unavailable")
	}
	return []byte("mpeg:" + text), nil
}

// fakeSink records playback order, optionally sleeping a random amount per
// clip to shake out ordering bugs.
type fakeSink struct {
	mu       sync.Mutex
	played   []string
	maxDelay time.Duration
	rng      *rand.Rand
	honorCtx bool
}

func (f *fakeSink) Play(ctx context.Context, clip Clip) error {
	if f.maxDelay > 0 {
		d := time.Duration(f.rng.Int63n(int64(f.maxDelay)))
		if f.honorCtx {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		} else {
			time.Sleep(d)
		}
	}
	f.mu.Lock()
	f.played = append(f.played, clip.Text)
	f.mu.Unlock()
	return nil
}

func (f *fakeSink) playedTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.played))
	copy(out, f.played)
	return out
}

func TestPlaybackQueueFIFOUnderRandomDelays(t *testing.T) {
	sink := &fakeSink{
		maxDelay: 10 * time.Millisecond,
		rng:      rand.New(rand.NewSource(1)),
	}
	q := NewPlaybackQueue(&fakeSynth{}, nil)
	q.SetSink(sink)

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		q.Enqueue("clip "+strconv.Itoa(i), wg.Done)
	}
	wg.Wait()

	played := sink.playedTexts()
	if len(played) != n {
		t.Fatalf("played %d clips, want %d", len(played), n)
	}
	for i, text := range played {
		if want := "clip " + strconv.Itoa(i); text != want {
			t.Errorf("played[%d] = %q, want %q", i, text, want)
		}
	}
}

func TestPlaybackQueueSynthesisErrorCountsAsDone(t *testing.T) {
	synth := &fakeSynth{fail: map[string]bool{"bad": true}}
	sink := &fakeSink{}
	q := NewPlaybackQueue(synth, nil)
	q.SetSink(sink)

	var wg sync.WaitGroup
	wg.Add(3)
	q.Enqueue("first", wg.Done)
	q.Enqueue("bad", wg.Done)
	q.Enqueue("last", wg.Done)
	wg.Wait()

	played := sink.playedTexts()
	if len(played) != 2 || played[0] != "first" || played[1] != "last" {
		t.Fatalf("played = %v, want [first last]", played)
	}
}

func TestPlaybackQueueNoSinkDropsClipButFiresDone(t *testing.T) {
	q := NewPlaybackQueue(&fakeSynth{}, nil)

	fired := make(chan struct{})
	q.Enqueue("orphan", func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("done continuation never fired without a sink")
	}
}

func TestPlaybackQueueStopCurrentSkipsToNext(t *testing.T) {
	sink := &fakeSink{
		maxDelay: time.Second,
		rng:      rand.New(rand.NewSource(1)),
		honorCtx: true,
	}
	q := NewPlaybackQueue(&fakeSynth{}, nil)
	q.SetSink(sink)

	firstDone := make(chan struct{})
	q.Enqueue("long clip", func() { close(firstDone) })

	// Let the first clip reach the sink, then halt it.
	waitFor(t, "speaking", q.Speaking)
	q.StopCurrent()

	select {
	case <-firstDone:
	case <-time.After(2 * time.Second):
		t.Fatal("stopped clip never completed")
	}
	if q.Speaking() {
		t.Error("still speaking after StopCurrent")
	}
}

func TestPlaybackQueueClearDropsPending(t *testing.T) {
	sink := &fakeSink{
		maxDelay: 50 * time.Millisecond,
		rng:      rand.New(rand.NewSource(1)),
	}
	q := NewPlaybackQueue(&fakeSynth{delay: 20 * time.Millisecond}, nil)
	q.SetSink(sink)

	q.Enqueue("keep", nil)
	q.Enqueue("drop 1", nil)
	q.Enqueue("drop 2", nil)
	q.Clear()

	waitFor(t, "first clip played", func() bool {
		return len(sink.playedTexts()) >= 1
	})
	time.Sleep(100 * time.Millisecond)
	if got := sink.playedTexts(); len(got) != 1 {
		t.Fatalf("played = %v, want only the in-flight clip", got)
	}
}

func TestPlaybackQueueSpeakingOnlyDuringSinkPlayback(t *testing.T) {
	release := make(chan struct{})
	sink := &blockingSink{release: release}
	q := NewPlaybackQueue(&fakeSynth{}, nil)
	q.SetSink(sink)

	if q.Speaking() {
		t.Fatal("speaking before any clip")
	}

	done := make(chan struct{})
	q.Enqueue("hello", func() { close(done) })

	waitFor(t, "speaking during playback", q.Speaking)
	close(release)
	<-done
	if q.Speaking() {
		t.Error("speaking after playback completed")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (b *blockingSink) Play(ctx context.Context, _ Clip) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
