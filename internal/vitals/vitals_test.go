package vitals

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeReading(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "latest_vitals.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReaderMissingFileYieldsZero(t *testing.T) {
	r := NewReader(t.TempDir())
	reading, err := r.Read()
	if err != nil {
		t.Fatalf("Read on missing file: %v", err)
	}
	if reading != (Reading{}) {
		t.Fatalf("reading = %+v, want zero", reading)
	}
}

func TestReaderParsesReading(t *testing.T) {
	dir := t.TempDir()
	writeReading(t, dir, `{"pulse": 72.5, "breathing": 14.2}`)

	reading, err := NewReader(dir).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if reading.Pulse != 72.5 || reading.Breathing != 14.2 {
		t.Fatalf("reading = %+v", reading)
	}
}

func TestReaderMalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	writeReading(t, dir, "{broken")

	if _, err := NewReader(dir).Read(); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestFileTriggerWritesAction(t *testing.T) {
	dir := t.TempDir()
	trigger := NewFileTrigger(dir, nil)

	trigger.Signal(ActionStart)
	data, err := os.ReadFile(filepath.Join(dir, "vitals_trigger.tmp"))
	if err != nil {
		t.Fatalf("trigger file not written: %v", err)
	}
	if string(data) != "START" {
		t.Fatalf("trigger content = %q, want START", data)
	}

	// Each signal overwrites the previous command.
	trigger.Signal(ActionStop)
	data, _ = os.ReadFile(filepath.Join(dir, "vitals_trigger.tmp"))
	if string(data) != "STOP" {
		t.Fatalf("trigger content = %q, want STOP", data)
	}
}

func TestPollerCollectsTaggedSamples(t *testing.T) {
	dir := t.TempDir()
	writeReading(t, dir, `{"pulse": 80, "breathing": 16}`)

	p := NewPoller(NewReader(dir), 5*time.Millisecond, nil)
	p.SetQuestion("1")
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(p.Samples()) < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	samples := p.Samples()
	if len(samples) < 3 {
		t.Fatalf("collected %d samples, want at least 3", len(samples))
	}
	for _, s := range samples {
		if s.QuestionID != "1" {
			t.Fatalf("sample tagged %q, want 1", s.QuestionID)
		}
	}
	if got := p.Latest(); got.Pulse != 80 {
		t.Errorf("Latest().Pulse = %v, want 80", got.Pulse)
	}
}

func TestPollerStopHaltsSampling(t *testing.T) {
	dir := t.TempDir()
	writeReading(t, dir, `{"pulse": 60, "breathing": 12}`)

	p := NewPoller(NewReader(dir), 5*time.Millisecond, nil)
	p.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(p.Samples()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()

	n := len(p.Samples())
	time.Sleep(50 * time.Millisecond)
	if got := len(p.Samples()); got != n {
		t.Fatalf("samples grew from %d to %d after Stop", n, got)
	}
}

func TestPollerZeroReadingOnReadFailure(t *testing.T) {
	dir := t.TempDir()
	writeReading(t, dir, "{broken")

	p := NewPoller(NewReader(dir), 5*time.Millisecond, nil)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(p.Samples()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := p.Latest(); got != (Reading{}) {
		t.Fatalf("Latest() = %+v, want zero on read failure", got)
	}
}
