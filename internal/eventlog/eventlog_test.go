package eventlog

import (
	"context"
	"testing"
)

func TestLogWithNilDBSkips(t *testing.T) {
	l := New(nil)
	if err := l.Log(context.Background(), "s1", EventSessionCreated, map[string]any{"k": "v"}); err != nil {
		t.Fatalf("Log with nil db: %v", err)
	}
}

func TestLogAsyncWithNilDBDoesNotPanic(t *testing.T) {
	l := New(nil)
	l.LogAsync("s1", EventPhaseChanged, map[string]any{"phase": "READY"})
	l.LogAsync("", EventPhaseChanged, nil)
}

func TestLogSkipsEmptySessionID(t *testing.T) {
	l := New(nil)
	if err := l.Log(context.Background(), "", EventSessionExited, nil); err != nil {
		t.Fatalf("Log with empty session id: %v", err)
	}
}
