package transcript

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/krishbhagirath/smart-interviewer/internal/store"
)

type fakeSTT struct {
	text  string
	err   error
	calls int
}

func (f *fakeSTT) Recognize(_ context.Context, _ []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

func testMeta() Meta {
	return Meta{
		QuestionID:      "1",
		SessionID:       "s1",
		InterviewType:   "behavioral-general",
		ExperienceLevel: "junior",
	}
}

func TestTranscribeSuccess(t *testing.T) {
	sttClient := &fakeSTT{text: "I led a small migration project."}
	c := New(sttClient, nil, nil, nil)

	ans := c.Transcribe(context.Background(), []byte("audio"), testMeta())
	if ans.QuestionID != "1" {
		t.Errorf("QuestionID = %q, want 1", ans.QuestionID)
	}
	if ans.Transcript != "I led a small migration project." {
		t.Errorf("Transcript = %q", ans.Transcript)
	}
	if ans.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestTranscribeEmptyAudioSkipsService(t *testing.T) {
	sttClient := &fakeSTT{text: "should not be used"}
	c := New(sttClient, nil, nil, nil)

	ans := c.Transcribe(context.Background(), nil, testMeta())
	if ans.Transcript != Sentinel {
		t.Errorf("Transcript = %q, want sentinel", ans.Transcript)
	}
	if sttClient.calls != 0 {
		t.Errorf("Recognize called %d times for empty audio, want 0", sttClient.calls)
	}
}

func TestTranscribeServiceFailureYieldsSentinel(t *testing.T) {
	sttClient := &fakeSTT{err: errors.New("upstream 500")}
	c := New(sttClient, nil, nil, nil)

	ans := c.Transcribe(context.Background(), []byte("audio"), testMeta())
	if ans.Transcript != Sentinel {
		t.Errorf("Transcript = %q, want sentinel", ans.Transcript)
	}
}

func TestTranscribeEmptyRecognitionYieldsSentinel(t *testing.T) {
	c := New(&fakeSTT{text: ""}, nil, nil, nil)

	ans := c.Transcribe(context.Background(), []byte("audio"), testMeta())
	if ans.Transcript != Sentinel {
		t.Errorf("Transcript = %q, want sentinel", ans.Transcript)
	}
}

func TestCommitAppendsToLog(t *testing.T) {
	answerLog := store.NewAnswerLog(filepath.Join(t.TempDir(), "answers.json"))
	c := New(&fakeSTT{}, answerLog, nil, nil)

	meta := testMeta()
	ans := store.Answer{QuestionID: "1", Transcript: "an answer"}
	if err := c.Commit(context.Background(), meta, ans); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	doc, err := answerLog.Load("s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Answers) != 1 || doc.Answers[0].Transcript != "an answer" {
		t.Fatalf("persisted answers = %+v", doc.Answers)
	}
	if doc.InterviewType != "behavioral-general" {
		t.Errorf("InterviewType = %q", doc.InterviewType)
	}
}
