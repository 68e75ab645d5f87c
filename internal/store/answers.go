package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Answer is one transcribed response, appended to the session log once per
// answered question (the intro exchange included, under its sentinel id).
type Answer struct {
	QuestionID string    `json:"questionId"`
	Transcript string    `json:"transcript"`
	Timestamp  time.Time `json:"timestamp"`
}

// SessionLog is the persisted per-session document. A new sessionId
// overwrites the file; answers for the same sessionId are appended.
type SessionLog struct {
	SessionID       string    `json:"sessionId"`
	StartTime       time.Time `json:"startTime"`
	InterviewType   string    `json:"interviewType"`
	ExperienceLevel string    `json:"experienceLevel"`
	Answers         []Answer  `json:"answers"`
}

// SessionMeta identifies the session an answer belongs to.
type SessionMeta struct {
	SessionID       string
	InterviewType   string
	ExperienceLevel string
}

// ErrNoLog is returned by Load when no session log has been written yet.
var ErrNoLog = errors.New("no session log")

// AnswerLog persists answers to a single JSON file, holding at most one
// session at a time.
type AnswerLog struct {
	mu   sync.Mutex
	path string
}

// NewAnswerLog creates an answer log backed by the given file path.
func NewAnswerLog(path string) *AnswerLog {
	return &AnswerLog{path: path}
}

// Append adds an answer to the persisted log. If the file holds a different
// session, it is replaced with a fresh document for meta's session.
func (l *AnswerLog) Append(meta SessionMeta, ans Answer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.read()
	if err != nil || doc.SessionID != meta.SessionID {
		doc = &SessionLog{
			SessionID:       meta.SessionID,
			StartTime:       time.Now().UTC(),
			InterviewType:   orUnknown(meta.InterviewType),
			ExperienceLevel: orUnknown(meta.ExperienceLevel),
		}
	}
	doc.Answers = append(doc.Answers, ans)

	return l.write(doc)
}

// Load returns the persisted log for the given session. ErrNoLog is returned
// when the file is missing, unreadable, or holds a different session.
func (l *AnswerLog) Load(sessionID string) (*SessionLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.read()
	if err != nil {
		return nil, ErrNoLog
	}
	if doc.SessionID != sessionID {
		return nil, ErrNoLog
	}
	return doc, nil
}

func (l *AnswerLog) read() (*SessionLog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var doc SessionLog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (l *AnswerLog) write(doc *SessionLog) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
