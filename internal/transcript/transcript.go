// Package transcript is the boundary adapter between recorded segments and
// the speech-to-text service. All transport and service failures are
// absorbed here: the session machine only ever sees an Answer, possibly
// carrying the sentinel transcript.
package transcript

import (
	"context"
	"log"
	"time"

	"github.com/krishbhagirath/smart-interviewer/internal/eventlog"
	"github.com/krishbhagirath/smart-interviewer/internal/store"
	"github.com/krishbhagirath/smart-interviewer/internal/stt"
)

// Sentinel replaces the transcript when the service failed or heard nothing.
const Sentinel = "(No speech detected)"

// Meta identifies the session and question a segment belongs to.
type Meta struct {
	QuestionID      string
	SessionID       string
	InterviewType   string
	ExperienceLevel string
}

// Client wraps the STT boundary and the persisted answer log.
type Client struct {
	stt    stt.Client
	log    *store.AnswerLog
	events *eventlog.Logger
	logger *log.Logger
}

// New creates a transcription client.
func New(sttClient stt.Client, answerLog *store.AnswerLog, events *eventlog.Logger, logger *log.Logger) *Client {
	return &Client{stt: sttClient, log: answerLog, events: events, logger: logger}
}

// Transcribe converts a segment into an Answer. It never returns an error:
// a missing payload, transport failure, or empty recognition result all
// yield the sentinel transcript so the session can continue.
func (c *Client) Transcribe(ctx context.Context, audio []byte, meta Meta) store.Answer {
	ans := store.Answer{
		QuestionID: meta.QuestionID,
		Transcript: Sentinel,
		Timestamp:  time.Now().UTC(),
	}

	if len(audio) == 0 {
		// Client-side validation: nothing to send to the boundary.
		if c.events != nil {
			c.events.LogAsync(meta.SessionID, eventlog.EventTranscriptionFailed, map[string]any{
				"questionId": meta.QuestionID,
				"reason":     "empty segment",
			})
		}
		return ans
	}

	text, err := c.stt.Recognize(ctx, audio)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("transcript: %s failed: %v", meta.QuestionID, err)
		}
		if c.events != nil {
			c.events.LogAsync(meta.SessionID, eventlog.EventTranscriptionFailed, map[string]any{
				"questionId": meta.QuestionID,
				"error":      err.Error(),
			})
		}
		return ans
	}

	if text != "" {
		ans.Transcript = text
	}
	if c.events != nil {
		c.events.LogAsync(meta.SessionID, eventlog.EventTranscriptionOK, map[string]any{
			"questionId": meta.QuestionID,
			"chars":      len(ans.Transcript),
		})
	}
	return ans
}

// Commit appends an answer to the persisted session log. The orchestrator
// invokes this in question order even when transcriptions complete out of
// order.
func (c *Client) Commit(ctx context.Context, meta Meta, ans store.Answer) error {
	_ = ctx
	return c.log.Append(store.SessionMeta{
		SessionID:       meta.SessionID,
		InterviewType:   meta.InterviewType,
		ExperienceLevel: meta.ExperienceLevel,
	}, ans)
}
