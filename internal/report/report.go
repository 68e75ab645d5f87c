// Package report assembles the full answer/vitals/stress dataset for a
// finished session and asks the LLM for a narrative feedback report.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/krishbhagirath/smart-interviewer/internal/llm"
	"github.com/krishbhagirath/smart-interviewer/internal/store"
	"github.com/krishbhagirath/smart-interviewer/internal/vitals"
)

// ErrSessionNotFound marks the non-retryable error class: no persisted data
// exists for the requested session. Everything else is transient and worth
// a user-initiated retry.
var ErrSessionNotFound = errors.New("report: session not found or mismatched")

// Metadata describes a generated report.
type Metadata struct {
	SessionID            string    `json:"sessionId"`
	GeneratedAt          time.Time `json:"generatedAt"`
	QuestionsAnalyzed    int       `json:"questionsAnalyzed"`
	StressEventsDetected int       `json:"stressEventsDetected"`
}

// Report is the final narrative feedback document.
type Report struct {
	Markdown string   `json:"report"`
	Metadata Metadata `json:"metadata"`
}

// dataset is the aggregate handed to the LLM.
type dataset struct {
	Session struct {
		SessionID       string    `json:"sessionId"`
		StartTime       time.Time `json:"startTime"`
		InterviewType   string    `json:"interviewType"`
		ExperienceLevel string    `json:"experienceLevel"`
	} `json:"session"`
	Answers      []store.Answer    `json:"answers"`
	Vitals       []json.RawMessage `json:"vitals"`
	StressEvents []json.RawMessage `json:"stressEvents"`
	LiveSamples  []vitals.Sample   `json:"liveSamples,omitempty"`
}

// Generator builds reports from the persisted answer log and the sensor
// process's event files.
type Generator struct {
	answers   *store.AnswerLog
	llm       llm.Client
	vitalsDir string
	logger    *log.Logger
}

// NewGenerator creates a report generator. vitalsDir is the sensor output
// directory holding interview_events.json and stress_events.json.
func NewGenerator(answers *store.AnswerLog, client llm.Client, vitalsDir string, logger *log.Logger) *Generator {
	return &Generator{answers: answers, llm: client, vitalsDir: vitalsDir, logger: logger}
}

// Generate aggregates all data sources for the session and produces the
// markdown report. live carries the question-tagged samples collected by the
// session's own vitals poller while it is still in memory; nil is fine.
// ErrSessionNotFound is returned when the answer log does not hold the
// requested session.
func (g *Generator) Generate(ctx context.Context, sessionID string, live []vitals.Sample) (*Report, error) {
	var (
		answersDoc *store.SessionLog
		vitalsData []json.RawMessage
		stressData []json.RawMessage
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		doc, err := g.answers.Load(sessionID)
		if err != nil {
			return ErrSessionNotFound
		}
		answersDoc = doc
		return nil
	})
	eg.Go(func() error {
		vitalsData = g.readEvents(egCtx, "interview_events.json")
		return nil
	})
	eg.Go(func() error {
		stressData = g.readEvents(egCtx, "stress_events.json")
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var data dataset
	data.Session.SessionID = answersDoc.SessionID
	data.Session.StartTime = answersDoc.StartTime
	data.Session.InterviewType = answersDoc.InterviewType
	data.Session.ExperienceLevel = answersDoc.ExperienceLevel
	data.Answers = answersDoc.Answers
	data.Vitals = vitalsData
	data.StressEvents = stressData
	data.LiveSamples = live

	prompt, err := buildPrompt(data)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	markdown, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	return &Report{
		Markdown: markdown,
		Metadata: Metadata{
			SessionID:            sessionID,
			GeneratedAt:          time.Now().UTC(),
			QuestionsAnalyzed:    len(data.Answers),
			StressEventsDetected: len(data.StressEvents),
		},
	}, nil
}

// Retryable classifies an error for the UI: session-not-found is final,
// everything else invites a retry.
func Retryable(err error) bool {
	return !errors.Is(err, ErrSessionNotFound)
}

// readEvents reads one of the sensor's event arrays, defaulting to empty.
// The sensor feed is best-effort; a missing or corrupt file is not an error.
func (g *Generator) readEvents(_ context.Context, name string) []json.RawMessage {
	path := filepath.Join(g.vitalsDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var events []json.RawMessage
	if err := json.Unmarshal(data, &events); err != nil {
		if g.logger != nil {
			g.logger.Printf("report: ignoring malformed %s: %v", name, err)
		}
		return nil
	}
	return events
}

func buildPrompt(data dataset) ([]string, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return []string{
		`You are an expert interview coach. Analyze the following interview data (answers, vitals, stress events) and provide a concise, actionable markdown report.

Output Format:
### Overall Performance
**Overall Score: X/100**
(2-3 sentences on strengths and general impression)

### Question Analysis
For each question:
**Question X Score: X/10**
(Brief content feedback, delivery insights, and tips)

### Stress Management
(Insights on stress levels)

### Top Recommendations
(3-5 actionable tips)`,
		string(payload),
	}, nil
}
