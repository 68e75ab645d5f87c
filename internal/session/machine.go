package session

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/krishbhagirath/smart-interviewer/internal/costs"
	"github.com/krishbhagirath/smart-interviewer/internal/eventlog"
	"github.com/krishbhagirath/smart-interviewer/internal/questions"
	"github.com/krishbhagirath/smart-interviewer/internal/store"
	"github.com/krishbhagirath/smart-interviewer/internal/transcript"
	"github.com/krishbhagirath/smart-interviewer/internal/vitals"
)

// Phase is the session's coarse-grained stage.
type Phase string

const (
	PhaseInit      Phase = "INIT"
	PhaseReady     Phase = "READY"
	PhaseInterview Phase = "INTERVIEW"
	PhaseComplete  Phase = "COMPLETE"
)

// Setup is the immutable record supplied by the caller before the session
// starts.
type Setup struct {
	InterviewType   string `json:"interviewType"`
	ExperienceLevel string `json:"experienceLevel"`
	Role            string `json:"role,omitempty"`
}

// Narrator is the playback side of the machine; PlaybackQueue implements it.
type Narrator interface {
	Enqueue(text string, done func())
	StopCurrent()
	Clear()
	Speaking() bool
}

// Capture is the recording side of the machine; Recorder implements it.
type Capture interface {
	Start(questionID string) bool
	Stop() *Segment
	Recording() bool
}

// Transcriber converts segments into answers and persists them.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, meta transcript.Meta) store.Answer
	Commit(ctx context.Context, meta transcript.Meta, ans store.Answer) error
}

// Feedback produces the best-effort per-answer coaching tip.
type Feedback interface {
	QuickTip(ctx context.Context, questionText, answerText string) (string, error)
}

// VitalsFeed is the best-effort biometric poller bound to the session.
type VitalsFeed interface {
	Start(ctx context.Context)
	Stop()
	SetQuestion(questionID string)
	Latest() vitals.Reading
}

// Status is the machine's observable state, pushed to the UI on every
// change and whenever asynchronous work lands.
type Status struct {
	SessionID     string         `json:"sessionId"`
	Phase         Phase          `json:"phase"`
	QuestionIndex int            `json:"questionIndex"`
	QuestionCount int            `json:"questionCount"`
	Question      string         `json:"question,omitempty"`
	Speaking      bool           `json:"speaking"`
	Recording     bool           `json:"recording"`
	LastFeedback  string         `json:"lastFeedback,omitempty"`
	Vitals        vitals.Reading `json:"vitals"`
}

var (
	// ErrEmptyQuestionSet is a programmer error: a session must never enter
	// the interview with zero questions.
	ErrEmptyQuestionSet = errors.New("session: empty question set")

	// ErrInvalidTransition is returned when a mutator is called outside the
	// phase it is valid in.
	ErrInvalidTransition = errors.New("session: invalid phase transition")

	// ErrSubmitInFlight is returned when SubmitAnswer is called while the
	// previous submission for the current question is still settling.
	ErrSubmitInFlight = errors.New("session: answer submission already in flight")
)

// Config wires a Machine to its collaborators.
type Config struct {
	SessionID string
	Setup     Setup

	// QuestionSet overrides the static lookup; leave nil to resolve from
	// Setup.InterviewType with the default fallback.
	QuestionSet []questions.Question
	Transitions []string
	Rand        *rand.Rand

	Narrator    Narrator
	Recorder    Capture
	Transcriber Transcriber
	Feedback    Feedback
	Trigger     vitals.Trigger
	Vitals      VitalsFeed
	Events      *eventlog.Logger
	Logger      *log.Logger
	OnStatus    func(Status)
}

// Machine is the interview session orchestrator. It owns the phase state and
// question index exclusively; ConfirmStart, ConfirmReady, SubmitAnswer, and
// Exit are the only mutators. Each returns once its synchronous state update
// and side-effect scheduling are complete; narration, transcription, and
// feedback continue asynchronously and surface through Status.
type Machine struct {
	id          string
	setup       Setup
	qs          []questions.Question
	transitions []string
	rng         *rand.Rand

	narrator    Narrator
	recorder    Capture
	transcriber Transcriber
	feedback    Feedback
	trigger     vitals.Trigger
	vitalsFeed  VitalsFeed
	events      *eventlog.Logger
	logger      *log.Logger
	onStatus    func(Status)

	mu         sync.Mutex
	phase      Phase
	idx        int
	epoch      int // bumped on Exit; async results from older epochs are discarded
	submitting bool
	lastTip    string

	// In-order answer reconciliation: transcriptions may complete out of
	// order, but answers are committed to the log in question order. Slot 0
	// is the intro exchange; slot i+1 is question i.
	results   map[int]store.Answer
	nextFlush int
	flushing  bool

	metrics costs.SessionMetrics
}

// NewMachine constructs a session machine, failing fast when the resolved
// question set is empty.
func NewMachine(cfg Config) (*Machine, error) {
	qs := cfg.QuestionSet
	if qs == nil {
		qs = questions.ForType(cfg.Setup.InterviewType)
	}
	if len(qs) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	trs := cfg.Transitions
	if len(trs) == 0 {
		trs = questions.Transitions()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m := &Machine{
		id:          cfg.SessionID,
		setup:       cfg.Setup,
		qs:          qs,
		transitions: trs,
		rng:         rng,
		narrator:    cfg.Narrator,
		recorder:    cfg.Recorder,
		transcriber: cfg.Transcriber,
		feedback:    cfg.Feedback,
		trigger:     cfg.Trigger,
		vitalsFeed:  cfg.Vitals,
		events:      cfg.Events,
		logger:      cfg.Logger,
		onStatus:    cfg.OnStatus,
		phase:       PhaseInit,
		results:     make(map[int]store.Answer),
	}
	if m.events != nil {
		m.events.LogAsync(m.id, eventlog.EventSessionCreated, map[string]any{
			"interviewType":   cfg.Setup.InterviewType,
			"experienceLevel": cfg.Setup.ExperienceLevel,
			"questions":       len(qs),
		})
	}
	return m, nil
}

// ID returns the session's opaque identifier.
func (m *Machine) ID() string { return m.id }

// Setup returns the immutable session setup.
func (m *Machine) Setup() Setup { return m.setup }

// ConfirmStart moves INIT -> READY: the intro prompt is narrated and the
// intro recording segment begins once narration drains to it.
func (m *Machine) ConfirmStart() error {
	m.mu.Lock()
	if m.phase != PhaseInit {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.phase = PhaseReady
	epoch := m.epoch
	m.metrics.TTSCharacters += len(questions.IntroPrompt)
	m.mu.Unlock()

	m.logPhase(PhaseReady)
	m.logEvent(eventlog.EventNarrationQueued, map[string]any{"chars": len(questions.IntroPrompt)})
	m.narrator.Enqueue(questions.IntroPrompt, func() {
		if !m.current(epoch, PhaseReady, 0) {
			return
		}
		if m.recorder.Start(questions.IntroID) {
			m.logEvent(eventlog.EventRecordingStarted, map[string]any{"questionId": questions.IntroID})
		}
		m.notify()
	})
	m.notify()
	return nil
}

// ConfirmReady moves READY -> INTERVIEW at question 0: the intro segment is
// stopped and handed to transcription under its sentinel id, the vitals
// session starts, and the first question is narrated.
func (m *Machine) ConfirmReady() error {
	m.mu.Lock()
	if m.phase != PhaseReady {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.phase = PhaseInterview
	m.idx = 0
	epoch := m.epoch
	first := m.qs[0]
	m.metrics.TTSCharacters += len(first.Text)
	m.mu.Unlock()

	m.logPhase(PhaseInterview)

	seg := m.recorder.Stop()
	if seg != nil {
		m.logEvent(eventlog.EventRecordingStopped, map[string]any{"questionId": questions.IntroID})
	}
	go m.resolveAnswer(seg, questions.IntroID, 0, epoch, "")

	if m.trigger != nil {
		go m.signalVitals(vitals.ActionStart)
	}
	if m.vitalsFeed != nil {
		m.vitalsFeed.Start(context.Background())
		m.vitalsFeed.SetQuestion(first.ID)
	}

	m.logEvent(eventlog.EventNarrationQueued, map[string]any{"chars": len(first.Text)})
	m.narrator.Enqueue(first.Text, func() {
		if !m.current(epoch, PhaseInterview, 0) {
			return
		}
		if m.recorder.Start(first.ID) {
			m.logEvent(eventlog.EventRecordingStarted, map[string]any{"questionId": first.ID})
		}
		m.notify()
	})
	m.notify()
	return nil
}

// SubmitAnswer ends the current question: the recording is stopped and
// transcribed asynchronously, quick feedback is requested best-effort, and
// the machine either advances to the next question or completes. The
// question index only ever advances.
func (m *Machine) SubmitAnswer() error {
	m.mu.Lock()
	if m.phase != PhaseInterview {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	if m.submitting {
		m.mu.Unlock()
		return ErrSubmitInFlight
	}
	m.submitting = true
	idx := m.idx
	epoch := m.epoch
	q := m.qs[idx]
	last := idx == len(m.qs)-1
	m.mu.Unlock()

	seg := m.recorder.Stop()
	if seg != nil {
		m.logEvent(eventlog.EventRecordingStopped, map[string]any{"questionId": q.ID})
	}
	go m.resolveAnswer(seg, q.ID, idx+1, epoch, q.Text)

	if last {
		m.mu.Lock()
		m.phase = PhaseComplete
		m.submitting = false
		m.metrics.TTSCharacters += len(questions.ClosingPrompt)
		m.mu.Unlock()

		m.logPhase(PhaseComplete)
		if m.trigger != nil {
			go m.signalVitals(vitals.ActionStop)
		}
		if m.vitalsFeed != nil {
			m.vitalsFeed.Stop()
		}
		m.logEvent(eventlog.EventNarrationQueued, map[string]any{"chars": len(questions.ClosingPrompt)})
		m.narrator.Enqueue(questions.ClosingPrompt, nil)
		m.notify()
		return nil
	}

	m.mu.Lock()
	m.idx++
	nextIdx := m.idx
	next := m.qs[nextIdx]
	line := m.transitions[m.rng.Intn(len(m.transitions))]
	m.submitting = false
	m.metrics.TTSCharacters += len(line) + len(next.Text)
	m.mu.Unlock()

	if m.trigger != nil {
		go m.signalVitals(vitals.ActionNext)
	}
	if m.vitalsFeed != nil {
		m.vitalsFeed.SetQuestion(next.ID)
	}

	m.logEvent(eventlog.EventNarrationQueued, map[string]any{"chars": len(line) + len(next.Text)})
	m.narrator.Enqueue(line, nil)
	m.narrator.Enqueue(next.Text, func() {
		if !m.current(epoch, PhaseInterview, nextIdx) {
			return
		}
		if m.recorder.Start(next.ID) {
			m.logEvent(eventlog.EventRecordingStarted, map[string]any{"questionId": next.ID})
		}
		m.notify()
	})
	m.notify()
	return nil
}

// Exit resets the session to INIT from any phase. The active recording is
// discarded without producing an answer, in-flight narration is stopped and
// the queue cleared, the vitals session ends, and results of still-running
// network calls are dropped via the epoch guard.
func (m *Machine) Exit() {
	m.mu.Lock()
	m.phase = PhaseInit
	m.idx = 0
	m.epoch++
	m.submitting = false
	m.lastTip = ""
	m.results = make(map[int]store.Answer)
	m.nextFlush = 0
	m.mu.Unlock()

	if seg := m.recorder.Stop(); seg != nil { // discard, no answer for a half-completed question
		m.logEvent(eventlog.EventRecordingStopped, map[string]any{"questionId": seg.QuestionID, "discarded": true})
	}
	m.narrator.StopCurrent()
	m.narrator.Clear()
	if m.vitalsFeed != nil {
		m.vitalsFeed.Stop()
	}
	if m.trigger != nil {
		go m.signalVitals(vitals.ActionStop)
	}
	if m.events != nil {
		m.events.LogAsync(m.id, eventlog.EventSessionExited, nil)
	}
	m.notify()
}

// Status returns a snapshot of the machine's observable state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Usage returns the accumulated provider usage metrics for cost estimation.
func (m *Machine) Usage() costs.SessionMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

func (m *Machine) statusLocked() Status {
	st := Status{
		SessionID:     m.id,
		Phase:         m.phase,
		QuestionIndex: m.idx,
		QuestionCount: len(m.qs),
		Speaking:      m.narrator.Speaking(),
		Recording:     m.recorder.Recording(),
		LastFeedback:  m.lastTip,
	}
	if m.phase == PhaseInterview {
		st.Question = m.qs[m.idx].Text
	}
	if m.vitalsFeed != nil {
		st.Vitals = m.vitalsFeed.Latest()
	}
	return st
}

func (m *Machine) notify() {
	if m.onStatus == nil {
		return
	}
	m.mu.Lock()
	st := m.statusLocked()
	m.mu.Unlock()
	m.onStatus(st)
}

func (m *Machine) sameEpoch(epoch int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch == epoch
}

// current reports whether the machine is still at the given epoch, phase, and
// question index. Narration continuations check it so a clip finishing late,
// after the candidate has already moved on, cannot reopen capture for the
// question it belonged to.
func (m *Machine) current(epoch int, phase Phase, idx int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch == epoch && m.phase == phase && m.idx == idx
}

func (m *Machine) meta(questionID string) transcript.Meta {
	return transcript.Meta{
		QuestionID:      questionID,
		SessionID:       m.id,
		InterviewType:   m.setup.InterviewType,
		ExperienceLevel: m.setup.ExperienceLevel,
	}
}

// resolveAnswer transcribes a stopped segment, stores the result in its
// question slot, flushes the contiguous prefix to the log, and fires the
// quick-feedback request. It runs off the caller's goroutine; stale results
// after Exit are dropped.
func (m *Machine) resolveAnswer(seg *Segment, questionID string, slot int, epoch int, questionText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var ans store.Answer
	if seg == nil {
		// Nothing was recorded (e.g. the candidate advanced before the
		// narration continuation started capture). Log the sentinel so the
		// answer sequence stays complete.
		ans = store.Answer{
			QuestionID: questionID,
			Transcript: transcript.Sentinel,
			Timestamp:  time.Now().UTC(),
		}
	} else {
		m.mu.Lock()
		m.metrics.STTDurationSeconds += int(time.Since(seg.StartedAt).Seconds())
		m.mu.Unlock()
		ans = m.transcriber.Transcribe(ctx, seg.Bytes(), m.meta(questionID))
	}

	if !m.sameEpoch(epoch) {
		return
	}

	m.mu.Lock()
	m.results[slot] = ans
	m.mu.Unlock()
	m.flush(epoch)

	if questionText == "" || m.feedback == nil {
		return
	}
	tip, err := m.feedback.QuickTip(ctx, questionText, ans.Transcript)
	if err != nil || tip == "" {
		// Advisory failure: swallowed, the UI simply shows no tip.
		if m.events != nil && err != nil {
			m.events.LogAsync(m.id, eventlog.EventFeedbackError, map[string]any{"questionId": questionID})
		}
		return
	}
	if !m.sameEpoch(epoch) {
		return
	}
	m.mu.Lock()
	m.lastTip = tip
	m.metrics.LLMInputTokens += (len(questionText) + len(ans.Transcript)) / 4
	m.metrics.LLMOutputTokens += len(tip) / 4
	m.mu.Unlock()
	if m.events != nil {
		m.events.LogAsync(m.id, eventlog.EventFeedbackDelivered, map[string]any{"questionId": questionID})
	}
	m.notify()
}

// flush commits the contiguous prefix of completed answers in slot order.
// A single flusher runs at a time; commits happen outside the state lock.
func (m *Machine) flush(epoch int) {
	m.mu.Lock()
	if m.flushing {
		m.mu.Unlock()
		return
	}
	m.flushing = true
	for {
		ans, ok := m.results[m.nextFlush]
		if !ok || m.epoch != epoch {
			break
		}
		delete(m.results, m.nextFlush)
		questionID := ans.QuestionID
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := m.transcriber.Commit(ctx, m.meta(questionID), ans); err != nil && m.logger != nil {
			m.logger.Printf("session %s: persisting answer %s failed: %v", m.id, questionID, err)
		}
		cancel()

		m.mu.Lock()
		// An Exit during the commit resets the cursor for the next run; the
		// in-flight commit still completes, but it must not advance the fresh
		// cursor past slot 0.
		if m.epoch == epoch {
			m.nextFlush++
		}
	}
	m.flushing = false
	m.mu.Unlock()
}

func (m *Machine) signalVitals(action vitals.Action) {
	m.trigger.Signal(action)
	if m.events != nil {
		m.events.LogAsync(m.id, eventlog.EventVitalsTriggered, map[string]any{"action": string(action)})
	}
}

func (m *Machine) logPhase(p Phase) {
	m.logEvent(eventlog.EventPhaseChanged, map[string]any{"phase": string(p)})
}

func (m *Machine) logEvent(t eventlog.EventType, data map[string]any) {
	if m.events == nil {
		return
	}
	m.events.LogAsync(m.id, t, data)
}
