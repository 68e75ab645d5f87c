package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/krishbhagirath/smart-interviewer/internal/session"
	"github.com/krishbhagirath/smart-interviewer/internal/transcript"
	"github.com/krishbhagirath/smart-interviewer/internal/vitals"
)

// interviewSession bundles one session's machine with the audio plumbing the
// media WebSocket attaches to.
type interviewSession struct {
	machine  *session.Machine
	queue    *session.PlaybackQueue
	recorder *session.Recorder
	poller   *vitals.Poller

	mu       sync.Mutex
	media    *wsMedia // active media stream, nil when detached
	touched  time.Time
}

func (s *interviewSession) touch() {
	s.mu.Lock()
	s.touched = time.Now()
	s.mu.Unlock()
}

func (s *interviewSession) lastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *interviewSession) attachMedia(m *wsMedia) {
	s.mu.Lock()
	old := s.media
	s.media = m
	s.mu.Unlock()
	if old != nil {
		old.close()
	}
	s.queue.SetSink(m)
	s.recorder.Bind()
}

func (s *interviewSession) detachMedia(m *wsMedia) {
	s.mu.Lock()
	if s.media != m {
		s.mu.Unlock()
		return
	}
	s.media = nil
	s.mu.Unlock()
	s.queue.SetSink(nil)
	s.recorder.Unbind()
}

// pushStatus forwards a machine status update over the media stream, if one
// is attached.
func (s *interviewSession) pushStatus(st session.Status) {
	s.mu.Lock()
	media := s.media
	s.mu.Unlock()
	if media != nil {
		media.sendStatus(st)
	}
}

type createSessionRequest struct {
	InterviewType   string `json:"interviewType"`
	ExperienceLevel string `json:"experienceLevel"`
	Role            string `json:"role,omitempty"`
}

func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if body.InterviewType == "" || body.ExperienceLevel == "" {
		http.Error(w, `{"error": "interviewType and experienceLevel are required"}`, http.StatusBadRequest)
		return
	}

	id := uuid.NewString()

	is := &interviewSession{touched: time.Now()}
	is.queue = session.NewPlaybackQueue(r.ttsClient, r.logger)
	is.recorder = session.NewRecorder(is.queue.Speaking, r.logger)
	is.poller = vitals.NewPoller(r.vitalsReader, r.cfg.VitalsPollInterval, r.logger)

	machine, err := session.NewMachine(session.Config{
		SessionID: id,
		Setup: session.Setup{
			InterviewType:   body.InterviewType,
			ExperienceLevel: body.ExperienceLevel,
			Role:            body.Role,
		},
		Narrator:    is.queue,
		Recorder:    is.recorder,
		Transcriber: transcript.New(r.sttClient, r.answers, r.eventLog, r.logger),
		Feedback:    r.coach,
		Trigger:     r.trigger,
		Vitals:      is.poller,
		Events:      r.eventLog,
		Logger:      r.logger,
		OnStatus:    is.pushStatus,
	})
	if err != nil {
		captureError(req, err, "session: construction failed")
		http.Error(w, `{"error": "could not create session"}`, http.StatusInternalServerError)
		return
	}
	is.machine = machine

	if !r.sessions.Add(id, is) {
		http.Error(w, `{"error": "server is shutting down"}`, http.StatusServiceUnavailable)
		return
	}

	r.logger.Printf("session %s: created (%s / %s)", id, body.InterviewType, body.ExperienceLevel)
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": id,
		"status":    machine.Status(),
	})
}

func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) {
	is := r.lookup(w, req)
	if is == nil {
		return
	}
	writeJSON(w, http.StatusOK, is.machine.Status())
}

func (r *Router) handleConfirmStart(w http.ResponseWriter, req *http.Request) {
	r.transition(w, req, func(is *interviewSession) error {
		return is.machine.ConfirmStart()
	})
}

func (r *Router) handleConfirmReady(w http.ResponseWriter, req *http.Request) {
	r.transition(w, req, func(is *interviewSession) error {
		return is.machine.ConfirmReady()
	})
}

func (r *Router) handleSubmitAnswer(w http.ResponseWriter, req *http.Request) {
	r.transition(w, req, func(is *interviewSession) error {
		return is.machine.SubmitAnswer()
	})
}

func (r *Router) handleExit(w http.ResponseWriter, req *http.Request) {
	is := r.lookup(w, req)
	if is == nil {
		return
	}
	is.touch()
	is.machine.Exit()
	writeJSON(w, http.StatusOK, is.machine.Status())
}

func (r *Router) transition(w http.ResponseWriter, req *http.Request, fn func(*interviewSession) error) {
	is := r.lookup(w, req)
	if is == nil {
		return
	}
	is.touch()

	if err := fn(is); err != nil {
		switch {
		case errors.Is(err, session.ErrSubmitInFlight):
			http.Error(w, `{"error": "answer already submitted"}`, http.StatusConflict)
		case errors.Is(err, session.ErrInvalidTransition):
			http.Error(w, `{"error": "invalid phase transition"}`, http.StatusConflict)
		default:
			captureError(req, err, "session: transition failed")
			http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, is.machine.Status())
}

func (r *Router) lookup(w http.ResponseWriter, req *http.Request) *interviewSession {
	id := req.PathValue("id")
	if id == "" {
		http.Error(w, `{"error": "missing session id"}`, http.StatusBadRequest)
		return nil
	}
	is := r.sessions.Get(id)
	if is == nil {
		http.Error(w, `{"error": "session not found"}`, http.StatusNotFound)
		return nil
	}
	return is
}
