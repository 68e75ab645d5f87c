package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/krishbhagirath/smart-interviewer/internal/eventlog"
	"github.com/krishbhagirath/smart-interviewer/internal/feedback"
	"github.com/krishbhagirath/smart-interviewer/internal/llm"
	"github.com/krishbhagirath/smart-interviewer/internal/report"
	"github.com/krishbhagirath/smart-interviewer/internal/store"
	"github.com/krishbhagirath/smart-interviewer/internal/stt"
	"github.com/krishbhagirath/smart-interviewer/internal/tts"
	"github.com/krishbhagirath/smart-interviewer/internal/vitals"
)

type RouterConfig struct {
	// Voice AI providers
	ElevenLabsAPIKey   string
	ElevenLabsVoiceID  string
	GoogleSpeechAPIKey string
	GeminiAPIKey       string

	// TTS voice settings
	TTSStability  float64 // ElevenLabs voice stability (0.0-1.0, -1 for default)
	TTSSimilarity float64 // ElevenLabs voice similarity boost (0.0-1.0, -1 for default)

	// Biometric sensor integration
	VitalsDir          string // directory the sensor process writes into
	VitalsPollInterval time.Duration

	// Shared HTTP client with connection pooling for provider calls
	ProviderHTTPClient *http.Client
}

type Router struct {
	cfg      RouterConfig
	logger   *log.Logger
	answers  *store.AnswerLog
	eventLog *eventlog.Logger
	sessions *SessionRegistry

	ttsClient    tts.Client
	sttClient    stt.Client
	llmClient    llm.Client
	coach        *feedback.Coach
	vitalsReader *vitals.Reader
	trigger      vitals.Trigger
	reports      *report.Generator

	mux *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, answers *store.AnswerLog, eventLog *eventlog.Logger, sessions *SessionRegistry) http.Handler {
	llmClient := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		HTTPClient: cfg.ProviderHTTPClient,
	})

	r := &Router{
		cfg:      cfg,
		logger:   logger,
		answers:  answers,
		eventLog: eventLog,
		sessions: sessions,
		ttsClient: tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:     cfg.ElevenLabsAPIKey,
			VoiceID:    cfg.ElevenLabsVoiceID,
			Stability:  cfg.TTSStability,
			Similarity: cfg.TTSSimilarity,
			HTTPClient: cfg.ProviderHTTPClient,
		}),
		sttClient: stt.NewGoogleClient(stt.GoogleConfig{
			APIKey:     cfg.GoogleSpeechAPIKey,
			HTTPClient: cfg.ProviderHTTPClient,
		}),
		llmClient:    llmClient,
		coach:        feedback.NewCoach(llmClient, logger),
		vitalsReader: vitals.NewReader(cfg.VitalsDir),
		trigger:      vitals.NewFileTrigger(cfg.VitalsDir, logger),
		reports:      report.NewGenerator(answers, llmClient, cfg.VitalsDir, logger),
		mux:          http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Session lifecycle
	r.mux.HandleFunc("POST /api/sessions", r.handleCreateSession)
	r.mux.HandleFunc("GET /api/sessions/{id}", r.handleGetSession)
	r.mux.HandleFunc("POST /api/sessions/{id}/start", r.handleConfirmStart)
	r.mux.HandleFunc("POST /api/sessions/{id}/ready", r.handleConfirmReady)
	r.mux.HandleFunc("POST /api/sessions/{id}/answer", r.handleSubmitAnswer)
	r.mux.HandleFunc("POST /api/sessions/{id}/exit", r.handleExit)

	// Browser media stream (narration out, microphone in)
	r.mux.HandleFunc("GET /api/sessions/{id}/media", r.handleMediaWS)

	// Biometric sensor
	r.mux.HandleFunc("GET /api/vitals", r.handleGetVitals)

	// Final feedback report
	r.mux.HandleFunc("POST /api/reports", r.handleGenerateReport)
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
