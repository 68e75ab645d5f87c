package app

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishbhagirath/smart-interviewer/internal/eventlog"
	"github.com/krishbhagirath/smart-interviewer/internal/httpapi"
	"github.com/krishbhagirath/smart-interviewer/internal/store"
)

type App struct {
	cfg        Config
	logger     *log.Logger
	db         *pgxpool.Pool // nil when no DATABASE_URL is configured
	answers    *store.AnswerLog
	eventLog   *eventlog.Logger
	httpClient *http.Client // Shared HTTP client with connection pooling for provider calls
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	// Session event telemetry is optional; the event logger silently skips
	// writes when it has no pool.
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		db = pool
	}

	// Shared HTTP client with connection pooling for the TTS/STT/LLM
	// providers. Keeps TCP connections alive to reduce latency for
	// repeated narration calls to ElevenLabs.
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		answers:    store.NewAnswerLog(cfg.AnswersFile),
		eventLog:   eventlog.New(db),
		httpClient: httpClient,
	}, nil
}

func (a *App) Router(sessions *httpapi.SessionRegistry) http.Handler {
	routerCfg := httpapi.RouterConfig{
		ElevenLabsAPIKey:   a.cfg.ElevenLabsAPIKey,
		ElevenLabsVoiceID:  a.cfg.ElevenLabsVoiceID,
		GoogleSpeechAPIKey: a.cfg.GoogleSpeechAPIKey,
		GeminiAPIKey:       a.cfg.GeminiAPIKey,
		TTSStability:       a.cfg.TTSStability,
		TTSSimilarity:      a.cfg.TTSSimilarity,
		VitalsDir:          a.cfg.VitalsDir,
		VitalsPollInterval: a.cfg.VitalsPollInterval,
		ProviderHTTPClient: a.httpClient,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.answers, a.eventLog, sessions)
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
