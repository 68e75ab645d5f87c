package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string // optional; session event telemetry is skipped without it
	SentryDSN   string
	LogLevel    string

	// Voice AI providers
	ElevenLabsAPIKey   string
	ElevenLabsVoiceID  string
	GoogleSpeechAPIKey string
	GeminiAPIKey       string

	// TTS voice settings
	TTSStability  float64
	TTSSimilarity float64

	// Biometric sensor integration
	VitalsDir          string
	VitalsPollInterval time.Duration

	// Persisted answer log
	AnswersFile string

	// Idle session cleanup
	SessionReapInterval time.Duration
	SessionMaxIdle      time.Duration
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		SentryDSN:   getenv("SENTRY_DSN", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		// Voice AI providers
		ElevenLabsAPIKey:   getenv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:  getenv("ELEVENLABS_VOICE_ID", ""),
		GoogleSpeechAPIKey: getenv("GC_TRANSCRIBE_API", ""),
		GeminiAPIKey:       getenv("GEMINI_API_KEY", ""),

		// TTS voice settings (-1 means provider default)
		TTSStability:  getenvFloat("TTS_STABILITY", -1),
		TTSSimilarity: getenvFloat("TTS_SIMILARITY", -1),

		// Biometric sensor integration
		VitalsDir:          getenv("VITALS_DIR", "presage_quickstart"),
		VitalsPollInterval: getenvDuration("VITALS_POLL_INTERVAL", 500*time.Millisecond),

		// Persisted answer log
		AnswersFile: getenv("ANSWERS_FILE", "interview_answers.json"),

		// Idle session cleanup
		SessionReapInterval: getenvDuration("SESSION_REAP_INTERVAL", 1*time.Minute),
		SessionMaxIdle:      getenvDuration("SESSION_MAX_IDLE", 30*time.Minute),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
