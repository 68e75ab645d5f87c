package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "DATABASE_URL", "SENTRY_DSN",
		"ELEVENLABS_API_KEY", "GC_TRANSCRIBE_API", "GEMINI_API_KEY",
		"TTS_STABILITY", "TTS_SIMILARITY",
		"VITALS_DIR", "VITALS_POLL_INTERVAL", "ANSWERS_FILE",
		"SESSION_REAP_INTERVAL", "SESSION_MAX_IDLE",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfigFromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.VitalsDir != "presage_quickstart" {
		t.Errorf("VitalsDir = %q", cfg.VitalsDir)
	}
	if cfg.VitalsPollInterval != 500*time.Millisecond {
		t.Errorf("VitalsPollInterval = %v", cfg.VitalsPollInterval)
	}
	if cfg.AnswersFile != "interview_answers.json" {
		t.Errorf("AnswersFile = %q", cfg.AnswersFile)
	}
	if cfg.TTSStability != -1 || cfg.TTSSimilarity != -1 {
		t.Errorf("TTS settings = %v/%v, want -1/-1", cfg.TTSStability, cfg.TTSSimilarity)
	}
	if cfg.SessionReapInterval != time.Minute || cfg.SessionMaxIdle != 30*time.Minute {
		t.Errorf("reaper config = %v/%v", cfg.SessionReapInterval, cfg.SessionMaxIdle)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("GC_TRANSCRIBE_API", "speech-key")
	t.Setenv("TTS_STABILITY", "0.35")
	t.Setenv("VITALS_POLL_INTERVAL", "250ms")
	t.Setenv("SESSION_MAX_IDLE", "10m")

	cfg := LoadConfigFromEnv()
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.GoogleSpeechAPIKey != "speech-key" {
		t.Errorf("GoogleSpeechAPIKey = %q", cfg.GoogleSpeechAPIKey)
	}
	if cfg.TTSStability != 0.35 {
		t.Errorf("TTSStability = %v", cfg.TTSStability)
	}
	if cfg.VitalsPollInterval != 250*time.Millisecond {
		t.Errorf("VitalsPollInterval = %v", cfg.VitalsPollInterval)
	}
	if cfg.SessionMaxIdle != 10*time.Minute {
		t.Errorf("SessionMaxIdle = %v", cfg.SessionMaxIdle)
	}
}

func TestLoadConfigBadValuesFallBack(t *testing.T) {
	t.Setenv("TTS_STABILITY", "not-a-number")
	t.Setenv("VITALS_POLL_INTERVAL", "soon")

	cfg := LoadConfigFromEnv()
	if cfg.TTSStability != -1 {
		t.Errorf("TTSStability = %v, want default on parse failure", cfg.TTSStability)
	}
	if cfg.VitalsPollInterval != 500*time.Millisecond {
		t.Errorf("VitalsPollInterval = %v, want default on parse failure", cfg.VitalsPollInterval)
	}
}
