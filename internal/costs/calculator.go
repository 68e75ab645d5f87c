// Package costs provides cost estimation for API usage.
package costs

import (
	"os"
	"strconv"
)

// Pricing constants (in cents per unit for precision).
// These are based on published list prices and can be overridden via
// environment variables.
var (
	// GoogleSTTCentsPerMinute is the cost per minute for Google Cloud
	// Speech-to-Text synchronous recognition.
	// Default: $0.024/min = 2.4 cents/min
	GoogleSTTCentsPerMinute = getEnvFloat("COST_GOOGLE_STT_CENTS_PER_MIN", 2.4)

	// GeminiCentsPerThousandInputTokens is the cost per 1K input tokens for
	// gemini-2.5-flash.
	// Default: $0.30/1M = 0.03 cents/1K tokens
	GeminiCentsPerThousandInputTokens = getEnvFloat("COST_GEMINI_INPUT_CENTS_PER_1K", 0.03)

	// GeminiCentsPerThousandOutputTokens is the cost per 1K output tokens for
	// gemini-2.5-flash.
	// Default: $2.50/1M = 0.25 cents/1K tokens
	GeminiCentsPerThousandOutputTokens = getEnvFloat("COST_GEMINI_OUTPUT_CENTS_PER_1K", 0.25)

	// ElevenLabsCentsPerThousandChars is the cost per 1K characters for
	// ElevenLabs TTS.
	// Default: $0.18/1K chars = 18 cents/1K chars
	ElevenLabsCentsPerThousandChars = getEnvFloat("COST_ELEVENLABS_CENTS_PER_1K_CHARS", 18.0)
)

// SessionMetrics contains the raw usage metrics from an interview session.
type SessionMetrics struct {
	STTDurationSeconds int // Recorded audio sent for transcription
	LLMInputTokens     int // Tokens sent to the LLM (estimated)
	LLMOutputTokens    int // Tokens received from the LLM (estimated)
	TTSCharacters      int // Characters sent to TTS for narration
}

// SessionCosts contains the calculated costs for a session in cents.
type SessionCosts struct {
	STTCostCents   int
	LLMCostCents   int
	TTSCostCents   int
	TotalCostCents int
}

// CalculateSessionCosts computes the estimated cost of a session.
func CalculateSessionCosts(m SessionMetrics) SessionCosts {
	sttMinutes := float64(m.STTDurationSeconds) / 60.0
	sttCents := sttMinutes * GoogleSTTCentsPerMinute

	llmInputCents := (float64(m.LLMInputTokens) / 1000.0) * GeminiCentsPerThousandInputTokens
	llmOutputCents := (float64(m.LLMOutputTokens) / 1000.0) * GeminiCentsPerThousandOutputTokens
	llmCents := llmInputCents + llmOutputCents

	ttsCents := (float64(m.TTSCharacters) / 1000.0) * ElevenLabsCentsPerThousandChars

	costs := SessionCosts{
		STTCostCents: roundToInt(sttCents),
		LLMCostCents: roundToInt(llmCents),
		TTSCostCents: roundToInt(ttsCents),
	}
	costs.TotalCostCents = costs.STTCostCents + costs.LLMCostCents + costs.TTSCostCents

	return costs
}

// roundToInt rounds a float to the nearest integer.
func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
