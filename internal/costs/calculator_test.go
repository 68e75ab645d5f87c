package costs

import "testing"

func TestCalculateSessionCosts(t *testing.T) {
	m := SessionMetrics{
		STTDurationSeconds: 600,    // 10 minutes of answers
		LLMInputTokens:     100000, // 100K tokens
		LLMOutputTokens:    20000,  // 20K tokens
		TTSCharacters:      2000,   // 2K characters of narration
	}

	c := CalculateSessionCosts(m)

	// 10 min * 2.4 cents/min = 24 cents
	if c.STTCostCents != 24 {
		t.Errorf("STTCostCents = %d, want 24", c.STTCostCents)
	}
	// (100 * 0.03) + (20 * 0.25) = 3 + 5 = 8 cents
	if c.LLMCostCents != 8 {
		t.Errorf("LLMCostCents = %d, want 8", c.LLMCostCents)
	}
	// 2 * 18 = 36 cents
	if c.TTSCostCents != 36 {
		t.Errorf("TTSCostCents = %d, want 36", c.TTSCostCents)
	}
	if c.TotalCostCents != 24+8+36 {
		t.Errorf("TotalCostCents = %d, want %d", c.TotalCostCents, 24+8+36)
	}
}

func TestCalculateSessionCostsZero(t *testing.T) {
	c := CalculateSessionCosts(SessionMetrics{})
	if c.TotalCostCents != 0 {
		t.Errorf("TotalCostCents = %d, want 0", c.TotalCostCents)
	}
}

func TestCalculateSessionCostsRounding(t *testing.T) {
	// 30 seconds = 0.5 min * 2.4 = 1.2 cents, rounds to 1.
	c := CalculateSessionCosts(SessionMetrics{STTDurationSeconds: 30})
	if c.STTCostCents != 1 {
		t.Errorf("STTCostCents = %d, want 1", c.STTCostCents)
	}
}

func TestRoundToInt(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{1.49, 1},
		{1.5, 2},
		{-0.5, -1},
	}
	for _, tt := range tests {
		if got := roundToInt(tt.in); got != tt.want {
			t.Errorf("roundToInt(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
