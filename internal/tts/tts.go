package tts

import "context"

// Client defines the interface for text-to-speech providers.
type Client interface {
	// Synthesize converts narration text to audio bytes (audio/mpeg).
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
