package stt

import "context"

// Client defines the interface for speech-to-text providers.
type Client interface {
	// Recognize transcribes a recorded audio segment. The returned string is
	// empty when the service detected no speech.
	Recognize(ctx context.Context, audio []byte) (string, error)
}
