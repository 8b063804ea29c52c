package interview

import "errors"

var (
	// ErrInvalidInput rejects malformed caller input: non-UTF-8 or oversized
	// transcripts, recording entries with required fields missing, empty
	// audio payloads. Handlers map it to HTTP 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionNotFound reports an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoTranscriber rejects audio processing when no speech-to-text
	// client is configured.
	ErrNoTranscriber = errors.New("transcription not configured")
)
