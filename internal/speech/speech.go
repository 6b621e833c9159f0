// Package speech converts between voice messages and text. Transcription
// and synthesis are separate interfaces so a transport can support one
// direction without the other.
package speech

import (
	"context"
	"io"
)

// Transcriber turns recorded audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Synthesizer turns reply text into audio suitable for a voice message
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
