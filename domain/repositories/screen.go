package repositories

import "context"

// ScreenReader is the optional external collaborator returning current
// on-screen text. When unavailable the reply path proceeds with empty
// screen text.
type ScreenReader interface {
	Ready() bool
	ScreenText(ctx context.Context) (string, error)
}

// NopScreenReader is the disabled screen collaborator.
type NopScreenReader struct{}

func (NopScreenReader) Ready() bool { return false }

func (NopScreenReader) ScreenText(context.Context) (string, error) { return "", nil }
