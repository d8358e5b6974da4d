package entities

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsPauseKeyword(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"stop", true},
		{"Stop", true},
		{"  STOP NOVA  ", true},
		{"bye", true},
		{"Bye Nova", true},
		{"stop it", false},
		{"goodbye", false},
		{"", false},
		{"tell me a story", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsPauseKeyword(tt.text); got != tt.want {
				t.Errorf("IsPauseKeyword(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClosingReplyFamilies(t *testing.T) {
	bye := ClosingReply("Bye Nova")
	if !strings.HasPrefix(bye, "Bye for now!") {
		t.Errorf("Unexpected bye reply: %q", bye)
	}

	stop := ClosingReply("stop")
	if !strings.HasPrefix(stop, "Okay, I'll stay quiet.") {
		t.Errorf("Unexpected stop reply: %q", stop)
	}
}

func TestFaultClassification(t *testing.T) {
	base := errors.New("boom")
	err := NewFault(FaultRecognition, base)

	if KindOf(err) != FaultRecognition {
		t.Errorf("Expected recognition kind, got %q", KindOf(err))
	}
	if !errors.Is(err, base) {
		t.Error("Expected fault to unwrap to the original error")
	}

	wrapped := fmt.Errorf("cycle failed: %w", err)
	if KindOf(wrapped) != FaultRecognition {
		t.Errorf("Expected kind to survive wrapping, got %q", KindOf(wrapped))
	}
}

func TestFaultNilAndUnclassified(t *testing.T) {
	if NewFault(FaultDevice, nil) != nil {
		t.Error("Expected nil fault for nil error")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("Expected empty kind for unclassified error")
	}
	if KindOf(nil) != "" {
		t.Error("Expected empty kind for nil error")
	}
}
