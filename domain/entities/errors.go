package entities

import (
	"errors"
	"fmt"
)

// FaultKind classifies a failure for surfacing and recovery policy. Synthesis
// faults are locally recovered once via the fallback engine; everything else
// is shown to the user while the session keeps running.
type FaultKind string

const (
	FaultCredential  FaultKind = "credential"
	FaultRecognition FaultKind = "recognition_service"
	FaultSynthesis   FaultKind = "synthesis_service"
	FaultReply       FaultKind = "reply_service"
	FaultPersistence FaultKind = "persistence"
	FaultDevice      FaultKind = "device"
)

// Fault wraps an error with its classification.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault classifies err. A nil err yields a nil fault.
func NewFault(kind FaultKind, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Err: err}
}

// Faultf classifies a formatted error.
func Faultf(kind FaultKind, format string, args ...any) error {
	return &Fault{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the classification of err, empty when unclassified.
func KindOf(err error) FaultKind {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind
	}
	return ""
}
