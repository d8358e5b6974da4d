package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/usecase"
)

// MessageType defines the type of WebSocket control message
type MessageType string

// Supported message types
const (
	// Inbound gestures from the avatar UI
	MessageTypeListenStart MessageType = "listen_start"
	MessageTypeListenStop  MessageType = "listen_stop"
	MessageTypeSetDevices  MessageType = "set_devices"
	MessageTypePing        MessageType = "ping"

	// Outbound status pushed to the avatar UI
	MessageTypeEvent MessageType = "event"
	MessageTypePong  MessageType = "pong"
	MessageTypeError MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type" validate:"required"`
	Timestamp string      `json:"timestamp"`
}

// SetDevicesMessage selects the microphone and speaker for subsequent cycles
type SetDevicesMessage struct {
	BaseMessage
	MicrophoneID string `json:"microphone_id"`
	SpeakerID    string `json:"speaker_id"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// EventMessage wraps a controller event for the wire
type EventMessage struct {
	BaseMessage
	Event usecase.Event `json:"event"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// MessageValidator provides validation for WebSocket control messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeListenStart, MessageTypeListenStop:
		return &base, nil

	case MessageTypeSetDevices:
		var msg SetDevicesMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid set_devices message: %w", err)
		}
		if msg.MicrophoneID == "" && msg.SpeakerID == "" {
			return nil, fmt.Errorf("set_devices requires microphone_id or speaker_id")
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// Selection converts the message into a device selection.
func (m *SetDevicesMessage) Selection() entities.DeviceSelection {
	return entities.DeviceSelection{
		MicrophoneID: m.MicrophoneID,
		SpeakerID:    m.SpeakerID,
	}
}

// CreateEventMessage wraps a controller event for broadcast
func CreateEventMessage(event usecase.Event) *EventMessage {
	return &EventMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeEvent,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Event: event,
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}
