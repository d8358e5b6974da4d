package gateway

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/usecase"
)

func TestMessageValidator_Gestures(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name     string
		message  string
		wantType MessageType
	}{
		{
			name:     "listen start",
			message:  `{"type": "listen_start"}`,
			wantType: MessageTypeListenStart,
		},
		{
			name:     "listen stop",
			message:  `{"type": "listen_stop"}`,
			wantType: MessageTypeListenStop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateMessage([]byte(tt.message))
			if err != nil {
				t.Fatalf("ValidateMessage() error = %v", err)
			}
			base, ok := result.(*BaseMessage)
			if !ok {
				t.Fatalf("Expected *BaseMessage, got %T", result)
			}
			if base.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, base.Type)
			}
		})
	}
}

func TestMessageValidator_SetDevices(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "both devices",
			message: `{
				"type": "set_devices",
				"microphone_id": "USB Microphone",
				"speaker_id": "Built-in Output"
			}`,
			wantErr: false,
		},
		{
			name: "microphone only",
			message: `{
				"type": "set_devices",
				"microphone_id": "USB Microphone"
			}`,
			wantErr: false,
		},
		{
			name:    "no devices",
			message: `{"type": "set_devices"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDevicesMessage_Selection(t *testing.T) {
	msg := &SetDevicesMessage{
		MicrophoneID: "mic",
		SpeakerID:    "spk",
	}

	want := entities.DeviceSelection{MicrophoneID: "mic", SpeakerID: "spk"}
	if got := msg.Selection(); got != want {
		t.Errorf("Selection() = %+v, want %+v", got, want)
	}
}

func TestMessageValidator_Ping(t *testing.T) {
	validator := NewMessageValidator()

	message := `{
		"type": "ping",
		"data": "test-ping"
	}`

	result, err := validator.ValidateMessage([]byte(message))
	if err != nil {
		t.Errorf("ValidateMessage() error = %v", err)
	}

	pingMsg, ok := result.(*PingMessage)
	if !ok {
		t.Errorf("Expected *PingMessage, got %T", result)
	}

	if pingMsg.Data != "test-ping" {
		t.Errorf("Expected data 'test-ping', got '%s'", pingMsg.Data)
	}
}

func TestMessageValidator_InvalidJSON(t *testing.T) {
	validator := NewMessageValidator()

	invalidMessages := []string{
		`{invalid json}`,
		`{"type": "set_devices", "microphone_id":}`,
		``,
		`{"type": }`,
	}

	for i, msg := range invalidMessages {
		t.Run(fmt.Sprintf("invalid_json_%d", i), func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(msg))
			if err == nil {
				t.Errorf("Expected error for invalid JSON, got nil")
			}
		})
	}
}

func TestMessageValidator_UnsupportedMessageType(t *testing.T) {
	validator := NewMessageValidator()

	message := `{
		"type": "unsupported_type",
		"data": "some data"
	}`

	_, err := validator.ValidateMessage([]byte(message))
	if err == nil {
		t.Errorf("Expected error for unsupported message type, got nil")
	}
}

func TestCreateEventMessage(t *testing.T) {
	event := usecase.Event{
		Type:  usecase.EventState,
		State: entities.SessionListening,
	}

	msg := CreateEventMessage(event)
	if msg.Type != MessageTypeEvent {
		t.Errorf("Expected type %s, got %s", MessageTypeEvent, msg.Type)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal event message: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal event message: %v", err)
	}
	inner, ok := result["event"].(map[string]interface{})
	if !ok {
		t.Fatalf("Message missing 'event' field: %v", result)
	}
	if inner["state"] != string(entities.SessionListening) {
		t.Errorf("Expected state %s, got %v", entities.SessionListening, inner["state"])
	}

	// Verify timestamp is recent
	timestamp, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		t.Errorf("Invalid timestamp format: %v", err)
	}
	if time.Since(timestamp) > time.Second {
		t.Errorf("Timestamp is not recent: %s", msg.Timestamp)
	}
}

func TestCreatePongMessage(t *testing.T) {
	data := "test-pong-data"
	pongMsg := CreatePongMessage(data)

	if pongMsg.Type != MessageTypePong {
		t.Errorf("Expected type %s, got %s", MessageTypePong, pongMsg.Type)
	}
	if pongMsg.Data != data {
		t.Errorf("Expected data %s, got %s", data, pongMsg.Data)
	}
}
