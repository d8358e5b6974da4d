package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/satriahrh/nova/domain/entities"
)

const (
	defaultListenAddr  = "127.0.0.1:8321"
	defaultContextPath = "logs/conversation.json"
	defaultLanguage    = "en-US"
)

// Config holds the daemon settings. Values come from the process environment
// with a local .env override file taking precedence, so a directory-specific
// key beats whatever the shell exported.
type Config struct {
	// AI service credentials
	GeminiAPIKey    string
	GeminiProjectID string

	// Synthesis credentials. Empty means the offline engine serves alone.
	ElevenLabsAPIKey string

	// Control surface bind address, loopback by default.
	ListenAddr string

	// Persisted conversation file, working-directory-relative.
	ContextPath string

	// Initial device selection; empty picks host defaults.
	MicrophoneID string
	SpeakerID    string

	// Recognition language code.
	Language string
}

// Load resolves the configuration. The .env file is read explicitly rather
// than injected into the process environment, keeping the precedence order
// visible.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiProjectID:  os.Getenv("GEMINI_PROJECT_ID"),
		ElevenLabsAPIKey: os.Getenv("ELEVEN_LABS_API_KEY"),
		ListenAddr:       os.Getenv("NOVA_LISTEN_ADDR"),
		ContextPath:      os.Getenv("NOVA_CONTEXT_PATH"),
		MicrophoneID:     os.Getenv("NOVA_MICROPHONE"),
		SpeakerID:        os.Getenv("NOVA_SPEAKER"),
		Language:         os.Getenv("NOVA_LANGUAGE"),
	}

	if overrides, err := godotenv.Read(".env"); err == nil {
		cfg.apply(overrides)
	}

	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) apply(values map[string]string) {
	set := func(dst *string, key string) {
		if v, ok := values[key]; ok && v != "" {
			*dst = v
		}
	}
	set(&c.GeminiAPIKey, "GEMINI_API_KEY")
	set(&c.GeminiProjectID, "GEMINI_PROJECT_ID")
	set(&c.ElevenLabsAPIKey, "ELEVEN_LABS_API_KEY")
	set(&c.ListenAddr, "NOVA_LISTEN_ADDR")
	set(&c.ContextPath, "NOVA_CONTEXT_PATH")
	set(&c.MicrophoneID, "NOVA_MICROPHONE")
	set(&c.SpeakerID, "NOVA_SPEAKER")
	set(&c.Language, "NOVA_LANGUAGE")
}

func (c *Config) fillDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.ContextPath == "" {
		c.ContextPath = defaultContextPath
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
}

// Validate checks that the required credentials are present.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return entities.Faultf(entities.FaultCredential, "GEMINI_API_KEY is not set")
	}
	return nil
}

// Devices returns the configured initial device selection.
func (c *Config) Devices() entities.DeviceSelection {
	return entities.DeviceSelection{
		MicrophoneID: c.MicrophoneID,
		SpeakerID:    c.SpeakerID,
	}
}
