package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

// DeviceSelectionRequest is the PUT /api/v1/devices payload.
type DeviceSelectionRequest struct {
	MicrophoneID string `json:"microphone_id"`
	SpeakerID    string `json:"speaker_id"`
}

// StateResponse reports the current session state.
type StateResponse struct {
	State string `json:"state"`
}

// DevicesResponse lists host audio devices plus the active selection.
type DevicesResponse struct {
	Devices      []repositories.AudioDevice `json:"devices"`
	MicrophoneID string                     `json:"microphone_id"`
	SpeakerID    string                     `json:"speaker_id"`
}

// ErrorResponse is the common error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// InitRoutes initializes the local control surface
func InitRoutes(e *echo.Echo, hub *Hub, controller SessionController, lister repositories.DeviceLister, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "nova",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/state", func(c echo.Context) error {
		return c.JSON(http.StatusOK, StateResponse{State: string(controller.State())})
	})

	v1.GET("/devices", func(c echo.Context) error {
		return listDevices(c, controller, lister, logger)
	})

	v1.PUT("/devices", func(c echo.Context) error {
		return selectDevices(c, controller, logger)
	})

	v1.POST("/listen/start", func(c echo.Context) error {
		controller.StartListening()
		return c.JSON(http.StatusAccepted, StateResponse{State: string(controller.State())})
	})

	v1.POST("/listen/stop", func(c echo.Context) error {
		controller.StopListening()
		return c.JSON(http.StatusAccepted, StateResponse{State: string(controller.State())})
	})

	// WebSocket event stream for the avatar UI
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, logger)
	})
}

func listDevices(c echo.Context, controller SessionController, lister repositories.DeviceLister, logger *zap.Logger) error {
	devices, err := lister.ListDevices()
	if err != nil {
		logger.Error("Failed to enumerate audio devices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "device_enumeration_failed",
			Message: err.Error(),
		})
	}

	selection := controller.Devices()
	return c.JSON(http.StatusOK, DevicesResponse{
		Devices:      devices,
		MicrophoneID: selection.MicrophoneID,
		SpeakerID:    selection.SpeakerID,
	})
}

func selectDevices(c echo.Context, controller SessionController, logger *zap.Logger) error {
	var req DeviceSelectionRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind device selection request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.MicrophoneID == "" && req.SpeakerID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "microphone_id or speaker_id is required",
		})
	}

	controller.SetDevices(entities.DeviceSelection{
		MicrophoneID: req.MicrophoneID,
		SpeakerID:    req.SpeakerID,
	})
	// Selections apply at the start of the next cycle, never mid-cycle.
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "device selection takes effect next cycle",
	})
}
