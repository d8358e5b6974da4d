package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
	"github.com/satriahrh/nova/usecase"
)

type stubController struct {
	mu      sync.Mutex
	state   entities.SessionState
	devices entities.DeviceSelection
	starts  int
	stops   int
	events  chan usecase.Event
}

func newStubController() *stubController {
	return &stubController{
		state:  entities.SessionIdle,
		events: make(chan usecase.Event, 8),
	}
}

func (s *stubController) StartListening() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
}

func (s *stubController) StopListening() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *stubController) SetDevices(selection entities.DeviceSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = selection
}

func (s *stubController) State() entities.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stubController) Devices() entities.DeviceSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devices
}

func (s *stubController) Events() <-chan usecase.Event { return s.events }

type stubLister struct {
	devices []repositories.AudioDevice
	err     error
}

func (s stubLister) ListDevices() ([]repositories.AudioDevice, error) {
	return s.devices, s.err
}

func newTestServer(controller SessionController, lister repositories.DeviceLister) *echo.Echo {
	e := echo.New()
	logger := zap.NewNop()
	hub := NewHub(controller, logger)
	InitRoutes(e, hub, controller, lister, logger)
	return e
}

func TestHealthRoute(t *testing.T) {
	e := newTestServer(newStubController(), stubLister{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"nova"`)
}

func TestStateRoute(t *testing.T) {
	controller := newStubController()
	controller.state = entities.SessionListening
	e := newTestServer(controller, stubLister{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"listening"`)
}

func TestListenGestureRoutes(t *testing.T) {
	controller := newStubController()
	e := newTestServer(controller, stubLister{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/listen/start", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/listen/stop", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Equal(t, 1, controller.starts)
	assert.Equal(t, 1, controller.stops)
}

func TestListDevicesRoute(t *testing.T) {
	controller := newStubController()
	controller.devices = entities.DeviceSelection{MicrophoneID: "USB Microphone"}
	e := newTestServer(controller, stubLister{devices: []repositories.AudioDevice{
		{ID: "USB Microphone", Name: "USB Microphone", IsInput: true},
		{ID: "Built-in Output", Name: "Built-in Output", IsOutput: true},
	}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Built-in Output")
	assert.Contains(t, rec.Body.String(), `"microphone_id":"USB Microphone"`)
}

func TestSelectDevicesRoute(t *testing.T) {
	controller := newStubController()
	e := newTestServer(controller, stubLister{})

	body := `{"microphone_id": "USB Microphone", "speaker_id": "Built-in Output"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/devices", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, entities.DeviceSelection{
		MicrophoneID: "USB Microphone",
		SpeakerID:    "Built-in Output",
	}, controller.Devices())
}

func TestSelectDevicesRouteRejectsEmpty(t *testing.T) {
	controller := newStubController()
	e := newTestServer(controller, stubLister{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/devices", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
