package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

// Pause to let playback and the UI settle before the microphone reopens.
const defaultSettleDelay = 350 * time.Millisecond

const defaultLanguage = "en-US"

// Dependencies are the collaborators the controller orchestrates.
type Dependencies struct {
	Capturer    repositories.UtteranceCapturer
	Recognizer  repositories.SpeechRecognizer
	Synthesizer repositories.SpeechSynthesizer
	Player      repositories.AudioPlayer
	Replies     repositories.ReplyGenerator
	Summarizer  repositories.Summarizer
	Store       repositories.ContextStore
	Screen      repositories.ScreenReader
}

// Options tune controller behavior.
type Options struct {
	// SettleDelay is the pause before re-listening after a cycle completes.
	// Zero selects the default; negative disables the delay.
	SettleDelay time.Duration
	Language    string
	Devices     entities.DeviceSelection
}

// ListenController is the interaction state machine. Its run loop is the
// sole owner of SessionState: microphone capture, recognition, reply
// generation, and synthesis all run on background goroutines that report
// typed results back over a channel, and every transition happens here.
type ListenController struct {
	deps        Dependencies
	logger      *zap.Logger
	settleDelay time.Duration
	language    string

	gestures chan gesture
	results  chan any
	events   chan Event

	mu      sync.RWMutex
	state   entities.SessionState
	devices entities.DeviceSelection

	// run-loop-local; never touched outside Run
	pendingDevices *entities.DeviceSelection
	pendingStart   bool
	cycleActive    bool
	cycleCancel    context.CancelFunc
	settleTimer    *time.Timer
}

type gesture int

const (
	gestureStart gesture = iota
	gestureStop
)

type deviceGesture struct {
	selection entities.DeviceSelection
}

// Internal phase results, produced by background goroutines.
type recognitionOutcome struct {
	text string
	err  error
}

type speakingStarted struct{}

type cycleOutcome struct {
	reply string
	err   error
}

type pauseOutcome struct {
	summary entities.Summary
	err     error
}

// NewListenController wires the state machine. Run must be called before any
// gesture has an effect.
func NewListenController(deps Dependencies, opts Options, logger *zap.Logger) *ListenController {
	settle := opts.SettleDelay
	if settle == 0 {
		settle = defaultSettleDelay
	} else if settle < 0 {
		settle = 0
	}
	language := opts.Language
	if language == "" {
		language = defaultLanguage
	}
	if deps.Screen == nil {
		deps.Screen = repositories.NopScreenReader{}
	}

	return &ListenController{
		deps:        deps,
		logger:      logger,
		settleDelay: settle,
		language:    language,
		gestures:    make(chan gesture, 4),
		results:     make(chan any, 8),
		events:      make(chan Event, 64),
		state:       entities.SessionIdle,
		devices:     opts.Devices,
	}
}

// State returns the current session state.
func (c *ListenController) State() entities.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Devices returns the active device selection.
func (c *ListenController) Devices() entities.DeviceSelection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.devices
}

// Events exposes the status stream consumed by the control surface.
func (c *ListenController) Events() <-chan Event {
	return c.events
}

// StartListening is the explicit user gesture enabling the microphone. It
// starts a session from IDLE and resumes from PAUSED; a paused session never
// resumes any other way.
func (c *ListenController) StartListening() {
	select {
	case c.gestures <- gestureStart:
	default:
	}
}

// StopListening suspends the auto-listen loop. An in-flight cycle finishes
// but no new capture starts until StartListening.
func (c *ListenController) StopListening() {
	select {
	case c.gestures <- gestureStop:
	default:
	}
}

// SetDevices updates the device selection. It takes effect at the start of
// the next cycle, never mid-cycle.
func (c *ListenController) SetDevices(selection entities.DeviceSelection) {
	select {
	case c.results <- deviceGesture{selection: selection}:
	default:
	}
}

// Run drives the state machine until ctx is cancelled. It must be the only
// goroutine calling the mutating handlers.
func (c *ListenController) Run(ctx context.Context) error {
	if _, err := c.deps.Store.Load(); err != nil {
		c.surface(err)
	}

	for {
		select {
		case <-ctx.Done():
			if err := c.deps.Store.Flush(); err != nil {
				c.logger.Warn("Final flush failed", zap.Error(err))
			}
			return ctx.Err()

		case g := <-c.gestures:
			c.handleGesture(ctx, g)

		case r := <-c.results:
			c.handleResult(ctx, r)

		case <-c.settleC():
			c.settleTimer = nil
			c.beginCycle(ctx)
		}
	}
}

func (c *ListenController) settleC() <-chan time.Time {
	if c.settleTimer == nil {
		return nil
	}
	return c.settleTimer.C
}

func (c *ListenController) handleGesture(ctx context.Context, g gesture) {
	switch g {
	case gestureStart:
		switch c.State() {
		case entities.SessionIdle, entities.SessionPaused:
			if c.cycleActive {
				// The previous cycle is still finishing; resume once it lands.
				c.pendingStart = true
				return
			}
			c.beginCycle(ctx)
		}
	case gestureStop:
		if c.State() == entities.SessionIdle {
			return
		}
		c.pendingStart = false
		wasListening := c.State() == entities.SessionListening
		c.setState(entities.SessionPaused)
		c.stopSettleTimer()
		// Stop an in-flight capture; processing and speaking are allowed to
		// finish, the paused state just prevents re-listening.
		if wasListening && c.cycleCancel != nil {
			c.cycleCancel()
		}
	}
}

func (c *ListenController) handleResult(ctx context.Context, result any) {
	switch r := result.(type) {
	case deviceGesture:
		c.pendingDevices = &r.selection

	case recognitionOutcome:
		c.handleRecognition(ctx, r)

	case speakingStarted:
		if c.State() == entities.SessionProcessing {
			c.setState(entities.SessionSpeaking)
		}

	case cycleOutcome:
		c.finishCycle(ctx, r)

	case pauseOutcome:
		c.cycleActive = false
		if r.err != nil {
			c.surface(r.err)
		} else if !r.summary.IsZero() {
			c.emit(Event{Type: EventSummary, Text: r.summary.Text})
		}
		c.resumeIfRequested(ctx)
	}
}

// beginCycle opens a new LISTENING phase. Never called while a cycle is in
// flight; the guard enforces the one-cycle-at-a-time contract.
func (c *ListenController) beginCycle(ctx context.Context) {
	if c.cycleActive {
		return
	}
	if c.pendingDevices != nil {
		c.mu.Lock()
		c.devices = *c.pendingDevices
		c.mu.Unlock()
		c.pendingDevices = nil
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	c.cycleCancel = cancel
	c.cycleActive = true
	c.setState(entities.SessionListening)

	devices := c.Devices()
	go c.captureAndRecognize(cycleCtx, devices)
}

func (c *ListenController) captureAndRecognize(ctx context.Context, devices entities.DeviceSelection) {
	utterance, err := c.deps.Capturer.Capture(ctx, devices)
	if err != nil {
		c.results <- recognitionOutcome{err: err}
		return
	}
	if !utterance.SpeechDetected {
		c.results <- recognitionOutcome{}
		return
	}

	text, err := c.deps.Recognizer.Recognize(ctx, utterance.WAV, repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   c.language,
	})
	c.results <- recognitionOutcome{text: strings.TrimSpace(text), err: err}
}

func (c *ListenController) handleRecognition(ctx context.Context, r recognitionOutcome) {
	// The capture goroutine is done; release its context.
	if c.cycleCancel != nil {
		c.cycleCancel()
		c.cycleCancel = nil
	}

	if c.State() == entities.SessionPaused {
		// Stop gesture raced the capture; drop the result.
		c.cycleActive = false
		c.resumeIfRequested(ctx)
		return
	}

	if r.err != nil {
		c.surface(r.err)
		c.cycleActive = false
		c.scheduleRelisten()
		return
	}

	if r.text == "" {
		// Silence; go straight back to listening.
		c.cycleActive = false
		c.scheduleRelisten()
		return
	}

	c.setState(entities.SessionProcessing)
	c.emit(Event{Type: EventRecognized, Text: r.text})

	if entities.IsPauseKeyword(r.text) {
		c.pauseSession(ctx, r.text)
		return
	}

	// Snapshot the history before the new user turn; the generator receives
	// the utterance separately.
	history := c.deps.Store.Turns()
	if err := c.deps.Store.AppendTurn(entities.NewTurn(entities.SpeakerUser, r.text)); err != nil {
		c.surface(err)
	}

	devices := c.Devices()
	go c.replyPipeline(ctx, history, devices, r.text)
}

// pauseSession handles a spoken pause keyword: the session pauses
// immediately, then the summary and the closing reply run in the background.
// No SPEAKING transition occurs for this cycle.
func (c *ListenController) pauseSession(ctx context.Context, keyword string) {
	closing := entities.ClosingReply(keyword)

	if err := c.deps.Store.AppendTurn(entities.NewTurn(entities.SpeakerUser, keyword)); err != nil {
		c.surface(err)
	}
	if err := c.deps.Store.AppendTurn(entities.NewTurn(entities.SpeakerAssistant, closing)); err != nil {
		c.surface(err)
	}

	c.setState(entities.SessionPaused)
	devices := c.Devices()

	go func() {
		summary, err := c.deps.Store.SummarizeAndPersist(ctx, c.deps.Summarizer)
		if err != nil {
			c.results <- pauseOutcome{err: err}
			return
		}

		farewell := closing
		if !summary.IsZero() {
			farewell = closing + "\n\nI'll remember:\n" + summary.Text
		}
		if err := c.speak(ctx, devices, farewell); err != nil {
			c.results <- pauseOutcome{summary: summary, err: err}
			return
		}
		c.results <- pauseOutcome{summary: summary}
	}()
}

// replyPipeline streams the reply and vocalizes it fragment by fragment.
// Runs off the loop goroutine; reports back through results.
func (c *ListenController) replyPipeline(ctx context.Context, history []entities.Turn, devices entities.DeviceSelection, userText string) {
	screenText := c.readScreen(ctx)

	fragments, err := c.deps.Replies.StreamReply(ctx, history, screenText, userText)
	if err != nil {
		c.results <- cycleOutcome{err: err}
		return
	}

	var reply strings.Builder
	started := false
	for fragment := range fragments {
		if fragment.Err != nil {
			c.results <- cycleOutcome{reply: strings.TrimSpace(reply.String()), err: fragment.Err}
			return
		}
		if !started {
			started = true
			c.results <- speakingStarted{}
		}
		if reply.Len() > 0 {
			reply.WriteString(" ")
		}
		reply.WriteString(fragment.Text)

		if err := c.speak(ctx, devices, fragment.Text); err != nil {
			c.results <- cycleOutcome{reply: strings.TrimSpace(reply.String()), err: err}
			return
		}
	}

	c.results <- cycleOutcome{reply: strings.TrimSpace(reply.String())}
}

func (c *ListenController) readScreen(ctx context.Context) string {
	if !c.deps.Screen.Ready() {
		return ""
	}
	text, err := c.deps.Screen.ScreenText(ctx)
	if err != nil {
		c.logger.Warn("Screen text unavailable", zap.Error(err))
		return ""
	}
	return text
}

func (c *ListenController) speak(ctx context.Context, devices entities.DeviceSelection, text string) error {
	synthesis, err := c.deps.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	return c.deps.Player.Play(ctx, devices, synthesis)
}

// finishCycle records the assistant turn and re-arms listening unless the
// session was paused while the cycle ran.
func (c *ListenController) finishCycle(ctx context.Context, outcome cycleOutcome) {
	c.cycleActive = false

	if outcome.err != nil {
		c.surface(outcome.err)
		// The error is part of the conversation record so the next reply
		// can acknowledge it.
		turn := entities.NewTurn(entities.SpeakerAssistant, "[error] "+outcome.err.Error())
		if err := c.deps.Store.AppendTurn(turn); err != nil {
			c.surface(err)
		}
	} else if outcome.reply != "" {
		c.emit(Event{Type: EventReply, Text: outcome.reply})
		if err := c.deps.Store.AppendTurn(entities.NewTurn(entities.SpeakerAssistant, outcome.reply)); err != nil {
			c.surface(err)
		}
	}

	if c.State() == entities.SessionPaused {
		c.resumeIfRequested(ctx)
		return
	}
	c.scheduleRelisten()
}

// resumeIfRequested honors a start gesture that arrived while the previous
// cycle was still finishing.
func (c *ListenController) resumeIfRequested(ctx context.Context) {
	if !c.pendingStart {
		return
	}
	c.pendingStart = false
	c.beginCycle(ctx)
}

func (c *ListenController) stopSettleTimer() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

func (c *ListenController) scheduleRelisten() {
	if c.settleDelay <= 0 {
		// No timer; re-arm on the next loop iteration.
		c.settleTimer = time.NewTimer(0)
		return
	}
	c.settleTimer = time.NewTimer(c.settleDelay)
}

func (c *ListenController) setState(state entities.SessionState) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()

	if changed {
		c.logger.Info("Session state changed", zap.String("state", string(state)))
	}
	// Emitted even when the state is unchanged: re-entering LISTENING after a
	// failed or empty cycle must still be visible to the UI.
	c.emit(Event{Type: EventState, State: state})
}

func (c *ListenController) surface(err error) {
	kind := entities.KindOf(err)
	c.logger.Error("Cycle error surfaced",
		zap.String("kind", string(kind)),
		zap.Error(err))
	c.emit(Event{Type: EventError, Error: err.Error(), Kind: kind})
}

// emit never blocks the run loop; a slow UI drops events rather than
// stalling the session.
func (c *ListenController) emit(event Event) {
	select {
	case c.events <- event:
	default:
		c.logger.Debug("Dropping event for slow consumer", zap.String("type", string(event.Type)))
	}
}
