package playback

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reference values from the shipped web client.
const (
	// DefaultTolerance is the drift band, in seconds, below which no
	// corrective seek is issued.
	DefaultTolerance = 0.5
	// DefaultDebounce is the minimum interval between two outbound
	// broadcasts from the same client.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultSettleDelay is how long the player gets to stabilize after a
	// seek before the play/pause state is applied.
	DefaultSettleDelay = 100 * time.Millisecond
)

// Options tunes the engine's reconciliation behavior. Zero values take the
// defaults above.
type Options struct {
	Tolerance   float64
	Debounce    time.Duration
	SettleDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	return o
}

// Config wires an Engine to its collaborators.
type Config struct {
	Player    PlayerHandle
	Transport Transport
	// Channel is the session channel all participants share.
	Channel string
	UserID  string
	VideoID string
	Options Options
	Logger  *zap.Logger

	// Now and After exist for tests; nil means time.Now / time.AfterFunc.
	Now   func() time.Time
	After func(d time.Duration, fn func())
}

// Engine is the per-client playback sync control loop. Every participant
// runs an independent instance; consistency emerges from all instances
// reacting to the same broadcast stream, not from a central arbiter.
//
// Incoming events are hints to reconcile toward, never commands: one
// peer's malfunction cannot corrupt another's local state beyond the
// tolerance-band logic.
type Engine struct {
	player    PlayerHandle
	transport Transport
	channel   string
	userID    string
	videoID   string
	opts      Options
	guard     *Guard
	logger    *zap.Logger

	now   func() time.Time
	after func(d time.Duration, fn func())

	mu          sync.Mutex
	ctx         context.Context
	initialized bool
	visible     bool
	started     bool
	closed      bool

	cancelSub  func()
	unsubReady func()
	unsubState func()
}

// NewEngine creates an engine. Start must be called before it does anything.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Player == nil || cfg.Transport == nil {
		return nil, errors.New("playback: player and transport are required")
	}
	if cfg.Channel == "" || cfg.UserID == "" {
		return nil, errors.New("playback: channel and user id are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	after := cfg.After
	if after == nil {
		after = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return &Engine{
		player:    cfg.Player,
		transport: cfg.Transport,
		channel:   cfg.Channel,
		userID:    cfg.UserID,
		videoID:   cfg.VideoID,
		opts:      cfg.Options.withDefaults(),
		guard:     NewGuard(),
		logger:    logger,
		now:       now,
		after:     after,
		visible:   true,
	}, nil
}

// Guard exposes the engine's sync guard (read-only use in callers/tests).
func (e *Engine) Guard() *Guard { return e.guard }

// Start subscribes to the session channel and registers player callbacks.
// The engine stays gated until the player reports ready.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started || e.closed {
		e.mu.Unlock()
		return errors.New("playback: engine already started or closed")
	}
	e.started = true
	e.ctx = ctx
	e.mu.Unlock()

	cancel, err := e.transport.Subscribe(ctx, e.channel, e.handleTransportEvent)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.cancelSub = cancel
	e.mu.Unlock()

	e.unsubReady = e.player.OnReady(e.handleReady)
	e.unsubState = e.player.OnStateChange(e.handleLocalState)
	return nil
}

// Close leaves the channel and releases the player callbacks. Terminal:
// the engine cannot be restarted.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancel := e.cancelSub
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if e.unsubReady != nil {
		e.unsubReady()
	}
	if e.unsubState != nil {
		e.unsubState()
	}
}

// SetVisible records tab visibility. Hiding suppresses outbound broadcasts
// (background-tab players report throttled, stale state); becoming visible
// again triggers a state resync request.
func (e *Engine) SetVisible(visible bool) {
	e.mu.Lock()
	was := e.visible
	e.visible = visible
	ctx := e.ctx
	e.mu.Unlock()

	if visible && !was && ctx != nil {
		if err := e.RequestState(ctx); err != nil {
			e.logger.Warn("state request failed", zap.Error(err))
		}
	}
}

// RequestState publishes a request_video_state event. Used on late join and
// on tab refocus, when the local client does not know the current
// authoritative state.
func (e *Engine) RequestState(ctx context.Context) error {
	req := StateRequest{
		VideoID:     e.videoID,
		RequesterID: e.userID,
		Timestamp:   e.now().UnixMilli(),
	}
	return e.transport.Publish(ctx, e.channel, EventRequestVideoState, req)
}

func (e *Engine) handleReady() {
	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()
	// Hold at the gate until a peer broadcast positions the player.
	if err := e.player.Pause(); err != nil {
		e.logger.Debug("pause on ready failed", zap.Error(err))
	}
}

// handleLocalState is the outbound path: local player state changes become
// broadcasts unless a guard suppresses them.
func (e *Engine) handleLocalState(state PlayerState) {
	e.mu.Lock()
	initialized, visible, ctx := e.initialized, e.visible, e.ctx
	e.mu.Unlock()

	if !initialized || ctx == nil {
		return
	}
	if !visible {
		return
	}
	// Buffering and ended are not propagated as sync events.
	if state != StatePlaying && state != StatePaused {
		return
	}
	now := e.now()
	if !e.guard.AllowBroadcast(now, e.opts.Debounce) {
		return
	}
	t, err := e.player.CurrentTime()
	if err != nil {
		return
	}
	evt := Event{
		State:     state,
		Time:      t,
		VideoID:   e.videoID,
		Timestamp: now.UnixMilli(),
		SenderID:  e.userID,
	}
	if err := e.transport.Publish(ctx, e.channel, EventVideoStateChange, evt); err != nil {
		// Best-effort: the next natural state change retries implicitly.
		e.logger.Warn("state broadcast failed", zap.Error(err))
	}
}

func (e *Engine) handleTransportEvent(event string, payload []byte) {
	switch event {
	case EventVideoStateChange:
		var evt Event
		if err := json.Unmarshal(payload, &evt); err != nil {
			e.logger.Debug("malformed state event", zap.Error(err))
			return
		}
		e.applyRemoteState(evt)
	case EventRequestVideoState:
		var req StateRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			e.logger.Debug("malformed state request", zap.Error(err))
			return
		}
		e.answerStateRequest(req)
	}
}

// applyRemoteState is the inbound path: reconcile the local player toward a
// peer-reported state.
func (e *Engine) applyRemoteState(evt Event) {
	// Every client is also a publisher on the channel it subscribes to.
	if evt.SenderID == e.userID {
		return
	}
	e.mu.Lock()
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return
	}

	cur, err := e.player.CurrentTime()
	if err != nil {
		return
	}

	e.guard.BeginReconcile()
	if math.Abs(cur-evt.Time) > e.opts.Tolerance {
		if err := e.player.SeekTo(evt.Time, true); err != nil {
			e.logger.Debug("seek failed", zap.Error(err))
		}
		// Let the player stabilize post-seek before toggling play state,
		// or audio/video glitches and echo broadcasts follow.
		e.after(e.opts.SettleDelay, func() {
			e.applyPlayState(evt.State)
			e.guard.EndReconcile()
		})
		return
	}
	// Within the tolerance band: never micro-seek, just match play state.
	e.applyPlayState(evt.State)
	e.guard.EndReconcile()
}

func (e *Engine) applyPlayState(state PlayerState) {
	var err error
	switch state {
	case StatePlaying:
		err = e.player.Play()
	case StatePaused:
		err = e.player.Pause()
	}
	if err != nil {
		// Ignored at the call site; the next broadcast reconciles again.
		e.logger.Debug("player control failed", zap.Error(err))
	}
}

// answerStateRequest re-broadcasts this client's current state so a late
// joiner or refocused tab can reconcile without waiting for the next
// incidental broadcast.
func (e *Engine) answerStateRequest(req StateRequest) {
	if req.RequesterID == e.userID {
		return
	}
	e.mu.Lock()
	initialized, visible, ctx := e.initialized, e.visible, e.ctx
	e.mu.Unlock()
	if !initialized || !visible || ctx == nil {
		return
	}
	now := e.now()
	if !e.guard.AllowBroadcast(now, e.opts.Debounce) {
		return
	}
	state, err := e.player.State()
	if err != nil {
		return
	}
	if state != StatePlaying {
		state = StatePaused
	}
	t, err := e.player.CurrentTime()
	if err != nil {
		return
	}
	evt := Event{
		State:     state,
		Time:      t,
		VideoID:   e.videoID,
		Timestamp: now.UnixMilli(),
		SenderID:  e.userID,
	}
	if err := e.transport.Publish(ctx, e.channel, EventVideoStateChange, evt); err != nil {
		e.logger.Warn("state reply failed", zap.Error(err))
	}
}
