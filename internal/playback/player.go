package playback

// PlayerHandle is the control surface of an embedded video player. The
// engine is agnostic to the concrete player as long as it honors this
// contract. Registration returns an unsubscribe function so multiple
// engines and tests never clobber a shared callback slot.
type PlayerHandle interface {
	Play() error
	Pause() error
	SeekTo(seconds float64, allowSeekAhead bool) error
	CurrentTime() (float64, error)
	State() (PlayerState, error)
	OnReady(fn func()) (unsubscribe func())
	OnStateChange(fn func(state PlayerState)) (unsubscribe func())
}
