package playback

// Event names on the session channel.
const (
	// EventVideoStateChange carries a peer's reported play/pause state and
	// time position.
	EventVideoStateChange = "video_state_change"
	// EventRequestVideoState asks already-synced peers to re-broadcast their
	// current state (late join / tab refocus).
	EventRequestVideoState = "request_video_state"
)

// PlayerState is the reported state of a local video player.
type PlayerState string

const (
	StatePlaying   PlayerState = "playing"
	StatePaused    PlayerState = "paused"
	StateBuffering PlayerState = "buffering"
	StateEnded     PlayerState = "ended"
)

// Event is the video_state_change wire payload. Every client emits events
// describing its own local player state; no client owns another's.
type Event struct {
	State     PlayerState `json:"state"`
	Time      float64     `json:"time"`
	VideoID   string      `json:"video_id"`
	Timestamp int64       `json:"timestamp"` // unix milliseconds at the sender
	SenderID  string      `json:"sender_id"`
}

// StateRequest is the request_video_state wire payload.
type StateRequest struct {
	VideoID     string `json:"video_id"`
	RequesterID string `json:"requester_id"`
	Timestamp   int64  `json:"timestamp"`
}
