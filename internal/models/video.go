package models

// VideoMeta is metadata fetched from the external video platform's data API.
// Videos are not stored locally; the platform's id is the only reference.
type VideoMeta struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     string `json:"duration"` // ISO 8601 as reported by the platform
}
