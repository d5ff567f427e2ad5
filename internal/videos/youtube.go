package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/couchsync/backend/internal/models"
)

// DefaultBaseURL is the YouTube Data API v3 endpoint.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrVideoNotFound is returned when the platform knows no video by that id.
var ErrVideoNotFound = errors.New("video not found")

// YouTubeClient fetches video metadata from the YouTube Data API.
type YouTubeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewYouTubeClient creates a metadata client. baseURL is overridable for
// tests; pass "" for the real API.
func NewYouTubeClient(apiKey, baseURL string) *YouTubeClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &YouTubeClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// GetVideo returns metadata for a single video id.
func (c *YouTubeClient) GetVideo(ctx context.Context, videoID string) (*models.VideoMeta, error) {
	u, err := url.Parse(c.baseURL + "/videos")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("id", videoID)
	q.Set("part", "snippet,contentDetails")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube api returned %d", resp.StatusCode)
	}

	var res videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := res.Items[0]
	thumb := item.Snippet.Thumbnails.High.URL
	if thumb == "" {
		thumb = item.Snippet.Thumbnails.Default.URL
	}
	return &models.VideoMeta{
		ID:           item.ID,
		Title:        item.Snippet.Title,
		ChannelTitle: item.Snippet.ChannelTitle,
		ThumbnailURL: thumb,
		Duration:     item.ContentDetails.Duration,
	}, nil
}
