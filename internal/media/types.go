package media

import "time"

const (
	TypeVideo = "video"
	TypeAudio = "audio"
)

type Asset struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	FileURL string `json:"file_url"`
}

// View is one append-only playback record. MediaID referenced an existing
// asset when the record was written.
type View struct {
	ID         string    `json:"id"`
	MediaID    string    `json:"media_id"`
	ViewedByIP string    `json:"viewed_by_ip"`
	Timestamp  time.Time `json:"timestamp"`
}

type Analytics struct {
	TotalViews  int            `json:"total_views"`
	UniqueIPs   int            `json:"unique_ips"`
	ViewsPerDay map[string]int `json:"views_per_day"`
}

type StreamLink struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}
