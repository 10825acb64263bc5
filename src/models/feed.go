package models

// Feed message types pushed to websocket subscribers.
const (
	FeedInitial = "INITIAL"
	FeedInsert  = "INSERT"
	FeedDelete  = "DELETE"
)

// MFeedMessage is one event on the live readings feed.
type MFeedMessage struct {
	Type      string         `json:"type"`
	Reading   map[string]any `json:"reading,omitempty"`
	ID        int64          `json:"id,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// MSubscribeCommand narrows the fields a websocket client receives.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Fields  []string `json:"fields"`
}
