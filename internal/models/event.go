package models

import "time"

type EventType string

const (
	EventChannelCreated EventType = "channel.created"
	EventChannelDeleted EventType = "channel.deleted"
	EventVideoAdded     EventType = "video.added"
	EventVideoDeleted   EventType = "video.deleted"
	EventViewRegistered EventType = "view.registered"
)

// Event is emitted after a successful catalog write.
type Event struct {
	Type      EventType `json:"type"`
	ChannelID string    `json:"channel_id"`
	VideoID   string    `json:"video_id,omitempty"`
	ViewerID  string    `json:"viewer_id,omitempty"`
	At        time.Time `json:"at"`
}
