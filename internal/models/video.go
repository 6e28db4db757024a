package models

import "github.com/Vovarama1992/vidcatalog/internal/keys"

type Video struct {
	ID          string `db:"id"`
	ChannelID   string `db:"channel_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Duration    int    `db:"duration"` // seconds
}

func (v Video) Key() keys.VideoKey {
	return keys.Video(v.ID)
}

func (v Video) ChannelKey() keys.ChannelKey {
	return keys.Channel(v.ChannelID)
}
