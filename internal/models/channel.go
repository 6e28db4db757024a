package models

import "github.com/Vovarama1992/vidcatalog/internal/keys"

// Channel ids are raw, caller-facing ids; the stored namespace lives in keys.
type Channel struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Owner string `db:"owner"`
}

func (c Channel) Key() keys.ChannelKey {
	return keys.Channel(c.ID)
}
