// Package keys builds the namespaced row keys stored for channels and videos.
//
// Callers hold the raw id inside a typed key; the namespace prefix only exists
// in the stored form. Parsing removes exactly one leading prefix, so an id that
// itself contains "channel#" or "video#" survives the round trip unchanged.
package keys

import (
	"fmt"
	"strings"
)

const (
	ChannelPrefix = "channel#"
	VideoPrefix   = "video#"
)

type ChannelKey struct {
	id string
}

type VideoKey struct {
	id string
}

func Channel(id string) ChannelKey { return ChannelKey{id: id} }

func Video(id string) VideoKey { return VideoKey{id: id} }

func (k ChannelKey) ID() string     { return k.id }
func (k ChannelKey) Stored() string { return ChannelPrefix + k.id }
func (k ChannelKey) String() string { return k.Stored() }

func (k VideoKey) ID() string     { return k.id }
func (k VideoKey) Stored() string { return VideoPrefix + k.id }
func (k VideoKey) String() string { return k.Stored() }

// ParseChannel turns a stored channel key back into a ChannelKey.
func ParseChannel(stored string) (ChannelKey, error) {
	id, ok := strings.CutPrefix(stored, ChannelPrefix)
	if !ok {
		return ChannelKey{}, fmt.Errorf("stored key %q has no %q prefix", stored, ChannelPrefix)
	}
	return ChannelKey{id: id}, nil
}

// ParseVideo turns a stored video key back into a VideoKey.
func ParseVideo(stored string) (VideoKey, error) {
	id, ok := strings.CutPrefix(stored, VideoPrefix)
	if !ok {
		return VideoKey{}, fmt.Errorf("stored key %q has no %q prefix", stored, VideoPrefix)
	}
	return VideoKey{id: id}, nil
}
