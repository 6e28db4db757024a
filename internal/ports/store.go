package ports

import (
	"context"

	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
)

// Lookups return (nil, nil) when the row does not exist.

type ChannelRepository interface {
	ChannelExists(ctx context.Context, channel keys.ChannelKey) (bool, error)
	// InsertChannel writes the row only if the key is free and reports whether
	// the write was applied.
	InsertChannel(ctx context.Context, channel *models.Channel) (bool, error)
	GetChannel(ctx context.Context, channel keys.ChannelKey) (*models.Channel, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)
	ListChannelsByOwner(ctx context.Context, owner string) ([]models.Channel, error)
	DeleteChannel(ctx context.Context, channel keys.ChannelKey) error
}

type VideoRepository interface {
	VideoExists(ctx context.Context, channel keys.ChannelKey, video keys.VideoKey) (bool, error)
	InsertVideo(ctx context.Context, video *models.Video) (bool, error)
	GetVideo(ctx context.Context, channel keys.ChannelKey, video keys.VideoKey) (*models.Video, error)
	ListVideos(ctx context.Context, channel keys.ChannelKey) ([]models.Video, error)
	ListVideosByMinDuration(ctx context.Context, channel keys.ChannelKey, minDuration int) ([]models.Video, error)
	DeleteVideo(ctx context.Context, channel keys.ChannelKey, video keys.VideoKey) error
	DeleteVideosByChannel(ctx context.Context, channel keys.ChannelKey) error
}

// ViewCounter increments must be store-native (increment-or-initialize), never
// read-modify-write.
type ViewCounter interface {
	GetViews(ctx context.Context, channel keys.ChannelKey, video keys.VideoKey) (int64, error)
	IncrementViews(ctx context.Context, channel keys.ChannelKey, video keys.VideoKey) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is a full backend: both repositories, a counter and a health probe.
type Store interface {
	ChannelRepository
	VideoRepository
	ViewCounter
	Pinger
	Close() error
}
