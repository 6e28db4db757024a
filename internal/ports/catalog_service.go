package ports

import (
	"context"

	"github.com/Vovarama1992/vidcatalog/internal/models"
)

type CreateChannelInput struct {
	ID    string
	Name  string
	Owner string
}

type AddVideoInput struct {
	ID          string
	Title       string
	Description string
	Duration    int
}

type CatalogService interface {
	CreateChannel(ctx context.Context, in CreateChannelInput) (string, error)
	// ListChannels scans everything when owner is nil.
	ListChannels(ctx context.Context, owner *string) ([]models.Channel, error)
	GetChannel(ctx context.Context, channelID string) (*models.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error

	AddVideo(ctx context.Context, channelID string, in AddVideoInput) (string, error)
	// ListVideos uses the duration access path when minDuration is non-nil.
	ListVideos(ctx context.Context, channelID string, minDuration *int) ([]models.Video, error)
	GetVideo(ctx context.Context, channelID, videoID string) (*models.Video, error)
	DeleteVideo(ctx context.Context, channelID, videoID string) error

	GetViews(ctx context.Context, channelID, videoID string) (int64, error)
	RegisterView(ctx context.Context, channelID, videoID, viewerID string) error
}
