package domain

import (
	"context"
	"math"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/Vovarama1992/vidcatalog/pkg/apperrors"
)

const (
	msgChannelFields   = "Missing required fields: id, name, or owner"
	msgChannelExists   = "Channel with this ID already exists"
	msgChannelNotFound = "Channel not found"
	msgInvalidOwner    = "Invalid input, owner must be a string or not provided"
	msgVideoFields     = "Missing required fields: id, title, description, or duration"
	msgVideoExists     = "Video with this ID already exists"
	msgVideoNotFound   = "Video not found"
	msgNoVideos        = "No videos found for this channel."
	msgInvalidMinDur   = "Invalid input, minDuration must be a non-negative integer"
	msgDurationRange   = "Invalid input, duration must not exceed 2147483647 seconds"
)

type catalogService struct {
	channels ports.ChannelRepository
	videos   ports.VideoRepository
	views    ports.ViewCounter
	events   ports.EventPublisher
	log      *logger.ZapLogger
	now      func() time.Time
}

func NewCatalogService(
	channels ports.ChannelRepository,
	videos ports.VideoRepository,
	views ports.ViewCounter,
	events ports.EventPublisher,
	log *logger.ZapLogger,
) ports.CatalogService {
	if events == nil {
		events = NopPublisher{}
	}
	return &catalogService{
		channels: channels,
		videos:   videos,
		views:    views,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// ================================================================
// CHANNELS
// ================================================================

func (s *catalogService) CreateChannel(ctx context.Context, in ports.CreateChannelInput) (string, error) {
	if in.ID == "" || in.Name == "" || in.Owner == "" {
		return "", apperrors.Validation(msgChannelFields)
	}

	ch := &models.Channel{ID: in.ID, Name: in.Name, Owner: in.Owner}

	exists, err := s.channels.ChannelExists(ctx, ch.Key())
	if err != nil {
		return "", apperrors.Store(err, "check channel")
	}
	if exists {
		return "", apperrors.Conflict(msgChannelExists)
	}

	// the read above is advisory; a concurrent creator can still win here
	applied, err := s.channels.InsertChannel(ctx, ch)
	if err != nil {
		return "", apperrors.Store(err, "insert channel")
	}
	if !applied {
		s.info("channel insert lost race", map[string]any{"channelID": ch.ID})
		return "", apperrors.Conflict(msgChannelExists)
	}

	s.publish(ctx, models.Event{Type: models.EventChannelCreated, ChannelID: ch.ID})
	return ch.ID, nil
}

func (s *catalogService) ListChannels(ctx context.Context, owner *string) ([]models.Channel, error) {
	var (
		list []models.Channel
		err  error
	)

	if owner != nil {
		if !validOwner(*owner) {
			return nil, apperrors.Validation(msgInvalidOwner)
		}
		list, err = s.channels.ListChannelsByOwner(ctx, *owner)
	} else {
		list, err = s.channels.ListChannels(ctx)
	}
	if err != nil {
		return nil, apperrors.Store(err, "list channels")
	}

	if len(list) == 0 {
		return nil, apperrors.NotFound(msgChannelNotFound)
	}
	return list, nil
}

func (s *catalogService) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	ch, err := s.channels.GetChannel(ctx, keys.Channel(channelID))
	if err != nil {
		return nil, apperrors.Store(err, "get channel")
	}
	if ch == nil {
		return nil, apperrors.NotFound(msgChannelNotFound)
	}
	return ch, nil
}

func (s *catalogService) DeleteChannel(ctx context.Context, channelID string) error {
	ck := keys.Channel(channelID)

	exists, err := s.channels.ChannelExists(ctx, ck)
	if err != nil {
		return apperrors.Store(err, "check channel")
	}
	if !exists {
		return apperrors.NotFound(msgChannelNotFound)
	}

	return s.deleteChannelSaga(ctx, ck)
}

// deleteChannelSaga removes the channel row and then the channel's videos.
// The two writes are independent: if the second fails the videos stay behind
// as orphans and nothing is rolled back or retried.
func (s *catalogService) deleteChannelSaga(ctx context.Context, ck keys.ChannelKey) error {
	if err := s.channels.DeleteChannel(ctx, ck); err != nil {
		return apperrors.Store(err, "delete channel")
	}
	s.publish(ctx, models.Event{Type: models.EventChannelDeleted, ChannelID: ck.ID()})

	if err := s.videos.DeleteVideosByChannel(ctx, ck); err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "cascade delete incomplete, videos orphaned",
			Fields:  map[string]any{"channelID": ck.ID()},
			Error:   err,
		})
		return apperrors.Store(err, "delete channel videos")
	}

	s.info("channel deleted", map[string]any{"channelID": ck.ID()})
	return nil
}

// ================================================================
// VIDEOS
// ================================================================

func (s *catalogService) AddVideo(ctx context.Context, channelID string, in ports.AddVideoInput) (string, error) {
	if in.ID == "" || in.Title == "" || in.Description == "" || in.Duration <= 0 {
		return "", apperrors.Validation(msgVideoFields)
	}
	// duration columns are 32-bit in every backend
	if in.Duration > math.MaxInt32 {
		return "", apperrors.Validation(msgDurationRange)
	}

	v := &models.Video{
		ID:          in.ID,
		ChannelID:   channelID,
		Title:       in.Title,
		Description: in.Description,
		Duration:    in.Duration,
	}

	exists, err := s.videos.VideoExists(ctx, v.ChannelKey(), v.Key())
	if err != nil {
		return "", apperrors.Store(err, "check video")
	}
	if exists {
		return "", apperrors.Conflict(msgVideoExists)
	}

	applied, err := s.videos.InsertVideo(ctx, v)
	if err != nil {
		return "", apperrors.Store(err, "insert video")
	}
	if !applied {
		s.info("video insert lost race", map[string]any{"channelID": channelID, "videoID": v.ID})
		return "", apperrors.Conflict(msgVideoExists)
	}

	s.publish(ctx, models.Event{Type: models.EventVideoAdded, ChannelID: channelID, VideoID: v.ID})
	return v.ID, nil
}

func (s *catalogService) ListVideos(ctx context.Context, channelID string, minDuration *int) ([]models.Video, error) {
	ck := keys.Channel(channelID)

	var (
		list []models.Video
		err  error
	)

	if minDuration != nil {
		if *minDuration < 0 || *minDuration > math.MaxInt32 {
			return nil, apperrors.Validation(msgInvalidMinDur)
		}
		list, err = s.videos.ListVideosByMinDuration(ctx, ck, *minDuration)
	} else {
		list, err = s.videos.ListVideos(ctx, ck)
	}
	if err != nil {
		return nil, apperrors.Store(err, "list videos")
	}

	if len(list) == 0 {
		return nil, apperrors.NotFound(msgNoVideos)
	}
	return list, nil
}

func (s *catalogService) GetVideo(ctx context.Context, channelID, videoID string) (*models.Video, error) {
	v, err := s.videos.GetVideo(ctx, keys.Channel(channelID), keys.Video(videoID))
	if err != nil {
		return nil, apperrors.Store(err, "get video")
	}
	if v == nil {
		return nil, apperrors.NotFound(msgVideoNotFound)
	}
	return v, nil
}

func (s *catalogService) DeleteVideo(ctx context.Context, channelID, videoID string) error {
	ck, vk := keys.Channel(channelID), keys.Video(videoID)

	exists, err := s.videos.VideoExists(ctx, ck, vk)
	if err != nil {
		return apperrors.Store(err, "check video")
	}
	if !exists {
		return apperrors.NotFound(msgVideoNotFound)
	}

	if err := s.videos.DeleteVideo(ctx, ck, vk); err != nil {
		return apperrors.Store(err, "delete video")
	}

	s.publish(ctx, models.Event{Type: models.EventVideoDeleted, ChannelID: channelID, VideoID: videoID})
	return nil
}

// ================================================================
// VIEWS
// ================================================================

// GetViews does not look at the video row; an absent counter reads as zero.
func (s *catalogService) GetViews(ctx context.Context, channelID, videoID string) (int64, error) {
	n, err := s.views.GetViews(ctx, keys.Channel(channelID), keys.Video(videoID))
	if err != nil {
		return 0, apperrors.Store(err, "get views")
	}
	return n, nil
}

// RegisterView counts every call. viewerID is only carried into the event.
func (s *catalogService) RegisterView(ctx context.Context, channelID, videoID, viewerID string) error {
	if err := s.views.IncrementViews(ctx, keys.Channel(channelID), keys.Video(videoID)); err != nil {
		return apperrors.Store(err, "register view")
	}

	s.publish(ctx, models.Event{
		Type:      models.EventViewRegistered,
		ChannelID: channelID,
		VideoID:   videoID,
		ViewerID:  viewerID,
	})
	return nil
}

// ================================================================
// helpers
// ================================================================

func (s *catalogService) publish(ctx context.Context, ev models.Event) {
	ev.At = s.now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "event publish failed",
			Fields:  map[string]any{"type": string(ev.Type), "channelID": ev.ChannelID, "videoID": ev.VideoID},
			Error:   err,
		})
	}
}

func (s *catalogService) info(msg string, fields map[string]any) {
	s.log.Log(logger.LogEntry{Level: "info", Message: msg, Fields: fields})
}
