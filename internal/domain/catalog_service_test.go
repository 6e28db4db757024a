package domain_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/domain"
	"github.com/Vovarama1992/vidcatalog/internal/infra"
	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/Vovarama1992/vidcatalog/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// racingStore hides existing rows from the advisory existence checks, as a
// concurrent creator would.
type racingStore struct {
	*infra.MemoryStore
}

func (racingStore) ChannelExists(context.Context, keys.ChannelKey) (bool, error) { return false, nil }

func (racingStore) VideoExists(context.Context, keys.ChannelKey, keys.VideoKey) (bool, error) {
	return false, nil
}

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

func newService(t *testing.T) (ports.CatalogService, *infra.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := infra.NewMemoryStore()
	pub := &recordingPublisher{}
	return domain.NewCatalogService(store, store, store, pub, nopLogger()), store, pub
}

func ptr[T any](v T) *T { return &v }

func seedVideos(t *testing.T, svc ports.CatalogService, channelID string, durations ...int) {
	t.Helper()
	for i, d := range durations {
		_, err := svc.AddVideo(context.Background(), channelID, ports.AddVideoInput{
			ID:          string(rune('a'+i)) + "-video",
			Title:       "Title",
			Description: "Desc",
			Duration:    d,
		})
		require.NoError(t, err)
	}
}

// ================================================================
// channels
// ================================================================

func TestCreateChannel_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)

	id, err := svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "Main", Owner: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	ch, err := svc.GetChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.Channel{ID: "c1", Name: "Main", Owner: "alice"}, *ch)

	assert.Equal(t, []models.EventType{models.EventChannelCreated}, pub.types())
	assert.False(t, pub.events[0].At.IsZero())
}

func TestCreateChannel_IDWithPrefixText(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	id, err := svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "channel#x", Name: "N", Owner: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "channel#x", id)

	list, err := svc.ListChannels(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "channel#x", list[0].ID)

	_, err = svc.GetChannel(ctx, "x")
	assert.True(t, apperrors.IsNotFound(err), "no collision with the plain id")
}

func TestCreateChannel_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		in   ports.CreateChannelInput
	}{
		{"missing id", ports.CreateChannelInput{Name: "n", Owner: "o"}},
		{"missing name", ports.CreateChannelInput{ID: "c", Owner: "o"}},
		{"missing owner", ports.CreateChannelInput{ID: "c", Name: "n"}},
		{"empty", ports.CreateChannelInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, pub := newService(t)

			_, err := svc.CreateChannel(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidInput(err))
			assert.Equal(t, "Missing required fields: id, name, or owner", apperrors.PublicMessage(err))

			all, _ := store.ListChannels(ctx)
			assert.Empty(t, all, "nothing persisted")
			assert.Empty(t, pub.types())
		})
	}
}

func TestCreateChannel_Conflict(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "Original", Owner: "alice"})
	require.NoError(t, err)

	_, err = svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "Replacement", Owner: "bob"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))

	ch, err := svc.GetChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Original", ch.Name, "existing record untouched")
	assert.Equal(t, "alice", ch.Owner)
}

func TestCreateChannel_ConditionalWriteDecidesRace(t *testing.T) {
	ctx := context.Background()
	store := infra.NewMemoryStore()
	_, err := store.InsertChannel(ctx, &models.Channel{ID: "c1", Name: "First", Owner: "alice"})
	require.NoError(t, err)

	svc := domain.NewCatalogService(racingStore{store}, racingStore{store}, store, nil, nopLogger())

	_, err = svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "Second", Owner: "bob"})
	assert.True(t, apperrors.IsAlreadyExists(err))

	_, err = svc.AddVideo(ctx, "c1", ports.AddVideoInput{ID: "v", Title: "t", Description: "d", Duration: 1})
	require.NoError(t, err)
	_, err = svc.AddVideo(ctx, "c1", ports.AddVideoInput{ID: "v", Title: "t2", Description: "d2", Duration: 2})
	assert.True(t, apperrors.IsAlreadyExists(err))
}

func TestCreateChannel_StoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	boom := errors.New("no replicas")

	store.FailNext(infra.OpInsertChannel, boom)

	_, err := svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "n", Owner: "o"})
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreFailure(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Internal server error", apperrors.PublicMessage(err))
}

func TestListChannels(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	for _, in := range []ports.CreateChannelInput{
		{ID: "c2", Name: "Two", Owner: "alice"},
		{ID: "c1", Name: "One", Owner: "alice"},
		{ID: "c3", Name: "Three", Owner: "bob"},
	} {
		_, err := svc.CreateChannel(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.ListChannels(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.ListChannels(ctx, ptr("alice"))
	require.NoError(t, err)
	assert.Equal(t, []models.Channel{
		{ID: "c1", Name: "One", Owner: "alice"},
		{ID: "c2", Name: "Two", Owner: "alice"},
	}, mine)

	_, err = svc.ListChannels(ctx, ptr("carol"))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListChannels_InvalidOwner(t *testing.T) {
	svc, _, _ := newService(t)

	for _, owner := range []string{"", "12345", "٣٤"} {
		_, err := svc.ListChannels(context.Background(), ptr(owner))
		assert.True(t, apperrors.IsInvalidInput(err), "owner %q", owner)
	}
}

func TestListChannels_EmptyIsNotFound(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.ListChannels(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Channel not found", apperrors.PublicMessage(err))
}

func TestGetChannel_NotFound(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.GetChannel(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteChannel_Cascades(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)

	_, err := svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "n", Owner: "o"})
	require.NoError(t, err)
	seedVideos(t, svc, "c1", 60, 120)

	require.NoError(t, svc.DeleteChannel(ctx, "c1"))

	_, err = svc.GetChannel(ctx, "c1")
	assert.True(t, apperrors.IsNotFound(err))
	for _, vid := range []string{"a-video", "b-video"} {
		_, err = svc.GetVideo(ctx, "c1", vid)
		assert.True(t, apperrors.IsNotFound(err), vid)
	}

	assert.Contains(t, pub.types(), models.EventChannelDeleted)
}

func TestDeleteChannel_NotFound(t *testing.T) {
	svc, _, _ := newService(t)

	err := svc.DeleteChannel(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteChannel_PartialFailureLeavesOrphans(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	_, err := svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "n", Owner: "o"})
	require.NoError(t, err)
	seedVideos(t, svc, "c1", 60)

	store.FailNext(infra.OpDeleteVideosByChannel, errors.New("timeout"))

	err = svc.DeleteChannel(ctx, "c1")
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreFailure(err))

	// first step is not compensated
	_, err = svc.GetChannel(ctx, "c1")
	assert.True(t, apperrors.IsNotFound(err))

	v, err := svc.GetVideo(ctx, "c1", "a-video")
	require.NoError(t, err)
	assert.Equal(t, 60, v.Duration)
}

// ================================================================
// videos
// ================================================================

func TestAddVideo(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)

	id, err := svc.AddVideo(ctx, "c1", ports.AddVideoInput{ID: "v1", Title: "T", Description: "D", Duration: 42})
	require.NoError(t, err)
	assert.Equal(t, "v1", id)

	v, err := svc.GetVideo(ctx, "c1", "v1")
	require.NoError(t, err)
	assert.Equal(t, models.Video{ID: "v1", ChannelID: "c1", Title: "T", Description: "D", Duration: 42}, *v)

	_, err = svc.AddVideo(ctx, "c1", ports.AddVideoInput{ID: "v1", Title: "T", Description: "D", Duration: 1})
	assert.True(t, apperrors.IsAlreadyExists(err))

	// same video id under another channel is a different row
	_, err = svc.AddVideo(ctx, "c2", ports.AddVideoInput{ID: "v1", Title: "T", Description: "D", Duration: 1})
	assert.NoError(t, err)

	assert.Equal(t, []models.EventType{models.EventVideoAdded, models.EventVideoAdded}, pub.types())
}

func TestAddVideo_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		in   ports.AddVideoInput
	}{
		{"missing id", ports.AddVideoInput{Title: "t", Description: "d", Duration: 1}},
		{"missing title", ports.AddVideoInput{ID: "v", Description: "d", Duration: 1}},
		{"missing description", ports.AddVideoInput{ID: "v", Title: "t", Duration: 1}},
		{"zero duration", ports.AddVideoInput{ID: "v", Title: "t", Description: "d"}},
		{"negative duration", ports.AddVideoInput{ID: "v", Title: "t", Description: "d", Duration: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, _ := newService(t)

			_, err := svc.AddVideo(ctx, "c1", tt.in)
			assert.True(t, apperrors.IsInvalidInput(err))

			list, _ := store.ListVideos(ctx, keys.Channel("c1"))
			assert.Empty(t, list)
		})
	}
}

func TestAddVideo_DurationBeyondInt32(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	_, err := svc.AddVideo(ctx, "c1", ports.AddVideoInput{ID: "v1", Title: "t", Description: "d", Duration: math.MaxInt32 + 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, "Invalid input, duration must not exceed 2147483647 seconds", apperrors.PublicMessage(err))

	list, _ := store.ListVideos(ctx, keys.Channel("c1"))
	assert.Empty(t, list)

	_, err = svc.AddVideo(ctx, "c1", ports.AddVideoInput{ID: "v2", Title: "t", Description: "d", Duration: math.MaxInt32})
	assert.NoError(t, err, "the largest 32-bit value is accepted")
}

func TestListVideos_MinDuration(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	seedVideos(t, svc, "c1", 60, 120, 180)

	tests := []struct {
		name        string
		minDuration *int
		wantIDs     []string
	}{
		{"absent", nil, []string{"a-video", "b-video", "c-video"}},
		{"zero is a filter", ptr(0), []string{"a-video", "b-video", "c-video"}},
		{"100", ptr(100), []string{"b-video", "c-video"}},
		{"exact bound", ptr(180), []string{"c-video"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListVideos(ctx, "c1", tt.minDuration)
			require.NoError(t, err)

			var ids []string
			for _, v := range list {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	_, err := svc.ListVideos(ctx, "c1", ptr(1000))
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.ListVideos(ctx, "c1", ptr(-1))
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = svc.ListVideos(ctx, "c1", ptr(math.MaxInt32+1))
	assert.True(t, apperrors.IsInvalidInput(err), "never reaches a 32-bit store column")
}

func TestListVideos_EmptyChannel(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.ListVideos(context.Background(), "nothing", nil)
	require.Error(t, err)
	assert.Equal(t, "No videos found for this channel.", apperrors.PublicMessage(err))
}

func TestDeleteVideo(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	seedVideos(t, svc, "c1", 60)

	require.NoError(t, svc.DeleteVideo(ctx, "c1", "a-video"))

	_, err := svc.GetVideo(ctx, "c1", "a-video")
	assert.True(t, apperrors.IsNotFound(err))

	err = svc.DeleteVideo(ctx, "c1", "a-video")
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, models.EventVideoDeleted, pub.types()[len(pub.types())-1])
}

// ================================================================
// views
// ================================================================

func TestViews(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)

	n, err := svc.GetViews(ctx, "c1", "never-viewed")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, svc.RegisterView(ctx, "c1", "v1", "viewer-1"))
	n, err = svc.GetViews(ctx, "c1", "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// same viewer counts again
	require.NoError(t, svc.RegisterView(ctx, "c1", "v1", "viewer-1"))
	n, err = svc.GetViews(ctx, "c1", "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, pub.events, 2)
	assert.Equal(t, models.EventViewRegistered, pub.events[0].Type)
	assert.Equal(t, "viewer-1", pub.events[0].ViewerID)
}

func TestRegisterView_ConcurrentCommute(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.RegisterView(ctx, "c1", "v1", ""))
		}()
	}
	wg.Wait()

	n, err := svc.GetViews(ctx, "c1", "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)
}

func TestViews_StoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	store.FailNext(infra.OpGetViews, errors.New("read timeout"))
	_, err := svc.GetViews(ctx, "c1", "v1")
	assert.True(t, apperrors.IsStoreFailure(err), "store failures are never reported as zero views")

	store.FailNext(infra.OpIncrementViews, errors.New("write timeout"))
	err = svc.RegisterView(ctx, "c1", "v1", "")
	assert.True(t, apperrors.IsStoreFailure(err))
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	store := infra.NewMemoryStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := domain.NewCatalogService(store, store, store, pub, nopLogger())

	_, err := svc.CreateChannel(ctx, ports.CreateChannelInput{ID: "c1", Name: "n", Owner: "o"})
	require.NoError(t, err)
	assert.Len(t, pub.types(), 1)
}
