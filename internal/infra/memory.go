package infra

import (
	"context"
	"sort"
	"sync"

	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
)

// Operation names accepted by MemoryStore.FailNext.
const (
	OpChannelExists         = "ChannelExists"
	OpInsertChannel         = "InsertChannel"
	OpGetChannel            = "GetChannel"
	OpListChannels          = "ListChannels"
	OpDeleteChannel         = "DeleteChannel"
	OpVideoExists           = "VideoExists"
	OpInsertVideo           = "InsertVideo"
	OpGetVideo              = "GetVideo"
	OpListVideos            = "ListVideos"
	OpDeleteVideo           = "DeleteVideo"
	OpDeleteVideosByChannel = "DeleteVideosByChannel"
	OpGetViews              = "GetViews"
	OpIncrementViews        = "IncrementViews"
)

type memVideoKey struct {
	channel string
	video   string
}

// MemoryStore keeps every table in maps keyed by the stored (namespaced) key.
type MemoryStore struct {
	mu       sync.RWMutex
	channels map[string]models.Channel
	videos   map[string]map[string]models.Video // channel key -> video key -> row
	views    map[memVideoKey]int64

	failures map[string]error
}

var _ ports.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		channels: make(map[string]models.Channel),
		videos:   make(map[string]map[string]models.Video),
		views:    make(map[memVideoKey]int64),
		failures: make(map[string]error),
	}
}

// FailNext makes the next call of op return err.
func (m *MemoryStore) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// takeFailure must be called with m.mu held for writing.
func (m *MemoryStore) takeFailure(op string) error {
	err, ok := m.failures[op]
	if !ok {
		return nil
	}
	delete(m.failures, op)
	return err
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// ---------------------------------------------------------------- channels

func (m *MemoryStore) ChannelExists(_ context.Context, ck keys.ChannelKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpChannelExists); err != nil {
		return false, err
	}
	_, ok := m.channels[ck.Stored()]
	return ok, nil
}

func (m *MemoryStore) InsertChannel(_ context.Context, ch *models.Channel) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpInsertChannel); err != nil {
		return false, err
	}
	k := ch.Key().Stored()
	if _, ok := m.channels[k]; ok {
		return false, nil
	}
	m.channels[k] = *ch
	return true, nil
}

func (m *MemoryStore) GetChannel(_ context.Context, ck keys.ChannelKey) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpGetChannel); err != nil {
		return nil, err
	}
	ch, ok := m.channels[ck.Stored()]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (m *MemoryStore) ListChannels(_ context.Context) ([]models.Channel, error) {
	return m.listChannels(func(models.Channel) bool { return true })
}

func (m *MemoryStore) ListChannelsByOwner(_ context.Context, owner string) ([]models.Channel, error) {
	return m.listChannels(func(ch models.Channel) bool { return ch.Owner == owner })
}

func (m *MemoryStore) listChannels(keep func(models.Channel) bool) ([]models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpListChannels); err != nil {
		return nil, err
	}
	var out []models.Channel
	for _, ch := range m.channels {
		if keep(ch) {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) DeleteChannel(_ context.Context, ck keys.ChannelKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpDeleteChannel); err != nil {
		return err
	}
	delete(m.channels, ck.Stored())
	return nil
}

// ---------------------------------------------------------------- videos

func (m *MemoryStore) VideoExists(_ context.Context, ck keys.ChannelKey, vk keys.VideoKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpVideoExists); err != nil {
		return false, err
	}
	_, ok := m.videos[ck.Stored()][vk.Stored()]
	return ok, nil
}

func (m *MemoryStore) InsertVideo(_ context.Context, v *models.Video) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpInsertVideo); err != nil {
		return false, err
	}
	part, ok := m.videos[v.ChannelKey().Stored()]
	if !ok {
		part = make(map[string]models.Video)
		m.videos[v.ChannelKey().Stored()] = part
	}
	if _, ok := part[v.Key().Stored()]; ok {
		return false, nil
	}
	part[v.Key().Stored()] = *v
	return true, nil
}

func (m *MemoryStore) GetVideo(_ context.Context, ck keys.ChannelKey, vk keys.VideoKey) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpGetVideo); err != nil {
		return nil, err
	}
	v, ok := m.videos[ck.Stored()][vk.Stored()]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *MemoryStore) ListVideos(_ context.Context, ck keys.ChannelKey) ([]models.Video, error) {
	out, err := m.listVideos(ck, func(models.Video) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListVideosByMinDuration orders by duration like the videos_by_duration view.
func (m *MemoryStore) ListVideosByMinDuration(_ context.Context, ck keys.ChannelKey, minDuration int) ([]models.Video, error) {
	out, err := m.listVideos(ck, func(v models.Video) bool { return v.Duration >= minDuration })
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration < out[j].Duration
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) listVideos(ck keys.ChannelKey, keep func(models.Video) bool) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpListVideos); err != nil {
		return nil, err
	}
	var out []models.Video
	for _, v := range m.videos[ck.Stored()] {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteVideo(_ context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpDeleteVideo); err != nil {
		return err
	}
	delete(m.videos[ck.Stored()], vk.Stored())
	return nil
}

func (m *MemoryStore) DeleteVideosByChannel(_ context.Context, ck keys.ChannelKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpDeleteVideosByChannel); err != nil {
		return err
	}
	delete(m.videos, ck.Stored())
	return nil
}

// ---------------------------------------------------------------- views

func (m *MemoryStore) GetViews(_ context.Context, ck keys.ChannelKey, vk keys.VideoKey) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpGetViews); err != nil {
		return 0, err
	}
	return m.views[memVideoKey{ck.Stored(), vk.Stored()}], nil
}

func (m *MemoryStore) IncrementViews(_ context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpIncrementViews); err != nil {
		return err
	}
	m.views[memVideoKey{ck.Stored(), vk.Stored()}]++
	return nil
}
