package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/gocql/gocql"
)

type CassandraOptions struct {
	Hosts          []string
	Keyspace       string
	Consistency    string
	Username       string
	Password       string
	NumConns       int
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

func NewCassandraSession(opts CassandraOptions) (*gocql.Session, error) {
	cluster := gocql.NewCluster(opts.Hosts...)
	cluster.Keyspace = opts.Keyspace

	if opts.Consistency != "" {
		c, err := gocql.ParseConsistencyWrapper(opts.Consistency)
		if err != nil {
			return nil, fmt.Errorf("cassandra consistency: %w", err)
		}
		cluster.Consistency = c
	}
	if opts.NumConns > 0 {
		cluster.NumConns = opts.NumConns
	}
	if opts.Timeout > 0 {
		cluster.Timeout = opts.Timeout
	}
	if opts.ConnectTimeout > 0 {
		cluster.ConnectTimeout = opts.ConnectTimeout
	}
	if opts.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cassandra session: %w", err)
	}
	return session, nil
}

// CassandraStore serves the channels/videos tables, their materialized views
// and the video_views counter table.
type CassandraStore struct {
	session *gocql.Session
}

var _ ports.Store = (*CassandraStore)(nil)

func NewCassandraStore(session *gocql.Session) *CassandraStore {
	return &CassandraStore{session: session}
}

func (s *CassandraStore) Ping(ctx context.Context) error {
	return s.session.Query(`SELECT now() FROM system.local`).WithContext(ctx).Exec()
}

func (s *CassandraStore) Close() error {
	s.session.Close()
	return nil
}

// exists runs a single-row lookup and maps gocql.ErrNotFound to false.
func (s *CassandraStore) exists(ctx context.Context, stmt string, args ...any) (bool, error) {
	var id string
	err := s.session.Query(stmt, args...).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ---------------------------------------------------------------- channels

func (s *CassandraStore) ChannelExists(ctx context.Context, ck keys.ChannelKey) (bool, error) {
	ok, err := s.exists(ctx, `SELECT id FROM channels WHERE id = ?`, ck.Stored())
	if err != nil {
		return false, fmt.Errorf("channel exists: %w", err)
	}
	return ok, nil
}

func (s *CassandraStore) InsertChannel(ctx context.Context, ch *models.Channel) (bool, error) {
	applied, err := s.session.Query(
		`INSERT INTO channels (id, name, owner) VALUES (?, ?, ?) IF NOT EXISTS`,
		ch.Key().Stored(), ch.Name, ch.Owner,
	).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return false, fmt.Errorf("insert channel: %w", err)
	}
	return applied, nil
}

func (s *CassandraStore) GetChannel(ctx context.Context, ck keys.ChannelKey) (*models.Channel, error) {
	var stored string
	var ch models.Channel

	err := s.session.Query(
		`SELECT id, name, owner FROM channels WHERE id = ?`, ck.Stored(),
	).WithContext(ctx).Scan(&stored, &ch.Name, &ch.Owner)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}

	parsed, err := keys.ParseChannel(stored)
	if err != nil {
		return nil, err
	}
	ch.ID = parsed.ID()
	return &ch, nil
}

func (s *CassandraStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	iter := s.session.Query(`SELECT id, name, owner FROM channels`).WithContext(ctx).Iter()
	return scanChannels(iter, "list channels")
}

func (s *CassandraStore) ListChannelsByOwner(ctx context.Context, owner string) ([]models.Channel, error) {
	iter := s.session.Query(
		`SELECT id, name, owner FROM channels_by_owner WHERE owner = ?`, owner,
	).WithContext(ctx).Iter()
	return scanChannels(iter, "list channels by owner")
}

func scanChannels(iter *gocql.Iter, op string) ([]models.Channel, error) {
	var (
		out    []models.Channel
		stored string
		ch     models.Channel
	)
	for iter.Scan(&stored, &ch.Name, &ch.Owner) {
		parsed, err := keys.ParseChannel(stored)
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch.ID = parsed.ID()
		out = append(out, ch)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *CassandraStore) DeleteChannel(ctx context.Context, ck keys.ChannelKey) error {
	err := s.session.Query(`DELETE FROM channels WHERE id = ?`, ck.Stored()).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------- videos

func (s *CassandraStore) VideoExists(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (bool, error) {
	ok, err := s.exists(ctx,
		`SELECT id FROM videos WHERE channel_id = ? AND id = ?`,
		ck.Stored(), vk.Stored(),
	)
	if err != nil {
		return false, fmt.Errorf("video exists: %w", err)
	}
	return ok, nil
}

func (s *CassandraStore) InsertVideo(ctx context.Context, v *models.Video) (bool, error) {
	applied, err := s.session.Query(
		`INSERT INTO videos (id, channel_id, title, description, duration) VALUES (?, ?, ?, ?, ?) IF NOT EXISTS`,
		v.Key().Stored(), v.ChannelKey().Stored(), v.Title, v.Description, v.Duration,
	).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return false, fmt.Errorf("insert video: %w", err)
	}
	return applied, nil
}

func (s *CassandraStore) GetVideo(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (*models.Video, error) {
	var stored string
	v := models.Video{ChannelID: ck.ID()}

	err := s.session.Query(
		`SELECT id, title, description, duration FROM videos WHERE channel_id = ? AND id = ?`,
		ck.Stored(), vk.Stored(),
	).WithContext(ctx).Scan(&stored, &v.Title, &v.Description, &v.Duration)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	parsed, err := keys.ParseVideo(stored)
	if err != nil {
		return nil, err
	}
	v.ID = parsed.ID()
	return &v, nil
}

func (s *CassandraStore) ListVideos(ctx context.Context, ck keys.ChannelKey) ([]models.Video, error) {
	iter := s.session.Query(
		`SELECT id, title, description, duration FROM videos WHERE channel_id = ?`, ck.Stored(),
	).WithContext(ctx).Iter()
	return scanVideos(iter, ck, "list videos")
}

func (s *CassandraStore) ListVideosByMinDuration(ctx context.Context, ck keys.ChannelKey, minDuration int) ([]models.Video, error) {
	iter := s.session.Query(
		`SELECT id, title, description, duration FROM videos_by_duration WHERE channel_id = ? AND duration >= ?`,
		ck.Stored(), minDuration,
	).WithContext(ctx).Iter()
	return scanVideos(iter, ck, "list videos by duration")
}

func scanVideos(iter *gocql.Iter, ck keys.ChannelKey, op string) ([]models.Video, error) {
	var (
		out    []models.Video
		stored string
	)
	v := models.Video{ChannelID: ck.ID()}
	for iter.Scan(&stored, &v.Title, &v.Description, &v.Duration) {
		parsed, err := keys.ParseVideo(stored)
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		v.ID = parsed.ID()
		out = append(out, v)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *CassandraStore) DeleteVideo(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	err := s.session.Query(
		`DELETE FROM videos WHERE channel_id = ? AND id = ?`, ck.Stored(), vk.Stored(),
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// DeleteVideosByChannel drops the whole videos partition of the channel.
func (s *CassandraStore) DeleteVideosByChannel(ctx context.Context, ck keys.ChannelKey) error {
	err := s.session.Query(`DELETE FROM videos WHERE channel_id = ?`, ck.Stored()).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("delete channel videos: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------- views

func (s *CassandraStore) GetViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (int64, error) {
	var views int64
	err := s.session.Query(
		`SELECT views FROM video_views WHERE channel_id = ? AND video_id = ?`,
		ck.Stored(), vk.Stored(),
	).WithContext(ctx).Scan(&views)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get views: %w", err)
	}
	return views, nil
}

// IncrementViews relies on counter columns: an absent row starts at zero.
func (s *CassandraStore) IncrementViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	err := s.session.Query(
		`UPDATE video_views SET views = views + 1 WHERE channel_id = ? AND video_id = ?`,
		ck.Stored(), vk.Stored(),
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}
