package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the single-node backend. Unlike the clustered stores it
// provisions its own tables on open.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=off")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	stmts, err := Schema(BackendSQLite, "")
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------- channels

func (s *SQLiteStore) ChannelExists(ctx context.Context, ck keys.ChannelKey) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM channels WHERE id = ?)`, ck.Stored(),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("channel exists: %w", err)
	}
	return ok, nil
}

func (s *SQLiteStore) InsertChannel(ctx context.Context, ch *models.Channel) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO channels (id, name, owner) VALUES (?, ?, ?)`,
		ch.Key().Stored(), ch.Name, ch.Owner,
	)
	if err != nil {
		return false, fmt.Errorf("insert channel: %w", err)
	}
	return applied(res)
}

func (s *SQLiteStore) GetChannel(ctx context.Context, ck keys.ChannelKey) (*models.Channel, error) {
	var stored string
	var ch models.Channel

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner FROM channels WHERE id = ?`, ck.Stored(),
	).Scan(&stored, &ch.Name, &ch.Owner)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, owner FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return sqlChannels(rows)
}

func (s *SQLiteStore) ListChannelsByOwner(ctx context.Context, owner string) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, owner FROM channels WHERE owner = ? ORDER BY id`, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list channels by owner: %w", err)
	}
	return sqlChannels(rows)
}

func sqlChannels(rows *sql.Rows) ([]models.Channel, error) {
	defer rows.Close()

	var out []models.Channel
	for rows.Next() {
		var stored string
		var ch models.Channel
		if err := rows.Scan(&stored, &ch.Name, &ch.Owner); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		parsed, err := keys.ParseChannel(stored)
		if err != nil {
			return nil, err
		}
		ch.ID = parsed.ID()
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteChannel(ctx context.Context, ck keys.ChannelKey) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, ck.Stored()); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------- videos

func (s *SQLiteStore) VideoExists(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM videos WHERE channel_id = ? AND id = ?)`,
		ck.Stored(), vk.Stored(),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("video exists: %w", err)
	}
	return ok, nil
}

func (s *SQLiteStore) InsertVideo(ctx context.Context, v *models.Video) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO videos (id, channel_id, title, description, duration) VALUES (?, ?, ?, ?, ?)`,
		v.Key().Stored(), v.ChannelKey().Stored(), v.Title, v.Description, v.Duration,
	)
	if err != nil {
		return false, fmt.Errorf("insert video: %w", err)
	}
	return applied(res)
}

func (s *SQLiteStore) GetVideo(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (*models.Video, error) {
	var stored string
	v := models.Video{ChannelID: ck.ID()}

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, duration FROM videos WHERE channel_id = ? AND id = ?`,
		ck.Stored(), vk.Stored(),
	).Scan(&stored, &v.Title, &v.Description, &v.Duration)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) ListVideos(ctx context.Context, ck keys.ChannelKey) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, duration FROM videos WHERE channel_id = ? ORDER BY id`,
		ck.Stored(),
	)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return sqlVideos(rows, ck)
}

func (s *SQLiteStore) ListVideosByMinDuration(ctx context.Context, ck keys.ChannelKey, minDuration int) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, duration FROM videos WHERE channel_id = ? AND duration >= ? ORDER BY duration, id`,
		ck.Stored(), minDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("list videos by duration: %w", err)
	}
	return sqlVideos(rows, ck)
}

func sqlVideos(rows *sql.Rows, ck keys.ChannelKey) ([]models.Video, error) {
	defer rows.Close()

	var out []models.Video
	for rows.Next() {
		var stored string
		v := models.Video{ChannelID: ck.ID()}
		if err := rows.Scan(&stored, &v.Title, &v.Description, &v.Duration); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		parsed, err := keys.ParseVideo(stored)
		if err != nil {
			return nil, err
		}
		v.ID = parsed.ID()
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteVideo(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM videos WHERE channel_id = ? AND id = ?`, ck.Stored(), vk.Stored(),
	)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteVideosByChannel(ctx context.Context, ck keys.ChannelKey) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE channel_id = ?`, ck.Stored()); err != nil {
		return fmt.Errorf("delete channel videos: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------- views

func (s *SQLiteStore) GetViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx,
		`SELECT views FROM video_views WHERE channel_id = ? AND video_id = ?`,
		ck.Stored(), vk.Stored(),
	).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get views: %w", err)
	}
	return views, nil
}

func (s *SQLiteStore) IncrementViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_views (channel_id, video_id, views) VALUES (?, ?, 1)
		ON CONFLICT (channel_id, video_id) DO UPDATE SET views = views + 1`,
		ck.Stored(), vk.Stored(),
	)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func applied(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
