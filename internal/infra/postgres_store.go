package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore mirrors the Cassandra layout: the owner and duration access
// paths are plain indexes, the counter is an upsert.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ ports.Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresStore) Close() error {
	r.pool.Close()
	return nil
}

// ---------------------------------------------------------------- channels

func (r *PostgresStore) ChannelExists(ctx context.Context, ck keys.ChannelKey) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM channels WHERE id = $1)`, ck.Stored(),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("channel exists: %w", err)
	}
	return ok, nil
}

func (r *PostgresStore) InsertChannel(ctx context.Context, ch *models.Channel) (bool, error) {
	query := `
		INSERT INTO channels (id, name, owner)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, ch.Key().Stored(), ch.Name, ch.Owner)
	if err != nil {
		return false, fmt.Errorf("insert channel: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresStore) GetChannel(ctx context.Context, ck keys.ChannelKey) (*models.Channel, error) {
	var stored string
	var ch models.Channel

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, owner FROM channels WHERE id = $1`, ck.Stored(),
	).Scan(&stored, &ch.Name, &ch.Owner)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (r *PostgresStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, owner FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return collectChannels(rows)
}

func (r *PostgresStore) ListChannelsByOwner(ctx context.Context, owner string) ([]models.Channel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, owner FROM channels WHERE owner = $1 ORDER BY id`, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list channels by owner: %w", err)
	}
	return collectChannels(rows)
}

func collectChannels(rows pgx.Rows) ([]models.Channel, error) {
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

func (r *PostgresStore) DeleteChannel(ctx context.Context, ck keys.ChannelKey) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, ck.Stored()); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------- videos

func (r *PostgresStore) VideoExists(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM videos WHERE channel_id = $1 AND id = $2)`,
		ck.Stored(), vk.Stored(),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("video exists: %w", err)
	}
	return ok, nil
}

func (r *PostgresStore) InsertVideo(ctx context.Context, v *models.Video) (bool, error) {
	query := `
		INSERT INTO videos (id, channel_id, title, description, duration)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (channel_id, id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		v.Key().Stored(), v.ChannelKey().Stored(), v.Title, v.Description, v.Duration,
	)
	if err != nil {
		return false, fmt.Errorf("insert video: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresStore) GetVideo(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (*models.Video, error) {
	var stored string
	v := models.Video{ChannelID: ck.ID()}

	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, duration FROM videos WHERE channel_id = $1 AND id = $2`,
		ck.Stored(), vk.Stored(),
	).Scan(&stored, &v.Title, &v.Description, &v.Duration)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (r *PostgresStore) ListVideos(ctx context.Context, ck keys.ChannelKey) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, duration FROM videos WHERE channel_id = $1 ORDER BY id`,
		ck.Stored(),
	)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return collectVideos(rows, ck)
}

func (r *PostgresStore) ListVideosByMinDuration(ctx context.Context, ck keys.ChannelKey, minDuration int) ([]models.Video, error) {
	query := `
		SELECT id, title, description, duration
		FROM videos
		WHERE channel_id = $1 AND duration >= $2
		ORDER BY duration, id
	`
	rows, err := r.pool.Query(ctx, query, ck.Stored(), minDuration)
	if err != nil {
		return nil, fmt.Errorf("list videos by duration: %w", err)
	}
	return collectVideos(rows, ck)
}

func collectVideos(rows pgx.Rows, ck keys.ChannelKey) ([]models.Video, error) {
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

func (r *PostgresStore) DeleteVideo(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM videos WHERE channel_id = $1 AND id = $2`, ck.Stored(), vk.Stored(),
	)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

func (r *PostgresStore) DeleteVideosByChannel(ctx context.Context, ck keys.ChannelKey) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE channel_id = $1`, ck.Stored()); err != nil {
		return fmt.Errorf("delete channel videos: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------- views

func (r *PostgresStore) GetViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (int64, error) {
	var views int64
	err := r.pool.QueryRow(ctx,
		`SELECT views FROM video_views WHERE channel_id = $1 AND video_id = $2`,
		ck.Stored(), vk.Stored(),
	).Scan(&views)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get views: %w", err)
	}
	return views, nil
}

func (r *PostgresStore) IncrementViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	query := `
		INSERT INTO video_views (channel_id, video_id, views)
		VALUES ($1, $2, 1)
		ON CONFLICT (channel_id, video_id)
		DO UPDATE SET views = video_views.views + 1
	`
	if _, err := r.pool.Exec(ctx, query, ck.Stored(), vk.Stored()); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}
