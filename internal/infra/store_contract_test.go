package infra_test

import (
	"context"
	"testing"
	"time"

	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every ports.Store backend shares.
// Ids are unique per run so a single long-lived store can be reused.
func runStoreContract(t *testing.T, store ports.Store) {
	ctx := context.Background()
	uniq := func(s string) string { return s + "-" + uuid.NewString()[:8] }

	// materialized views and secondary paths may lag the base write briefly
	eventually := func(t *testing.T, cond func() bool) {
		t.Helper()
		require.Eventually(t, cond, 5*time.Second, 50*time.Millisecond)
	}

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})

	t.Run("channel insert get exists", func(t *testing.T) {
		ch := &models.Channel{ID: uniq("c"), Name: "Main", Owner: uniq("owner")}

		ok, err := store.ChannelExists(ctx, ch.Key())
		require.NoError(t, err)
		assert.False(t, ok)

		applied, err := store.InsertChannel(ctx, ch)
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = store.InsertChannel(ctx, &models.Channel{ID: ch.ID, Name: "Other", Owner: "x"})
		require.NoError(t, err)
		assert.False(t, applied, "second insert of the same id must not apply")

		ok, err = store.ChannelExists(ctx, ch.Key())
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.GetChannel(ctx, ch.Key())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, *ch, *got)
	})

	t.Run("get missing channel", func(t *testing.T) {
		got, err := store.GetChannel(ctx, keys.Channel(uniq("missing")))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ids containing the prefix round trip", func(t *testing.T) {
		ch := &models.Channel{ID: "channel#" + uniq("nested"), Name: "N", Owner: "o"}
		_, err := store.InsertChannel(ctx, ch)
		require.NoError(t, err)

		got, err := store.GetChannel(ctx, ch.Key())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ch.ID, got.ID)

		v := &models.Video{ID: "video#" + uniq("v"), ChannelID: ch.ID, Title: "t", Description: "d", Duration: 5}
		_, err = store.InsertVideo(ctx, v)
		require.NoError(t, err)

		list, err := store.ListVideos(ctx, ch.Key())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, v.ID, list[0].ID)
		assert.Equal(t, ch.ID, list[0].ChannelID)
	})

	t.Run("list channels and filter by owner", func(t *testing.T) {
		owner := uniq("owner")
		a := &models.Channel{ID: uniq("a"), Name: "A", Owner: owner}
		b := &models.Channel{ID: uniq("b"), Name: "B", Owner: owner}
		c := &models.Channel{ID: uniq("c"), Name: "C", Owner: uniq("someone")}
		for _, ch := range []*models.Channel{a, b, c} {
			_, err := store.InsertChannel(ctx, ch)
			require.NoError(t, err)
		}

		all, err := store.ListChannels(ctx)
		require.NoError(t, err)
		assert.Subset(t, all, []models.Channel{*a, *b, *c})

		eventually(t, func() bool {
			got, err := store.ListChannelsByOwner(ctx, owner)
			return err == nil && assert.ObjectsAreEqual([]models.Channel{*a, *b}, got)
		})

		none, err := store.ListChannelsByOwner(ctx, uniq("nobody"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("delete channel", func(t *testing.T) {
		ch := &models.Channel{ID: uniq("del"), Name: "D", Owner: "o"}
		_, err := store.InsertChannel(ctx, ch)
		require.NoError(t, err)

		require.NoError(t, store.DeleteChannel(ctx, ch.Key()))

		ok, err := store.ChannelExists(ctx, ch.Key())
		require.NoError(t, err)
		assert.False(t, ok)

		// absent rows delete quietly
		require.NoError(t, store.DeleteChannel(ctx, ch.Key()))
	})

	t.Run("videos", func(t *testing.T) {
		ck := keys.Channel(uniq("chan"))
		long := &models.Video{ID: "a-long", ChannelID: ck.ID(), Title: "Long", Description: "d", Duration: 600}
		short := &models.Video{ID: "b-short", ChannelID: ck.ID(), Title: "Short", Description: "d", Duration: 30}
		mid := &models.Video{ID: "c-mid", ChannelID: ck.ID(), Title: "Mid", Description: "d", Duration: 120}

		for _, v := range []*models.Video{long, short, mid} {
			applied, err := store.InsertVideo(ctx, v)
			require.NoError(t, err)
			assert.True(t, applied)
		}

		applied, err := store.InsertVideo(ctx, &models.Video{ID: long.ID, ChannelID: ck.ID(), Title: "x", Description: "x", Duration: 1})
		require.NoError(t, err)
		assert.False(t, applied)

		ok, err := store.VideoExists(ctx, ck, long.Key())
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.GetVideo(ctx, ck, mid.Key())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, *mid, *got)

		missing, err := store.GetVideo(ctx, ck, keys.Video("nope"))
		require.NoError(t, err)
		assert.Nil(t, missing)

		list, err := store.ListVideos(ctx, ck)
		require.NoError(t, err)
		assert.Equal(t, []models.Video{*long, *short, *mid}, list, "ordered by id")

		eventually(t, func() bool {
			got, err := store.ListVideosByMinDuration(ctx, ck, 100)
			return err == nil && assert.ObjectsAreEqual([]models.Video{*mid, *long}, got)
		})

		eventually(t, func() bool {
			got, err := store.ListVideosByMinDuration(ctx, ck, 0)
			return err == nil && len(got) == 3
		})

		require.NoError(t, store.DeleteVideo(ctx, ck, short.Key()))
		ok, err = store.VideoExists(ctx, ck, short.Key())
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.DeleteVideosByChannel(ctx, ck))
		list, err = store.ListVideos(ctx, ck)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("videos are scoped to their channel", func(t *testing.T) {
		c1, c2 := keys.Channel(uniq("c1")), keys.Channel(uniq("c2"))
		_, err := store.InsertVideo(ctx, &models.Video{ID: "same", ChannelID: c1.ID(), Title: "t", Description: "d", Duration: 1})
		require.NoError(t, err)

		applied, err := store.InsertVideo(ctx, &models.Video{ID: "same", ChannelID: c2.ID(), Title: "t", Description: "d", Duration: 1})
		require.NoError(t, err)
		assert.True(t, applied)

		ok, err := store.VideoExists(ctx, c2, keys.Video("same"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("views", func(t *testing.T) {
		ck, vk := keys.Channel(uniq("vc")), keys.Video(uniq("vv"))

		n, err := store.GetViews(ctx, ck, vk)
		require.NoError(t, err)
		assert.Zero(t, n)

		for i := 0; i < 3; i++ {
			require.NoError(t, store.IncrementViews(ctx, ck, vk))
		}

		n, err = store.GetViews(ctx, ck, vk)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		other, err := store.GetViews(ctx, keys.Channel(uniq("other")), vk)
		require.NoError(t, err)
		assert.Zero(t, other)
	})
}
