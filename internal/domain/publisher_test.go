package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Vovarama1992/vidcatalog/internal/domain"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFanoutPublisher(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("nats down")}
	fan := domain.FanoutPublisher{failing, ok}

	ev := models.Event{Type: models.EventVideoAdded, ChannelID: "c1", VideoID: "v1"}
	err := fan.Publish(context.Background(), ev)

	assert.ErrorContains(t, err, "nats down")
	assert.Equal(t, []models.EventType{models.EventVideoAdded}, ok.types(), "later sinks still receive the event")
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, domain.NopPublisher{}.Publish(context.Background(), models.Event{}))
	assert.NoError(t, domain.FanoutPublisher{}.Publish(context.Background(), models.Event{}))
}
