package ports

import (
	"context"

	"github.com/Vovarama1992/vidcatalog/internal/models"
)

type EventPublisher interface {
	Publish(ctx context.Context, ev models.Event) error
}
