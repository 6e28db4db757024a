package domain

import (
	"context"
	"errors"

	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
)

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Event) error { return nil }

// FanoutPublisher delivers every event to all sinks and joins their errors.
type FanoutPublisher []ports.EventPublisher

func (f FanoutPublisher) Publish(ctx context.Context, ev models.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
