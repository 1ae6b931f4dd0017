package live

import (
	"context"

	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
)

// Subscription is an active change feed subscription.
type Subscription interface {
	Unsubscribe() error
}

// Feed delivers row changes matching a filter to handler, in arrival order.
type Feed interface {
	Subscribe(ctx context.Context, filter domain.ChangeFilter, handler func(domain.Change)) (Subscription, error)
}

// RealtimeFeed adapts the backend's realtime client to Feed.
type RealtimeFeed struct {
	Client *baas.RealtimeClient
}

func (f RealtimeFeed) Subscribe(ctx context.Context, filter domain.ChangeFilter, handler func(domain.Change)) (Subscription, error) {
	ch, err := f.Client.Subscribe(ctx, filter, baas.ChangeHandler(handler))
	if err != nil {
		return nil, err
	}
	return ch, nil
}
