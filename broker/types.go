package broker

import (
	"context"

	"github.com/underline-app/coauthor/provider"
)

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, provider.StreamEvent) error
	Subscribe(context.Context, Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}
