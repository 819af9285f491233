package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/channels/gochannel"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/channels/kafka"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
)

// NewEventBus creates an event bus on the given topic. kafka is the
// production provider; gochannel keeps messages in process for local
// development and tests.
func NewEventBus(provider, topic, serviceName string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, topic)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, topic)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
