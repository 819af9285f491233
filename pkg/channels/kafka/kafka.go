package kafka

import (
	"errors"
	"os"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

// CreateChannel builds the Kafka publisher and subscriber pair for a
// service. Brokers come from KAFKA_BROKERS (comma-separated). Each
// service gets its own consumer group so job topics distribute work
// while lifecycle topics fan out per consumer name.
func CreateChannel(logger watermill.LoggerAdapter, serviceName string) (*kafka.Publisher, *kafka.Subscriber, error) {
	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
	if len(brokers) == 0 || brokers[0] == "" {
		return nil, nil, errors.New("KAFKA_BROKERS environment variable is not set or empty")
	}

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: subscriberConfig(serviceName),
			ConsumerGroup:         "zzyra-" + serviceName,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: publisherConfig(serviceName),
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	return publisher, subscriber, nil
}

// subscriberConfig starts new consumer groups from the oldest offset so
// a restarted worker picks up jobs enqueued while it was down.
func subscriberConfig(serviceName string) *sarama.Config {
	config := kafka.DefaultSaramaSubscriberConfig()
	config.ClientID = serviceName
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	return config
}

// publisherConfig requires acks from all in-sync replicas. Execution
// jobs must not be lost between enqueue and the worker picking them up.
func publisherConfig(serviceName string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = serviceName
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	return config
}
