package produce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MediaExchange = "media.exchange"

	// ObjectPurgeQueue carries object keys whose best-effort delete failed
	ObjectPurgeQueue      = "media.object.purge"
	ObjectPurgeRoutingKey = "media.object.purge"
)

// ObjectPurgeMessage asks the consumer to retry deleting an object from storage
type ObjectPurgeMessage struct {
	StorageKey string `json:"storage_key"`
	Reason     string `json:"reason"`
	Timestamp  int64  `json:"timestamp"`
}

// ObjectPurgeService publishes object purge jobs
type ObjectPurgeService struct {
	channel Channel
}

func InitObjectPurgeService(channel Channel) (*ObjectPurgeService, error) {
	if err := DeclareObjectPurgeTopology(channel); err != nil {
		return nil, err
	}
	return &ObjectPurgeService{channel: channel}, nil
}

// DeclareObjectPurgeTopology declares the exchange, the durable queue and
// their binding. Producer and consumer both call it.
func DeclareObjectPurgeTopology(channel Channel) error {
	err := channel.ExchangeDeclare(
		MediaExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare media exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		ObjectPurgeQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare object purge queue: %w", err)
	}

	err = channel.QueueBind(
		ObjectPurgeQueue,
		ObjectPurgeRoutingKey,
		MediaExchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind object purge queue: %w", err)
	}

	return nil
}

// PublishObjectPurge enqueues a storage key for a later delete attempt
func (s *ObjectPurgeService) PublishObjectPurge(ctx context.Context, storageKey, reason string) error {
	msg := ObjectPurgeMessage{
		StorageKey: storageKey,
		Reason:     reason,
		Timestamp:  time.Now().Unix(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		MediaExchange,
		ObjectPurgeRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
