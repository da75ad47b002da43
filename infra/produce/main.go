package produce

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the producers use.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Produce struct {
	ObjectPurgeService *ObjectPurgeService
}

func InitProduce(channel Channel) (*Produce, error) {
	objectPurgeService, err := InitObjectPurgeService(channel)
	if err != nil {
		return nil, err
	}

	return &Produce{
		ObjectPurgeService: objectPurgeService,
	}, nil
}
