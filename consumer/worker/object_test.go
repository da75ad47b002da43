package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/infra/produce"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecord struct {
	acked    bool
	nacked   bool
	requeued bool
}

type fakeAcknowledger struct {
	mu   sync.Mutex
	last ackRecord
	done chan struct{}
}

func newAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{done: make(chan struct{}, 1)}
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.record(ackRecord{acked: true})
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.record(ackRecord{nacked: true, requeued: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func (f *fakeAcknowledger) record(r ackRecord) {
	f.mu.Lock()
	f.last = r
	f.mu.Unlock()
	f.done <- struct{}{}
}

type flakyStore struct {
	mu       sync.Mutex
	failures int
	err      error
	deletes  []string
}

func (s *flakyStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return nil
}

func (s *flakyStore) GetObject(ctx context.Context, key string) (*infra.StoredObject, error) {
	return &infra.StoredObject{Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

func (s *flakyStore) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.failures > 0 {
		s.failures--
		return errors.New("storage unavailable")
	}
	return s.err
}

func (s *flakyStore) Ping(ctx context.Context) error { return nil }

func (s *flakyStore) Bucket() string { return "media" }

func newTestConsumer(store infra.ObjectStore, ch Channel) *ObjectPurgeConsumer {
	c := NewObjectPurgeConsumer(ch, store, infra.NewNopLogger())
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func delivery(ack amqp.Acknowledger, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(body)}
}

func TestHandlePurge(t *testing.T) {
	const body = `{"storage_key":"staging/products/1/gallery/a.jpg","reason":"delete failed","timestamp":1}`

	cases := []struct {
		name     string
		store    *flakyStore
		body     string
		want     ackRecord
		attempts int
	}{
		{"deleted first try", &flakyStore{}, body, ackRecord{acked: true}, 1},
		{"deleted after retries", &flakyStore{failures: 2}, body, ackRecord{acked: true}, 3},
		{"already gone", &flakyStore{err: infra.ErrObjectNotFound}, body, ackRecord{acked: true}, 1},
		{"exhausted", &flakyStore{failures: 5}, body, ackRecord{nacked: true, requeued: true}, 3},
		{"malformed", &flakyStore{}, `{not json`, ackRecord{nacked: true}, 0},
		{"missing key", &flakyStore{}, `{"reason":"x"}`, ackRecord{nacked: true}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ack := newAcknowledger()
			newTestConsumer(tc.store, &fakeChannel{}).handlePurge(context.Background(), delivery(ack, tc.body))

			assert.Equal(t, tc.want, ack.last)
			assert.Len(t, tc.store.deletes, tc.attempts)
		})
	}
}

type fakeChannel struct {
	deliveries chan amqp.Delivery
	queues     []string
	consumed   []string
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.queues = append(f.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	f.consumed = append(f.consumed, queue)
	return f.deliveries, nil
}

func TestStartConsumesPurgeQueue(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 1)}
	store := &flakyStore{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, newTestConsumer(store, ch).Start(ctx))
	assert.Equal(t, []string{produce.ObjectPurgeQueue}, ch.queues)
	assert.Equal(t, []string{produce.ObjectPurgeQueue}, ch.consumed)

	ack := newAcknowledger()
	ch.deliveries <- delivery(ack, `{"storage_key":"products/2/thumbnail/b.png","reason":"replace"}`)

	select {
	case <-ack.done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not handled")
	}
	assert.True(t, ack.last.acked)
}

func TestStartRequiresStorage(t *testing.T) {
	err := NewObjectPurgeConsumer(&fakeChannel{}, nil, infra.NewNopLogger()).Start(context.Background())
	require.Error(t, err)
}
