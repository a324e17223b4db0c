// Package feed relays document store change events from the change queue to
// the Redis channel that live subscriptions listen on.
package feed

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/domain"
)

// Message is a dequeued change event.
type Message struct {
	ID         string
	PopReceipt string
	Text       string
}

// Queue yields change events one at a time.
type Queue interface {
	// Dequeue returns nil when the queue is empty.
	Dequeue(ctx context.Context) (*Message, error)
	Delete(ctx context.Context, id, popReceipt string) error
}

// Evicter drops cached task lists.
type Evicter interface {
	Evict(ctx context.Context, owner string)
}

// Relay moves change events from the queue to Redis pub/sub.
type Relay struct {
	queue   Queue
	cache   Evicter
	rc      *redis.Client
	channel string
	logger  *log.Logger
	idle    time.Duration
}

// NewRelay builds a relay publishing on channel. cache may be nil.
func NewRelay(q Queue, cache Evicter, rc *redis.Client, channel string, logger *log.Logger) *Relay {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Relay{queue: q, cache: cache, rc: rc, channel: channel, logger: logger, idle: time.Second}
}

// AzureQueue adapts an Azure Storage queue to Queue.
type AzureQueue struct {
	client *azqueue.QueueClient
}

// NewAzureQueue opens the change queue from a storage connection string.
func NewAzureQueue(connStr, name string) (*AzureQueue, error) {
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
	if err != nil {
		return nil, err
	}
	return &AzureQueue{client: q}, nil
}

// Dequeue retrieves a single message from the queue.
func (q *AzureQueue) Dequeue(ctx context.Context) (*Message, error) {
	resp, err := q.client.DequeueMessage(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	m := resp.Messages[0]
	if m.MessageID == nil || m.PopReceipt == nil {
		return nil, nil
	}
	msg := &Message{ID: *m.MessageID, PopReceipt: *m.PopReceipt}
	if m.MessageText != nil {
		msg.Text = *m.MessageText
	}
	return msg, nil
}

// Delete removes a processed message from the queue.
func (q *AzureQueue) Delete(ctx context.Context, id, popReceipt string) error {
	_, err := q.client.DeleteMessage(ctx, id, popReceipt, nil)
	return err
}

// Run drains the queue until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	r.logger.WithField("channel", r.channel).Info("change relay started")
	for {
		if ctx.Err() != nil {
			return
		}
		handled, err := r.Step(ctx)
		if err != nil {
			r.logger.WithError(err).Error("change relay step")
		}
		if err != nil || !handled {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.idle):
			}
		}
	}
}

// Step processes at most one message. It reports whether a message was found.
func (r *Relay) Step(ctx context.Context) (bool, error) {
	msg, err := r.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, nil
	}

	var ev domain.ChangeEvent
	if err := sonic.Unmarshal([]byte(msg.Text), &ev); err != nil {
		r.logger.WithError(err).Warn("dropping malformed change event")
		return true, r.queue.Delete(ctx, msg.ID, msg.PopReceipt)
	}
	if err := r.process(ctx, ev, msg.Text); err != nil {
		// Left on the queue; it becomes visible again after the timeout.
		return true, err
	}
	return true, r.queue.Delete(ctx, msg.ID, msg.PopReceipt)
}

func (r *Relay) process(ctx context.Context, ev domain.ChangeEvent, payload string) error {
	if r.cache != nil && ev.Collection == domain.CollectionTasks && ev.Owner != "" {
		r.cache.Evict(ctx, ev.Owner)
	}
	if err := r.rc.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.WithError(err).Errorf("Unable to publish %s change to %s", ev.Collection, r.channel)
		return err
	}
	r.logger.WithFields(log.Fields{
		"collection": ev.Collection,
		"op":         ev.Op,
		"id":         ev.ID,
	}).Debug("change relayed")
	return nil
}
