// Package subscription turns document store change notifications into live,
// per-owner task list snapshots.
package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/domain"
)

// Store runs the live query.
type Store interface {
	TasksByOwner(ctx context.Context, owner string) ([]domain.Task, error)
}

// Snapshot is the complete result of the live query at one point in time.
// It supersedes every earlier snapshot of the same subscription.
type Snapshot struct {
	Seq   uint64
	Tasks []domain.Task
}

// Hub fans change notifications out to the subscriptions of each owner.
type Hub struct {
	rc      *redis.Client
	channel string
	store   Store
	logger  *log.Logger

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates a hub listening on channel. rc may be nil when Run is not used.
func NewHub(rc *redis.Client, channel string, store Store, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Hub{
		rc:      rc,
		channel: channel,
		store:   store,
		logger:  logger,
		subs:    make(map[string]map[*Subscription]struct{}),
	}
}

// Run listens for change events until ctx is cancelled, reconnecting when
// the pub/sub channel closes.
func (h *Hub) Run(ctx context.Context) {
	for {
		sub := h.rc.Subscribe(ctx, h.channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				h.handle(msg.Payload)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		h.logger.Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (h *Hub) handle(payload string) {
	var ev domain.ChangeEvent
	if err := sonic.Unmarshal([]byte(payload), &ev); err != nil {
		h.logger.Errorf("unable to parse update: %v", err)
		return
	}
	if ev.Collection != domain.CollectionTasks || ev.Owner == "" {
		return
	}
	h.Notify(ev.Owner)
}

// Notify wakes every subscription of owner. It never blocks.
func (h *Hub) Notify(owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[owner] {
		select {
		case s.signal <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many subscriptions owner currently holds.
func (h *Hub) Subscribers(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}

// Subscribe opens a live query for owner's tasks, newest first. The first
// snapshot is produced immediately. The subscription is released by Close or
// when ctx ends, whichever comes first.
func (h *Hub) Subscribe(ctx context.Context, owner string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		hub:    h,
		owner:  owner,
		signal: make(chan struct{}, 1),
		out:    make(chan Snapshot, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.add(s)
	go s.produce(ctx)
	return s
}

func (h *Hub) add(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.owner]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[s.owner] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.owner]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.owner)
	}
}

// Subscription is a cancellable stream of snapshots for one owner.
type Subscription struct {
	hub    *Hub
	owner  string
	signal chan struct{}
	out    chan Snapshot
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Snapshots delivers query results. Only the latest undelivered snapshot is
// kept. The channel is closed once the subscription is released.
func (s *Subscription) Snapshots() <-chan Snapshot { return s.out }

// Done is closed after the subscription has been released.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) release() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.out)
		close(s.done)
	})
}

func (s *Subscription) produce(ctx context.Context) {
	defer s.release()
	var seq uint64
	for {
		tasks, err := s.hub.store.TasksByOwner(ctx, s.owner)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			s.hub.logger.WithError(err).WithField("owner", s.owner).Error("live query failed")
		default:
			seq++
			s.deliver(Snapshot{Seq: seq, Tasks: tasks})
		}
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
		}
	}
}

func (s *Subscription) deliver(snap Snapshot) {
	select {
	case <-s.out:
	default:
	}
	s.out <- snap
}
