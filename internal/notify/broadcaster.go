package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/model"
)

// Sink delivers one event to one user's push channel. Implemented by the
// WebSocket hub; a returned error counts as a delivery failure for that
// subscriber.
type Sink interface {
	Deliver(userID string, ev *model.NotificationEvent) error
}

// Broadcaster decouples event producers from subscriber delivery. Publish
// enqueues and returns; each subscriber drains its own buffered queue on its
// own goroutine, so one slow or broken subscriber never stalls the producer
// or its peers. A subscriber that fails maxFailures deliveries in a row
// (including queue-overflow drops) is unsubscribed.
type Broadcaster struct {
	sink        Sink
	maxFailures int
	buffer      int
	logger      *zap.Logger

	mu     sync.Mutex
	subs   map[string]*subscriber            // sessionID -> subscriber
	topics map[string]map[string]*subscriber // topic -> sessionID -> subscriber
}

type subscriber struct {
	sessionID string
	userID    string
	topics    map[string]struct{}
	queue     chan *model.NotificationEvent
	done      chan struct{}
	failures  int
}

func NewBroadcaster(sink Sink, maxFailures, buffer int, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		sink:        sink,
		maxFailures: maxFailures,
		buffer:      buffer,
		logger:      logger,
		subs:        make(map[string]*subscriber),
		topics:      make(map[string]map[string]*subscriber),
	}
}

// Subscribe adds topic to the session's subscription set. Idempotent.
func (b *Broadcaster) Subscribe(sessionID, userID, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[sessionID]
	if !ok {
		sub = &subscriber{
			sessionID: sessionID,
			userID:    userID,
			topics:    make(map[string]struct{}),
			queue:     make(chan *model.NotificationEvent, b.buffer),
			done:      make(chan struct{}),
		}
		b.subs[sessionID] = sub
		go b.deliverLoop(sub)
	}

	if _, ok := sub.topics[topic]; ok {
		return
	}
	sub.topics[topic] = struct{}{}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[string]*subscriber)
	}
	b.topics[topic][sessionID] = sub
}

// Unsubscribe removes one topic from the session's subscription set.
func (b *Broadcaster) Unsubscribe(sessionID, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[sessionID]
	if !ok {
		return
	}
	delete(sub.topics, topic)
	if m := b.topics[topic]; m != nil {
		delete(m, sessionID)
		if len(m) == 0 {
			delete(b.topics, topic)
		}
	}
	if len(sub.topics) == 0 {
		b.dropLocked(sub)
	}
}

// UnsubscribeAll removes the session from every topic and stops its delivery
// goroutine.
func (b *Broadcaster) UnsubscribeAll(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[sessionID]
	if !ok {
		return
	}
	b.dropLocked(sub)
}

// Publish enqueues ev for every session subscribed to its topic and returns
// without waiting for any delivery. A subscriber whose queue is full takes a
// failure mark instead of blocking the publisher.
func (b *Broadcaster) Publish(ev *model.NotificationEvent) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.ProducedAt.IsZero() {
		ev.ProducedAt = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.topics[ev.Topic] {
		select {
		case sub.queue <- ev:
		default:
			b.noteFailureLocked(sub, nil)
		}
	}
}

// SubscriberCount reports how many sessions are subscribed to topic.
func (b *Broadcaster) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

func (b *Broadcaster) deliverLoop(sub *subscriber) {
	for {
		select {
		case ev := <-sub.queue:
			if err := b.sink.Deliver(sub.userID, ev); err != nil {
				b.mu.Lock()
				b.noteFailureLocked(sub, err)
				b.mu.Unlock()
			} else {
				b.mu.Lock()
				sub.failures = 0
				b.mu.Unlock()
			}
		case <-sub.done:
			return
		}
	}
}

// noteFailureLocked counts one consecutive failure and drops the subscriber
// at the limit. Caller holds b.mu.
func (b *Broadcaster) noteFailureLocked(sub *subscriber, err error) {
	sub.failures++
	if sub.failures < b.maxFailures {
		return
	}
	b.logger.Warn("dropping push subscriber after repeated delivery failures",
		zap.String("sessionId", sub.sessionID),
		zap.String("userId", sub.userID),
		zap.Int("failures", sub.failures),
		zap.Error(err))
	b.dropLocked(sub)
}

func (b *Broadcaster) dropLocked(sub *subscriber) {
	if _, ok := b.subs[sub.sessionID]; !ok {
		return
	}
	delete(b.subs, sub.sessionID)
	for topic := range sub.topics {
		if m := b.topics[topic]; m != nil {
			delete(m, sub.sessionID)
			if len(m) == 0 {
				delete(b.topics, topic)
			}
		}
	}
	close(sub.done)
}
