package server

import (
	"context"
	"sync"
	"time"
)

const (
	RealtimeEventEditsChanged = "edits-changed"
	realtimeEventConnected    = "connected"
	realtimeEventHeartbeat    = "heartbeat"
	realtimeSourceBackend     = "slidecraft-api"

	ChangeReasonAppended = "appended"
	ChangeReasonCleared  = "cleared"
)

// RealtimeMessage announces that a deck's edit log changed.
type RealtimeMessage struct {
	DeckID    string
	EventType string
	Reason    string
	Count     int64
	Timestamp time.Time
}

// RealtimeDispatcher fans edit-log change messages out to per-deck subscribers.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[string]map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a subscriber for the deck until ctx ends or cleanup is called.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context, deckID string) (<-chan RealtimeMessage, func()) {
	if deckID == "" {
		ch := make(chan RealtimeMessage)
		close(ch)
		return ch, func() {}
	}
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(deckID, subscriber)
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.unregisterSubscriber(deckID, subscriber.id)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the message to the deck's subscribers. Slow subscribers drop messages
// rather than block the publisher.
func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.DeckID == "" || message.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[message.DeckID]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscribers for a deck.
func (d *RealtimeDispatcher) SubscriberCount(deckID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[deckID])
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(deckID string, subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[deckID]; !ok {
		d.subscribers[deckID] = make(map[int64]*realtimeSubscriber)
	}
	d.subscribers[deckID][subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(deckID string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[deckID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, deckID)
		}
	}
	d.mu.Unlock()
}
