package notification

import "sync"

const broadcasterDefaultBuffer = 8

// Broadcaster fans center events out to the event streams of each client.
type Broadcaster struct {
	mutex        sync.Mutex
	nextID       int64
	subscribers  map[int64]*Subscription
	closed       bool
	bufferLength int
}

// NewBroadcaster constructs a Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers:  make(map[int64]*Subscription),
		bufferLength: broadcasterDefaultBuffer,
	}
}

// Subscribe returns a subscription receiving events for client, or nil once closed.
func (broadcaster *Broadcaster) Subscribe(client string) *Subscription {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	if broadcaster.closed {
		return nil
	}
	subscriptionID := broadcaster.nextID
	broadcaster.nextID++
	subscription := &Subscription{
		broadcaster: broadcaster,
		identifier:  subscriptionID,
		client:      client,
		events:      make(chan Event, broadcaster.bufferLength),
	}
	broadcaster.subscribers[subscriptionID] = subscription
	return subscription
}

// Publish delivers event to every subscriber of its client. Slow subscribers miss events.
func (broadcaster *Broadcaster) Publish(event Event) {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	if broadcaster.closed {
		return
	}
	for _, subscription := range broadcaster.subscribers {
		if subscription.client != event.Client {
			continue
		}
		select {
		case subscription.events <- event:
		default:
		}
	}
}

// Close stops the broadcaster and closes all subscriber channels.
func (broadcaster *Broadcaster) Close() {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	if broadcaster.closed {
		return
	}
	broadcaster.closed = true
	for identifier, subscription := range broadcaster.subscribers {
		close(subscription.events)
		delete(broadcaster.subscribers, identifier)
	}
}

func (broadcaster *Broadcaster) remove(identifier int64) {
	broadcaster.mutex.Lock()
	defer broadcaster.mutex.Unlock()
	subscription, exists := broadcaster.subscribers[identifier]
	if !exists {
		return
	}
	delete(broadcaster.subscribers, identifier)
	close(subscription.events)
}

// Subscription is one open event stream.
type Subscription struct {
	broadcaster *Broadcaster
	identifier  int64
	client      string
	events      chan Event
	once        sync.Once
}

// Events exposes the receive-only event channel.
func (subscription *Subscription) Events() <-chan Event {
	if subscription == nil {
		return nil
	}
	return subscription.events
}

// Close unregisters the subscription and closes its channel.
func (subscription *Subscription) Close() {
	if subscription == nil {
		return
	}
	subscription.once.Do(func() {
		subscription.broadcaster.remove(subscription.identifier)
	})
}
