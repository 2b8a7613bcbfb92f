// Package notification keeps the transient messages shown in the page corner.
// Records are keyed per client by a fixed id: showing an id that is already
// active replaces it, hiding an unknown id does nothing.
package notification

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Kind distinguishes show and hide events.
type Kind string

const (
	KindShow Kind = "show"
	KindHide Kind = "hide"
)

// Record is one active notification.
type Record struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Color     string        `json:"color,omitempty"`
	LinkURL   string        `json:"link_url,omitempty"`
	LinkLabel string        `json:"link_label,omitempty"`
	AutoClose time.Duration `json:"-"`
	ShownAt   time.Time     `json:"shown_at"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
}

// MarshalJSON adds the auto-close interval in milliseconds for the page script.
func (record Record) MarshalJSON() ([]byte, error) {
	type plainRecord Record
	return json.Marshal(struct {
		plainRecord
		AutoCloseMillis int64 `json:"auto_close_ms"`
	}{
		plainRecord:     plainRecord(record),
		AutoCloseMillis: record.AutoClose.Milliseconds(),
	})
}

// Event is published whenever a record is shown, refreshed or removed.
type Event struct {
	Client string `json:"-"`
	Kind   Kind   `json:"kind"`
	Record Record `json:"record"`
}

// Publisher receives center events.
type Publisher interface {
	Publish(event Event)
}

// ShowRecorder counts shown notifications.
type ShowRecorder interface {
	ObserveNotificationShown()
}

// Option customises a Center.
type Option func(*Center)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(center *Center) {
		if clock != nil {
			center.clock = clock
		}
	}
}

// WithPublisher sends every show and hide to publisher.
func WithPublisher(publisher Publisher) Option {
	return func(center *Center) {
		center.publisher = publisher
	}
}

// WithRecorder reports shown notifications to recorder.
func WithRecorder(recorder ShowRecorder) Option {
	return func(center *Center) {
		center.recorder = recorder
	}
}

// Center owns the active records of every client.
type Center struct {
	mutex     sync.Mutex
	records   map[string]map[string]Record
	clock     func() time.Time
	publisher Publisher
	recorder  ShowRecorder
}

// NewCenter constructs an empty Center.
func NewCenter(options ...Option) *Center {
	center := &Center{
		records: make(map[string]map[string]Record),
		clock:   time.Now,
	}
	for _, option := range options {
		option(center)
	}
	return center
}

// Show activates record for client, replacing any active record with the same id.
func (center *Center) Show(client string, record Record) Record {
	now := center.clock()
	record.ShownAt = now
	record.ExpiresAt = time.Time{}
	if record.AutoClose > 0 {
		record.ExpiresAt = now.Add(record.AutoClose)
	}

	center.mutex.Lock()
	clientRecords, exists := center.records[client]
	if !exists {
		clientRecords = make(map[string]Record)
		center.records[client] = clientRecords
	}
	clientRecords[record.ID] = record
	center.mutex.Unlock()

	if center.recorder != nil {
		center.recorder.ObserveNotificationShown()
	}
	center.publish(Event{Client: client, Kind: KindShow, Record: record})
	return record
}

// Hide removes the record with id for client and reports whether one was active.
func (center *Center) Hide(client string, id string) bool {
	center.mutex.Lock()
	record, exists := center.records[client][id]
	if exists {
		center.removeLocked(client, id)
	}
	center.mutex.Unlock()

	if !exists {
		return false
	}
	center.publish(Event{Client: client, Kind: KindHide, Record: record})
	return true
}

// Active returns the records of client ordered by id.
func (center *Center) Active(client string) []Record {
	center.mutex.Lock()
	clientRecords := center.records[client]
	active := make([]Record, 0, len(clientRecords))
	for _, record := range clientRecords {
		active = append(active, record)
	}
	center.mutex.Unlock()

	sort.Slice(active, func(left, right int) bool {
		return active[left].ID < active[right].ID
	})
	return active
}

// Sweep removes every record whose auto-close deadline has passed and returns how many were removed.
func (center *Center) Sweep() int {
	now := center.clock()
	var expired []Event

	center.mutex.Lock()
	for client, clientRecords := range center.records {
		for id, record := range clientRecords {
			if record.ExpiresAt.IsZero() || now.Before(record.ExpiresAt) {
				continue
			}
			expired = append(expired, Event{Client: client, Kind: KindHide, Record: record})
			center.removeLocked(client, id)
		}
	}
	center.mutex.Unlock()

	for _, event := range expired {
		center.publish(event)
	}
	return len(expired)
}

// Forget drops every record of client without publishing events.
func (center *Center) Forget(client string) {
	center.mutex.Lock()
	delete(center.records, client)
	center.mutex.Unlock()
}

// For returns a view of the center bound to one client.
func (center *Center) For(client string) Scope {
	return Scope{center: center, client: client}
}

func (center *Center) removeLocked(client string, id string) {
	clientRecords := center.records[client]
	delete(clientRecords, id)
	if len(clientRecords) == 0 {
		delete(center.records, client)
	}
}

func (center *Center) publish(event Event) {
	if center.publisher == nil {
		return
	}
	center.publisher.Publish(event)
}

// Scope shows and hides records for a single client.
type Scope struct {
	center *Center
	client string
}

// Show activates record for the bound client.
func (scope Scope) Show(record Record) {
	scope.center.Show(scope.client, record)
}

// Hide removes the record with id for the bound client.
func (scope Scope) Hide(id string) {
	scope.center.Hide(scope.client, id)
}
