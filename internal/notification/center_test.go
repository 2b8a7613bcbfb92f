package notification

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testClient        = "tab-1"
	testOtherClient   = "tab-2"
	testRecordID      = "toggle-edit-mode"
	testOtherRecordID = "other"
)

type manualClock struct {
	mutex sync.Mutex
	now   time.Time
}

func (clock *manualClock) Now() time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.now
}

func (clock *manualClock) Advance(duration time.Duration) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	clock.now = clock.now.Add(duration)
}

type recordingPublisher struct {
	mutex  sync.Mutex
	events []Event
}

func (publisher *recordingPublisher) Publish(event Event) {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	publisher.events = append(publisher.events, event)
}

func (publisher *recordingPublisher) kinds() []Kind {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	kinds := make([]Kind, 0, len(publisher.events))
	for _, event := range publisher.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func newTestCenter() (*Center, *manualClock, *recordingPublisher) {
	clock := &manualClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	publisher := &recordingPublisher{}
	return NewCenter(WithClock(clock.Now), WithPublisher(publisher)), clock, publisher
}

func TestShowReplacesRecordWithSameID(testingT *testing.T) {
	center, clock, publisher := newTestCenter()

	center.Show(testClient, Record{ID: testRecordID, Title: "first", AutoClose: 10 * time.Second})
	clock.Advance(3 * time.Second)
	refreshed := center.Show(testClient, Record{ID: testRecordID, Title: "second", AutoClose: 10 * time.Second})

	active := center.Active(testClient)
	require.Len(testingT, active, 1)
	require.Equal(testingT, "second", active[0].Title)
	require.Equal(testingT, clock.Now().Add(10*time.Second), refreshed.ExpiresAt)
	require.Equal(testingT, []Kind{KindShow, KindShow}, publisher.kinds())
}

func TestHideIsNoOpForUnknownID(testingT *testing.T) {
	center, _, publisher := newTestCenter()

	require.False(testingT, center.Hide(testClient, testRecordID))
	require.Empty(testingT, publisher.kinds())

	center.Show(testClient, Record{ID: testRecordID})
	require.True(testingT, center.Hide(testClient, testRecordID))
	require.Empty(testingT, center.Active(testClient))
	require.Equal(testingT, []Kind{KindShow, KindHide}, publisher.kinds())
}

func TestRecordsAreScopedPerClient(testingT *testing.T) {
	center, _, _ := newTestCenter()

	center.For(testClient).Show(Record{ID: testRecordID})
	center.For(testOtherClient).Show(Record{ID: testOtherRecordID})
	center.For(testOtherClient).Hide(testRecordID)

	require.Len(testingT, center.Active(testClient), 1)
	require.Equal(testingT, testOtherRecordID, center.Active(testOtherClient)[0].ID)
}

func TestSweepRemovesExpiredRecordsOnly(testingT *testing.T) {
	center, clock, publisher := newTestCenter()

	center.Show(testClient, Record{ID: testRecordID, AutoClose: 10 * time.Second})
	center.Show(testClient, Record{ID: testOtherRecordID})

	clock.Advance(9 * time.Second)
	require.Zero(testingT, center.Sweep())

	clock.Advance(time.Second)
	require.Equal(testingT, 1, center.Sweep())

	active := center.Active(testClient)
	require.Len(testingT, active, 1)
	require.Equal(testingT, testOtherRecordID, active[0].ID)
	require.Equal(testingT, []Kind{KindShow, KindShow, KindHide}, publisher.kinds())
}

func TestActiveIsOrderedByID(testingT *testing.T) {
	center, _, _ := newTestCenter()

	center.Show(testClient, Record{ID: "b"})
	center.Show(testClient, Record{ID: "a"})
	center.Show(testClient, Record{ID: "c"})

	active := center.Active(testClient)
	require.Equal(testingT, []string{"a", "b", "c"}, []string{active[0].ID, active[1].ID, active[2].ID})
}

func TestForgetDropsClientRecords(testingT *testing.T) {
	center, _, _ := newTestCenter()
	center.Show(testClient, Record{ID: testRecordID})

	center.Forget(testClient)

	require.Empty(testingT, center.Active(testClient))
}

func TestRecordJSONCarriesAutoCloseMilliseconds(testingT *testing.T) {
	encoded, marshalErr := json.Marshal(Record{ID: testRecordID, AutoClose: 10 * time.Second})
	require.NoError(testingT, marshalErr)

	var decoded map[string]any
	require.NoError(testingT, json.Unmarshal(encoded, &decoded))
	require.Equal(testingT, float64(10000), decoded["auto_close_ms"])
	require.Equal(testingT, testRecordID, decoded["id"])
	require.NotContains(testingT, decoded, "expires_at")
}
