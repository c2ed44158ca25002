package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_NewID_StrictlyIncreasing(t *testing.T) {
	q := NewQueue(nil)
	first := q.NewID()
	second := q.NewID()
	assert.Less(t, first, second)
}

func TestQueue_PutAndGet_FIFOOrder(t *testing.T) {
	q := NewQueue(nil)
	q.PutNew(TypeShip, "dock", "ALPHA-1")
	q.PutNew(TypeShip, "orbit", "ALPHA-1")

	first, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "dock", first.Name)

	second, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "orbit", second.Name)
}

func TestQueue_Get_TimesOutWhenEmpty(t *testing.T) {
	q := NewQueue(nil)
	_, err := q.Get(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestQueue_UpdateScheduled_PromotesDueEvents(t *testing.T) {
	q := NewQueue(nil)
	now := time.Now().UTC()
	ev := q.NewEvent(TypeShip, "extract", "ALPHA-1")
	q.Schedule(now.Add(-time.Second), ev)

	q.UpdateScheduled(now)

	got, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
}

func TestQueue_UpdateScheduled_StopsAtFutureEntry(t *testing.T) {
	q := NewQueue(nil)
	now := time.Now().UTC()
	q.Schedule(now.Add(time.Hour), q.NewEvent(TypeShip, "extract", "ALPHA-1"))

	q.UpdateScheduled(now)

	_, err := q.Get(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestQueue_UpdateScheduled_PreservesBatchOrderAtSameWhen(t *testing.T) {
	q := NewQueue(nil)
	now := time.Now().UTC()
	when := now.Add(-time.Second)

	batch := q.NewEventsFrom([]EventSpec{
		{Type: TypeShip, Name: "dock", Args: []interface{}{"ALPHA-1"}},
		{Type: TypeShip, Name: "refuel", Args: []interface{}{"ALPHA-1"}},
		{Type: TypeShip, Name: "orbit", Args: []interface{}{"ALPHA-1"}},
	})
	q.ScheduleBatch(when, batch)
	q.UpdateScheduled(now)

	for _, want := range []string{"dock", "refuel", "orbit"} {
		got, err := q.Get(time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got.Name)
	}
}

func TestQueue_EventDone_NotifiesSubscribersInRegistrationOrder(t *testing.T) {
	q := NewQueue(nil)
	var order []string
	q.Subscribe(TypeShip, "navigate", func(ev Event) { order = append(order, "first") })
	q.Subscribe(TypeShip, "navigate", func(ev Event) { order = append(order, "second") })

	ev := q.PutNew(TypeShip, "navigate", "ALPHA-1")
	q.EventDone(ev, SUCCESS)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestQueue_EventDone_FailDiscardsNotifications(t *testing.T) {
	q := NewQueue(nil)
	called := false
	q.Subscribe(TypeShip, "navigate", func(ev Event) { called = true })

	ev := q.PutNew(TypeShip, "navigate", "ALPHA-1")
	q.EventDone(ev, FAIL)

	assert.False(t, called)
}

func TestQueue_EventDone_SubscriberPanicDoesNotStopOthers(t *testing.T) {
	var reported bool
	q := NewQueue(func(ev Event, r interface{}) { reported = true })

	secondCalled := false
	q.Subscribe(TypeShip, "navigate", func(ev Event) { panic("boom") })
	q.Subscribe(TypeShip, "navigate", func(ev Event) { secondCalled = true })

	ev := q.PutNew(TypeShip, "navigate", "ALPHA-1")
	q.EventDone(ev, SUCCESS)

	assert.True(t, secondCalled)
	assert.True(t, reported)
}
