package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryEventStore, *MemoryRegistrationStore) {
	t.Helper()
	events := NewMemoryEventStore()
	regs := NewMemoryRegistrationStore()
	return NewService(events, regs), events, regs
}

func createEvent(t *testing.T, svc *Service, capacity, registered int) Event {
	t.Helper()
	evt, err := svc.CreateEvent(context.Background(), Event{
		Title:      "Annual College Hackathon",
		Date:       "2025-06-15",
		Time:       "10:00 AM - 10:00 AM (next day)",
		Location:   "Engineering Building, Room 201",
		Organizer:  "Computer Science Department",
		Capacity:   capacity,
		Registered: registered,
		Tags:       []string{"technology", "coding"},
	})
	require.NoError(t, err)
	return evt
}

func TestRegisterIncrementsCounter(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 10, 3)

	reg, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, evt.ID, reg.EventID)
	assert.Equal(t, "user-a", reg.UserID)
	assert.False(t, reg.Attended)
	assert.Equal(t, fmt.Sprintf("%s-event%s-user%s", reg.ID, evt.ID, "user-a"), reg.QRCode)
	assert.False(t, reg.RegistrationDate.IsZero())

	got, err := svc.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Registered)
}

func TestRegisterUnknownEvent(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), "missing", "user-a")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegisterFullEventLeavesStateUnchanged(t *testing.T) {
	svc, _, regs := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 3, 3)

	_, err := svc.Register(ctx, evt.ID, "user-a")
	assert.ErrorIs(t, err, ErrEventFull)

	got, err := svc.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Registered)
	all, err := regs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRegisterTwiceSameUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 10, 3)

	_, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)
	_, err = svc.Register(ctx, evt.ID, "user-a")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	got, err := svc.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Registered, "failed attempt must not change the counter")
}

func TestLastSeatFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 1, 0)

	regA, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)
	assert.NotEmpty(t, regA.QRCode)

	_, err = svc.Register(ctx, evt.ID, "user-b")
	assert.ErrorIs(t, err, ErrEventFull)

	require.NoError(t, svc.Cancel(ctx, regA.ID))
	got, err := svc.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Registered)

	_, err = svc.Register(ctx, evt.ID, "user-b")
	assert.NoError(t, err)
}

func TestCancelRemovesRecordAndReleasesSeat(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 5, 0)

	reg, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, reg.ID))

	_, err = svc.GetRegistration(ctx, reg.ID)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	got, err := svc.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Registered)

	assert.ErrorIs(t, svc.Cancel(ctx, reg.ID), ErrRegistrationNotFound)
}

func TestCancelToleratesMissingEvent(t *testing.T) {
	svc, events, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 5, 0)

	reg, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)

	// Drop the event behind the service's back; cancellation must still
	// succeed with the counter side treated as a no-op.
	require.NoError(t, events.Delete(ctx, evt.ID))
	assert.NoError(t, svc.Cancel(ctx, reg.ID))
}

func TestDeleteEventCascades(t *testing.T) {
	svc, _, regs := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 5, 0)
	other := createEvent(t, svc, 5, 0)

	_, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)
	_, err = svc.Register(ctx, evt.ID, "user-b")
	require.NoError(t, err)
	keep, err := svc.Register(ctx, other.ID, "user-a")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, evt.ID))

	_, err = svc.GetEvent(ctx, evt.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	all, err := regs.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	mine, err := svc.ListForUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, other.ID, mine[0].Event.ID)

	theirs, err := svc.ListForUser(ctx, "user-b")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestDeleteEventUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), "missing"), ErrEventNotFound)
}

func TestListForUserPreservesOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	first := createEvent(t, svc, 5, 0)
	second := createEvent(t, svc, 5, 0)

	_, err := svc.Register(ctx, first.ID, "user-a")
	require.NoError(t, err)
	_, err = svc.Register(ctx, second.ID, "user-a")
	require.NoError(t, err)

	out, err := svc.ListForUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, first.ID, out[0].Event.ID)
	assert.Equal(t, second.ID, out[1].Event.ID)
}

func TestListForUserSurfacesDanglingEvent(t *testing.T) {
	svc, events, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 5, 0)

	_, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)
	require.NoError(t, events.Delete(ctx, evt.ID))

	_, err = svc.ListForUser(ctx, "user-a")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestMarkAttendanceIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 5, 0)
	reg, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)

	require.NoError(t, svc.MarkAttendance(ctx, reg.ID, true))
	require.NoError(t, svc.MarkAttendance(ctx, reg.ID, true))

	got, err := svc.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, got.Attended)

	require.NoError(t, svc.MarkAttendance(ctx, reg.ID, false))
	got, err = svc.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.False(t, got.Attended)

	assert.ErrorIs(t, svc.MarkAttendance(ctx, "missing", true), ErrRegistrationNotFound)
}

func TestCreateEventValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, Event{Title: "No Seats", Capacity: 0})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = svc.CreateEvent(ctx, Event{Title: "Overfull", Capacity: 2, Registered: 3})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = svc.CreateEvent(ctx, Event{Capacity: 5})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestUpdateEventMergesFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 10, 0)

	title := "Spring Music Festival"
	location := "Campus Central Plaza"
	updated, err := svc.UpdateEvent(ctx, evt.ID, EventUpdate{Title: &title, Location: &location})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, location, updated.Location)
	assert.Equal(t, evt.Date, updated.Date, "untouched fields keep their values")
	assert.Equal(t, evt.Capacity, updated.Capacity)

	_, err = svc.UpdateEvent(ctx, "missing", EventUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestUpdateEventCapacityGuard(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 3, 0)

	_, err := svc.Register(ctx, evt.ID, "user-a")
	require.NoError(t, err)
	_, err = svc.Register(ctx, evt.ID, "user-b")
	require.NoError(t, err)

	one := 1
	_, err = svc.UpdateEvent(ctx, evt.ID, EventUpdate{Capacity: &one})
	assert.ErrorIs(t, err, ErrCapacityTooSmall)

	two := 2
	updated, err := svc.UpdateEvent(ctx, evt.ID, EventUpdate{Capacity: &two})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Capacity)

	_, err = svc.Register(ctx, evt.ID, "user-c")
	assert.ErrorIs(t, err, ErrEventFull)
}

// TestConcurrentRegistrationsRespectCapacity fires 100 goroutines at a
// 5-seat event and expects exactly 5 to win.
func TestConcurrentRegistrationsRespectCapacity(t *testing.T) {
	svc, _, regs := newTestService(t)
	ctx := context.Background()
	evt := createEvent(t, svc, 5, 0)

	const attempts = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	success, full := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Register(ctx, evt.ID, fmt.Sprintf("user-%d", n))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case err == ErrEventFull:
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	assert.Equal(t, attempts-5, full)

	got, err := svc.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Registered)
	all, err := regs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
