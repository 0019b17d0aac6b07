package bugs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDefaults(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	rep, err := svc.Submit(ctx, Report{
		Title:       "Registration button unresponsive",
		Description: "Clicking register does nothing on Safari",
		SubmittedBy: "user-a",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rep.ID, "BUG-"), "id %q should carry the BUG- prefix", rep.ID)
	assert.Len(t, rep.ID, len("BUG-")+8)
	assert.Equal(t, StatusOpen, rep.Status)
	assert.Equal(t, PriorityMedium, rep.Priority)
	assert.False(t, rep.SubmittedDate.IsZero())
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Submit(ctx, Report{SubmittedBy: "user-a"})
	assert.ErrorIs(t, err, ErrInvalidReport)

	_, err = svc.Submit(ctx, Report{Title: "No submitter"})
	assert.ErrorIs(t, err, ErrInvalidReport)

	_, err = svc.Submit(ctx, Report{Title: "Bad status", SubmittedBy: "u", Status: "closed"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Submit(ctx, Report{Title: "Bad priority", SubmittedBy: "u", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestListNewestFirst(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	first, err := svc.Submit(ctx, Report{Title: "First", SubmittedBy: "user-a"})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, Report{Title: "Second", SubmittedBy: "user-b"})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestListByUser(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Submit(ctx, Report{Title: "Mine", SubmittedBy: "user-a"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, Report{Title: "Theirs", SubmittedBy: "user-b"})
	require.NoError(t, err)
	mineNewer, err := svc.Submit(ctx, Report{Title: "Mine too", SubmittedBy: "user-a"})
	require.NoError(t, err)

	mine, err := svc.ListByUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, mineNewer.ID, mine[0].ID)

	none, err := svc.ListByUser(ctx, "user-c")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateStatus(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	rep, err := svc.Submit(ctx, Report{Title: "Flaky QR image", SubmittedBy: "user-a"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, rep.ID, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, updated.Status)

	// Straight to resolved is allowed; no transition ordering.
	updated, err = svc.UpdateStatus(ctx, rep.ID, StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, updated.Status)

	_, err = svc.UpdateStatus(ctx, rep.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, "BUG-MISSING1", StatusOpen)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMissing(t *testing.T) {
	svc := NewService(NewMemoryStore())
	_, err := svc.Get(context.Background(), "BUG-MISSING1")
	assert.ErrorIs(t, err, ErrNotFound)
}
