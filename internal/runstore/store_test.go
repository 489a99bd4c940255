package runstore

import (
	"testing"
	"time"

	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Lifecycle(t *testing.T) {
	s := New(time.Hour)
	require.NoError(t, s.Create(Record{ID: "e1", WorkflowID: "wf", Status: StatusPending}))
	assert.Error(t, s.Create(Record{ID: "e1"}), "ids are unique")

	ok, err := s.Update("e1", func(r *Record) { r.Status = StatusRunning })
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Update("e1", func(r *Record) { r.Status = StatusCancelled })
	require.NoError(t, err)
	assert.True(t, ok)

	// Final records are immutable.
	ok, err = s.Update("e1", func(r *Record) { r.Status = StatusSucceeded })
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := s.Get("e1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, rec.Status)
	assert.Equal(t, 1, s.Count())
}

func TestStore_NotFoundAndExpiry(t *testing.T) {
	s := New(20 * time.Millisecond)
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, flowerr.ErrNotFound)

	_, err = s.Update("missing", func(*Record) {})
	assert.ErrorIs(t, err, flowerr.ErrNotFound)

	require.NoError(t, s.Create(Record{ID: "e", Status: StatusRunning}))
	time.Sleep(60 * time.Millisecond)
	_, err = s.Get("e")
	require.NoError(t, err, "records in progress outlive the TTL")

	_, err = s.Update("e", func(r *Record) { r.Status = StatusSucceeded })
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := s.Get("e")
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestStore_FinalRecordCreatedWithTTL(t *testing.T) {
	s := New(20 * time.Millisecond)
	require.NoError(t, s.Create(Record{ID: "done", Status: StatusFailed}))
	require.Eventually(t, func() bool {
		_, err := s.Get("done")
		return err != nil
	}, time.Second, 5*time.Millisecond)
}
