package recorder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.RecordRun(&RunEvent{Subscriber: "alice", Regime: "first_run", AllCommonUsed: 10, Fired: true, Reason: "first_run"}))
	require.NoError(t, r.RecordRun(&RunEvent{Subscriber: "alice", Regime: "same_day", AllCommonUsed: 20, Reason: "below_threshold"}))
	require.NoError(t, r.RecordNotify(&NotifyEvent{Subscriber: "alice", Channel: "bark", Title: "t", Delivered: true, Detail: "ok"}))

	n, err := r.CountRuns("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.CountRuns("bob")
	require.NoError(t, err)
	assert.Zero(t, n)

	var delivered bool
	require.NoError(t, r.db.QueryRow(`SELECT delivered FROM notifications WHERE subscriber = ?`, "alice").Scan(&delivered))
	assert.True(t, delivered)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&RunEvent{}))
	assert.NoError(t, r.RecordNotify(&NotifyEvent{}))
	assert.NoError(t, r.Close())
}
