package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuhernandez/melitrack/internal/statecache"
)

func newSchedulerTestEngine() *Engine {
	return NewEngine(
		newFakeStore(),
		&fakeClient{},
		&fakeOAuth{},
		statecache.NewMemoryCache(),
		WithLogger(quietLogger()),
		WithStaggerOffset(0),
	)
}

func TestNewScheduler_RegistersCronEntries(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(
		newSchedulerTestEngine(),
		30*time.Minute,
		15*time.Minute,
		quietLogger(),
	)
	require.NoError(t, err)

	entries := sched.Entries()
	assert.Len(t, entries, 2)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(
		newSchedulerTestEngine(),
		time.Hour,
		time.Hour,
		quietLogger(),
	)
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()
}
