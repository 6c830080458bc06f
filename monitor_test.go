package pitfall_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sagarc03/pitfall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMonitorRegistry_StartGrowsByOne(t *testing.T) {
	r := pitfall.NewMonitorRegistry(time.Hour, discardLogger())
	t.Cleanup(r.Close)

	for want := 1; want <= 5; want++ {
		id := r.Start(time.Hour)
		assert.Equal(t, want, id)
		assert.Equal(t, want, r.Len())
	}
}

func TestMonitorRegistry_Leak(t *testing.T) {
	// Known defect: tasks are never stopped by the request path, so each one
	// keeps ticking and the registry never shrinks.
	r := pitfall.NewMonitorRegistry(time.Hour, discardLogger())
	t.Cleanup(r.Close)

	r.Start(time.Millisecond)
	r.Start(time.Millisecond)

	require.Eventually(t, func() bool {
		for _, task := range r.Tasks() {
			if task.Ticks < 3 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, r.Running())
	assert.Equal(t, 2, r.Len())
}

func TestMonitorRegistry_DefaultInterval(t *testing.T) {
	r := pitfall.NewMonitorRegistry(250*time.Millisecond, discardLogger())
	t.Cleanup(r.Close)

	r.Start(0)
	r.Start(-5 * time.Second)
	r.Start(time.Minute)

	tasks := r.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, 250*time.Millisecond, tasks[0].Interval)
	assert.Equal(t, 250*time.Millisecond, tasks[1].Interval)
	assert.Equal(t, time.Minute, tasks[2].Interval)

	for i, task := range tasks {
		assert.Equal(t, i+1, task.ID)
		assert.NotEmpty(t, task.TaskID)
		assert.False(t, task.Stopped)
	}
}

func TestMonitorRegistry_CloseStopsTasksButKeepsHandles(t *testing.T) {
	r := pitfall.NewMonitorRegistry(0, discardLogger())

	r.Start(time.Millisecond)
	r.Start(time.Millisecond)
	r.Close()

	assert.Equal(t, 0, r.Running())
	assert.Equal(t, 2, r.Len(), "length never decreases")

	ticks := r.Tasks()[0].Ticks
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ticks, r.Tasks()[0].Ticks, "stopped task must not tick")

	// Close is idempotent
	r.Close()
	assert.Equal(t, 3, r.Start(time.Hour))
	r.Close()
}
