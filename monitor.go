package pitfall

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const DefaultMonitorInterval = time.Second

// MonitorTask is a recurring background task started by StartMonitor.
type MonitorTask struct {
	id        string
	interval  time.Duration
	startedAt time.Time
	ticks     atomic.Int64
	cancel    context.CancelFunc
	done      chan struct{}
}

// Ticks returns how many times the task has fired.
func (t *MonitorTask) Ticks() int64 {
	return t.ticks.Load()
}

// Stop cancels the task and waits for its goroutine to exit.
func (t *MonitorTask) Stop() {
	t.cancel()
	<-t.done
}

func (t *MonitorTask) stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *MonitorTask) run(ctx context.Context, logger *slog.Logger) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.ticks.Add(1)
			logger.Info("monitoring...", "task", t.id, "at", now)
		}
	}
}

// MonitorRegistry keeps every task ever started. Entries are never removed,
// so its length only grows for the lifetime of the process. Close cancels
// the tasks but keeps their handles.
type MonitorRegistry struct {
	mu              sync.Mutex
	tasks           []*MonitorTask
	defaultInterval time.Duration
	logger          *slog.Logger
}

func NewMonitorRegistry(defaultInterval time.Duration, logger *slog.Logger) *MonitorRegistry {
	if defaultInterval <= 0 {
		defaultInterval = DefaultMonitorInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorRegistry{
		defaultInterval: defaultInterval,
		logger:          logger,
	}
}

// Start launches a task firing every interval (the default interval when
// interval <= 0) and returns the registry size after appending it.
func (r *MonitorRegistry) Start(interval time.Duration) int {
	if interval <= 0 {
		interval = r.defaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	task := &MonitorTask{
		id:        uuid.NewString(),
		interval:  interval,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go task.run(ctx, r.logger)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = append(r.tasks, task)
	return len(r.tasks)
}

func (r *MonitorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tasks)
}

// Running returns the number of tasks whose goroutine is still alive.
func (r *MonitorRegistry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, t := range r.tasks {
		if !t.stopped() {
			n++
		}
	}
	return n
}

// Tasks returns a snapshot of every registered task.
func (r *MonitorRegistry) Tasks() []MonitorInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]MonitorInfo, 0, len(r.tasks))
	for i, t := range r.tasks {
		infos = append(infos, MonitorInfo{
			ID:        i + 1,
			TaskID:    t.id,
			Interval:  t.interval,
			StartedAt: t.startedAt,
			Ticks:     t.Ticks(),
			Stopped:   t.stopped(),
		})
	}
	return infos
}

// Close stops every task. It is safe to call more than once.
func (r *MonitorRegistry) Close() {
	r.mu.Lock()
	tasks := make([]*MonitorTask, len(r.tasks))
	copy(tasks, r.tasks)
	r.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
}
