package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const defaultHealthInterval = 30 * time.Second

// JobHealthSweep is the job id enqueued when a sweep detects fresh
// degradation. Workers pick it up to notify operators.
const JobHealthSweep = "platform.health.sweep"

// HealthChecker is the sweep surface of the service container.
type HealthChecker interface {
	HealthCheckAll(ctx context.Context) (map[string]HealthStatus, error)
}

// HealthReport is the outcome of one sweep. Degraded holds every service
// currently failing; NewlyDegraded and Recovered hold the transitions since
// the previous sweep.
type HealthReport struct {
	CheckedAt     time.Time
	Statuses      map[string]HealthStatus
	Degraded      []string
	NewlyDegraded []string
	Recovered     []string
}

// HealthMonitor sweeps service health on an interval. Transitions are
// logged and written to the activity trail, and fresh degradation is
// escalated through the job queue. Steady-state failures do not repeat
// the escalation.
type HealthMonitor struct {
	observer
	checker  HealthChecker
	activity ActivityStore
	jobs     JobEnqueuer
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	done     chan struct{}
	degraded map[string]string
}

type HealthMonitorOption func(*HealthMonitor)

func WithHealthInterval(interval time.Duration) HealthMonitorOption {
	return func(m *HealthMonitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

func WithHealthActivityStore(store ActivityStore) HealthMonitorOption {
	return func(m *HealthMonitor) {
		if store != nil {
			m.activity = store
		}
	}
}

func WithHealthJobEnqueuer(jobs JobEnqueuer) HealthMonitorOption {
	return func(m *HealthMonitor) {
		if jobs != nil {
			m.jobs = jobs
		}
	}
}

func WithHealthMonitorLogger(logger Logger) HealthMonitorOption {
	return func(m *HealthMonitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithHealthMonitorMetrics(metrics MetricsRecorder) HealthMonitorOption {
	return func(m *HealthMonitor) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithHealthClock overrides the sweep timestamp source.
func WithHealthClock(now func() time.Time) HealthMonitorOption {
	return func(m *HealthMonitor) {
		if now != nil {
			m.now = now
		}
	}
}

func NewHealthMonitor(checker HealthChecker, options ...HealthMonitorOption) (*HealthMonitor, error) {
	if checker == nil {
		return nil, fmt.Errorf("core: health checker is required")
	}
	m := &HealthMonitor{
		observer: observer{
			logger:  glog.Nop(),
			metrics: NopMetricsRecorder{},
		},
		checker:  checker,
		interval: defaultHealthInterval,
		now:      func() time.Time { return time.Now().UTC() },
		degraded: map[string]string{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m, nil
}

// Start launches the sweep loop. It returns immediately; the loop runs
// until Stop is called or ctx is cancelled.
func (m *HealthMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("core: health monitor is already running")
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	go m.loop(ctx, stop, done)
	return nil
}

// Stop halts the sweep loop and waits for it to exit. Stopping a monitor
// that is not running is a no-op.
func (m *HealthMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()

	<-done
}

func (m *HealthMonitor) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			_, _ = m.Sweep(ctx)
		}
	}
}

// Sweep runs one health pass. Check failures from individual services are
// regular report entries; an error here means the sweep itself could not
// run.
func (m *HealthMonitor) Sweep(ctx context.Context) (report HealthReport, err error) {
	startedAt := time.Now()
	defer func() {
		m.observeOperation(ctx, startedAt, "health_sweep", err, map[string]any{
			"degraded": len(report.Degraded),
		})
	}()

	statuses, err := m.checker.HealthCheckAll(ctx)
	if err != nil {
		return HealthReport{}, err
	}

	report = HealthReport{
		CheckedAt: m.now(),
		Statuses:  statuses,
	}

	current := map[string]string{}
	for name, status := range statuses {
		if !status.Healthy {
			current[name] = status.Message
			report.Degraded = append(report.Degraded, name)
		}
	}
	sort.Strings(report.Degraded)

	m.mu.Lock()
	previous := m.degraded
	m.degraded = current
	m.mu.Unlock()

	for name := range current {
		if _, was := previous[name]; !was {
			report.NewlyDegraded = append(report.NewlyDegraded, name)
		}
	}
	for name := range previous {
		if _, still := current[name]; !still {
			report.Recovered = append(report.Recovered, name)
		}
	}
	sort.Strings(report.NewlyDegraded)
	sort.Strings(report.Recovered)

	m.recordTransitions(ctx, report, current)
	m.escalate(ctx, report)
	return report, nil
}

func (m *HealthMonitor) recordTransitions(ctx context.Context, report HealthReport, current map[string]string) {
	for _, name := range report.NewlyDegraded {
		m.logWarn(ctx, "service degraded", map[string]any{
			"service": name,
			"message": current[name],
		})
		m.appendTransition(ctx, name, "failure", current[name])
	}
	for _, name := range report.Recovered {
		m.logInfo(ctx, "service recovered", map[string]any{"service": name})
		m.appendTransition(ctx, name, "success", "recovered")
	}
}

// appendTransition reuses the activity trail with a service-scoped subject
// so health history lands next to plugin history.
func (m *HealthMonitor) appendTransition(ctx context.Context, service, status, detail string) {
	if m.activity == nil {
		return
	}
	record := ActivityRecord{
		PluginID:  "service:" + service,
		Operation: "health",
		Status:    status,
		Detail:    detail,
		CreatedAt: m.now(),
	}
	if _, err := m.activity.Append(ctx, record); err != nil {
		m.logWarn(ctx, "health activity append failed", map[string]any{
			"service": service,
			"error":   err.Error(),
		})
	}
}

// escalate enqueues one notification job per sweep that finds fresh
// degradation. Enqueue failures are logged, never fatal.
func (m *HealthMonitor) escalate(ctx context.Context, report HealthReport) {
	if m.jobs == nil || len(report.NewlyDegraded) == 0 {
		return
	}
	degraded := make([]any, 0, len(report.NewlyDegraded))
	for _, name := range report.NewlyDegraded {
		degraded = append(degraded, name)
	}
	msg := &JobExecutionMessage{
		JobID: JobHealthSweep,
		Parameters: map[string]any{
			"degraded":   degraded,
			"checked_at": report.CheckedAt.Format(time.RFC3339),
		},
		IdempotencyKey: fmt.Sprintf("%s:%d", JobHealthSweep, report.CheckedAt.Unix()),
		DedupPolicy:    "drop",
	}
	if err := m.jobs.Enqueue(ctx, msg); err != nil {
		m.logWarn(ctx, "health escalation enqueue failed", map[string]any{
			"job_id": msg.JobID,
			"error":  err.Error(),
		})
	}
}
