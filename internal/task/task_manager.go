package task

import (
	"context"
	"fmt"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Job is one periodic unit of work
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute(ctx context.Context) error
}

// TaskManager runs registered jobs on a gocron scheduler
type TaskManager struct {
	scheduler gocron.Scheduler
	timeout   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	names     []string
}

// NewTaskManager creates a manager. Each run gets its own deadline of timeout.
func NewTaskManager(timeout time.Duration) (*TaskManager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskManager{
		scheduler: s,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Register adds a job. The first run happens as soon as the scheduler starts.
func (m *TaskManager) Register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(func() { m.run(job) }),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
	}
	m.names = append(m.names, job.GetName())
	return nil
}

// Jobs returns the registered job names in registration order
func (m *TaskManager) Jobs() []string {
	return append([]string(nil), m.names...)
}

// Start starts the scheduler
func (m *TaskManager) Start() {
	m.scheduler.Start()
	logger.Info("Task manager started with %d jobs", len(m.names))
}

// Stop cancels running jobs and waits for the scheduler to finish
func (m *TaskManager) Stop() error {
	m.cancel()
	if err := m.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	logger.Info("Task manager stopped")
	return nil
}

func (m *TaskManager) run(job Job) {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		logger.Error("Job %s failed after %s: %v", job.GetName(), time.Since(start).Round(time.Millisecond), err)
		return
	}
	logger.Debug("Job %s finished in %s", job.GetName(), time.Since(start).Round(time.Millisecond))
}
