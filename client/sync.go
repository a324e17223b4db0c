package client

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/domain"
)

// TaskStream yields complete task list snapshots.
type TaskStream interface {
	Next() ([]domain.Task, error)
	Close() error
}

// TaskService is the part of the server the dashboard needs.
type TaskService interface {
	OpenTaskStream(ctx context.Context) (TaskStream, error)
	CreateTask(ctx context.Context, text string, public bool) (string, error)
	DeleteTask(ctx context.Context, id string) error
}

// OpenTaskStream adapts StreamTasks to TaskService.
func (c *HTTP) OpenTaskStream(ctx context.Context) (TaskStream, error) {
	st, err := c.StreamTasks(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Synchronizer mirrors the caller's task list. The local list only ever
// changes by being replaced with a server snapshot; mutations go to the
// server and come back through the stream.
type Synchronizer struct {
	api    TaskService
	notify Notifier
	logger *log.Logger

	mu      sync.RWMutex
	tasks   []domain.Task
	updates chan []domain.Task
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(api TaskService, notify Notifier, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if notify == nil {
		notify = LogNotifier{Logger: logger}
	}
	return &Synchronizer{
		api:     api,
		notify:  notify,
		logger:  logger,
		tasks:   []domain.Task{},
		updates: make(chan []domain.Task, 1),
	}
}

// Run opens one stream and applies snapshots until ctx ends or the stream
// fails. The stream is closed on every exit path.
func (s *Synchronizer) Run(ctx context.Context) error {
	stream, err := s.api.OpenTaskStream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	for {
		tasks, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.replace(tasks)
	}
}

func (s *Synchronizer) replace(tasks []domain.Task) {
	list := make([]domain.Task, len(tasks))
	copy(list, tasks)
	s.mu.Lock()
	s.tasks = list
	s.mu.Unlock()

	select {
	case <-s.updates:
	default:
	}
	s.updates <- s.Tasks()
}

// Tasks returns a copy of the latest snapshot.
func (s *Synchronizer) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Updates delivers the latest snapshot after each change. Stale snapshots
// nobody read are dropped.
func (s *Synchronizer) Updates() <-chan []domain.Task { return s.updates }

// Create submits a new task. Blank text only produces a warning.
func (s *Synchronizer) Create(ctx context.Context, text string, public bool) error {
	if err := domain.ValidateText(text); err != nil {
		s.notify.Warn(domain.NoticeEmptyTask)
		return err
	}
	if _, err := s.api.CreateTask(ctx, text, public); err != nil {
		s.logger.WithError(err).Error("create task failed")
		return err
	}
	s.notify.Success(domain.NoticeTaskCreated)
	return nil
}

// Delete removes a task.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		s.logger.WithError(err).WithField("task", id).Error("delete task failed")
		return err
	}
	s.notify.Success(domain.NoticeTaskDeleted)
	return nil
}
