package client

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Davi2004/TarefasPlus/domain"
)

var errBoom = errors.New("boom")

type recordingNotifier struct {
	mu       sync.Mutex
	warnings []string
	success  []string
}

func (n *recordingNotifier) Warn(msg string) {
	n.mu.Lock()
	n.warnings = append(n.warnings, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	n.success = append(n.success, msg)
	n.mu.Unlock()
}

// chanStream replays snapshots pushed on a channel.
type chanStream struct {
	ch     chan []domain.Task
	once   sync.Once
	closed chan struct{}
}

func newChanStream() *chanStream {
	return &chanStream{ch: make(chan []domain.Task), closed: make(chan struct{})}
}

func (s *chanStream) Next() ([]domain.Task, error) {
	select {
	case tasks, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return tasks, nil
	case <-s.closed:
		return nil, io.ErrClosedPipe
	}
}

func (s *chanStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *chanStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeTasks struct {
	mu      sync.Mutex
	stream  *chanStream
	opens   int
	creates []domain.NewTask
	deletes []string
	err     error
}

func (f *fakeTasks) OpenTaskStream(ctx context.Context) (TaskStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func (f *fakeTasks) CreateTask(ctx context.Context, text string, public bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, domain.NewTask{Text: text, Public: public})
	if f.err != nil {
		return "", f.err
	}
	return "new-id", nil
}

func (f *fakeTasks) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.err
}

type fakeComments struct {
	detail  TaskDetail
	loadErr error
	err     error
	created []string
	deleted []string
	seq     int
}

func (f *fakeComments) TaskDetail(ctx context.Context, id string) (TaskDetail, error) {
	if f.loadErr != nil {
		return TaskDetail{}, f.loadErr
	}
	return f.detail, nil
}

func (f *fakeComments) CreateComment(ctx context.Context, taskID, text string) (domain.Comment, error) {
	f.created = append(f.created, text)
	if f.err != nil {
		return domain.Comment{}, f.err
	}
	f.seq++
	return domain.Comment{ID: "new-" + string(rune('0'+f.seq)), TaskID: taskID, Text: text, Author: "ana@example.com", AuthorName: "Ana"}, nil
}

func (f *fakeComments) DeleteComment(ctx context.Context, taskID, commentID string) error {
	f.deleted = append(f.deleted, commentID)
	return f.err
}
