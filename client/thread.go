package client

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/domain"
)

var errThreadNotLoaded = errors.New("comment thread not loaded")

// CommentService is the part of the server the task detail page needs.
type CommentService interface {
	TaskDetail(ctx context.Context, id string) (TaskDetail, error)
	CreateComment(ctx context.Context, taskID, text string) (domain.Comment, error)
	DeleteComment(ctx context.Context, taskID, commentID string) error
}

// CommentThread holds the comments of one task page. The list is loaded
// once and then edited locally after each successful call.
type CommentThread struct {
	api     CommentService
	session *Session
	notify  Notifier
	logger  *log.Logger

	mu       sync.RWMutex
	loaded   bool
	task     domain.TaskView
	comments []domain.Comment
}

// NewCommentThread creates an empty thread.
func NewCommentThread(api CommentService, session *Session, notify Notifier, logger *log.Logger) *CommentThread {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if notify == nil {
		notify = LogNotifier{Logger: logger}
	}
	return &CommentThread{api: api, session: session, notify: notify, logger: logger}
}

// Load fetches the task and its comments. ErrNotVisible means the task is
// missing or private.
func (t *CommentThread) Load(ctx context.Context, taskID string) error {
	detail, err := t.api.TaskDetail(ctx, taskID)
	if err != nil {
		return err
	}
	comments := detail.AllComments
	if comments == nil {
		comments = []domain.Comment{}
	}
	t.mu.Lock()
	t.loaded = true
	t.task = detail.Item
	t.comments = comments
	t.mu.Unlock()
	return nil
}

// Task returns the loaded task.
func (t *CommentThread) Task() domain.TaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.task
}

// Comments returns a copy of the visible comments.
func (t *CommentThread) Comments() []domain.Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Comment, len(t.comments))
	copy(out, t.comments)
	return out
}

// Append posts a comment and adds the stored result to the list.
func (t *CommentThread) Append(ctx context.Context, text string) error {
	if err := domain.ValidateText(text); err != nil {
		t.notify.Warn(domain.NoticeEmptyComment)
		return err
	}
	id, ok := t.session.Identity()
	if !ok || !id.Complete() {
		t.logger.Warn("comment skipped: no signed in identity")
		return ErrUnauthenticated
	}
	t.mu.RLock()
	loaded, taskID := t.loaded, t.task.TaskID
	t.mu.RUnlock()
	if !loaded {
		return errThreadNotLoaded
	}

	c, err := t.api.CreateComment(ctx, taskID, text)
	if err != nil {
		t.logger.WithError(err).WithField("task", taskID).Error("create comment failed")
		return err
	}
	t.mu.Lock()
	t.comments = append(t.comments, c)
	t.mu.Unlock()
	t.notify.Success(domain.NoticeCommentCreated)
	return nil
}

// Remove deletes a comment and drops it from the list.
func (t *CommentThread) Remove(ctx context.Context, commentID string) error {
	t.mu.RLock()
	loaded, taskID := t.loaded, t.task.TaskID
	t.mu.RUnlock()
	if !loaded {
		return errThreadNotLoaded
	}
	if err := t.api.DeleteComment(ctx, taskID, commentID); err != nil {
		t.logger.WithError(err).WithField("comment", commentID).Error("delete comment failed")
		return err
	}
	t.mu.Lock()
	kept := t.comments[:0:0]
	for _, c := range t.comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	t.comments = kept
	t.mu.Unlock()
	t.notify.Success(domain.NoticeCommentDeleted)
	return nil
}

// CanDelete reports whether the signed-in user wrote c.
func (t *CommentThread) CanDelete(c domain.Comment) bool {
	id, ok := t.session.Identity()
	return ok && c.WrittenBy(id)
}
