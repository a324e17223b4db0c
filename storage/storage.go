package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/domain"
)

const (
	taskPartition    = "task"
	commentPartition = "comment"
)

type tableClient interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	NewListEntitiesPager(listOptions *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Storage is the document store client backed by Azure Table Storage.
// Every successful mutation is announced on the change queue.
type Storage struct {
	taskTable    tableClient
	commentTable tableClient
	changes      queueClient
	logger       *log.Logger
	now          func() time.Time
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, commentsTable, changesQueue string, logger *log.Logger) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	cq, err := azqueue.NewQueueClientFromConnectionString(connStr, changesQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return newStorage(svc.NewClient(tasksTable), svc.NewClient(commentsTable), cq, logger), nil
}

func newStorage(tasks, comments tableClient, changes queueClient, logger *log.Logger) *Storage {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Storage{
		taskTable:    tasks,
		commentTable: comments,
		changes:      changes,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateTask stores a new task and returns its generated identifier.
func (s *Storage) CreateTask(ctx context.Context, owner string, in domain.NewTask) (id string, err error) {
	ctx, span := startSpan(ctx, "storage.CreateTask")
	defer func() { endSpan(span, err) }()

	id, err = newID()
	if err != nil {
		return "", err
	}
	task := domain.Task{ID: id, Text: in.Text, CreatedAt: s.now().UTC(), Owner: owner, Public: in.Public}
	payload, err := encodeTask(task)
	if err != nil {
		return "", err
	}
	if _, err = s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return "", fmt.Errorf("add task: %w", err)
	}
	s.announce(ctx, domain.TaskChanged(domain.OpCreated, task))
	return id, nil
}

// DeleteTask removes the task with the given id. Comments are left untouched.
func (s *Storage) DeleteTask(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "storage.DeleteTask")
	defer func() { endSpan(span, err) }()

	task, found, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound
	}
	if _, err = s.taskTable.DeleteEntity(ctx, taskPartition, id, nil); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	s.announce(ctx, domain.TaskChanged(domain.OpDeleted, task))
	return nil
}

// GetTask reads a single task. A missing task is reported with found=false.
func (s *Storage) GetTask(ctx context.Context, id string) (task domain.Task, found bool, err error) {
	ctx, span := startSpan(ctx, "storage.GetTask")
	defer func() { endSpan(span, err) }()

	resp, err := s.taskTable.GetEntity(ctx, taskPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, false, nil
		}
		return domain.Task{}, false, fmt.Errorf("get task: %w", err)
	}
	task, err = decodeTask(resp.Value)
	if err != nil {
		return domain.Task{}, false, err
	}
	return task, true, nil
}

// TasksByOwner lists the owner's tasks, newest first.
func (s *Storage) TasksByOwner(ctx context.Context, owner string) (tasks []domain.Task, err error) {
	ctx, span := startSpan(ctx, "storage.TasksByOwner")
	defer func() { endSpan(span, err) }()

	filter := fmt.Sprintf("PartitionKey eq %s and Owner eq %s", quote(taskPartition), quote(owner))
	tasks = []domain.Task{}
	err = s.list(ctx, s.taskTable, filter, func(raw []byte) error {
		t, err := decodeTask(raw)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// CreateComment stores a comment and returns it with its generated id.
func (s *Storage) CreateComment(ctx context.Context, c domain.Comment) (out domain.Comment, err error) {
	ctx, span := startSpan(ctx, "storage.CreateComment")
	defer func() { endSpan(span, err) }()

	c.ID, err = newID()
	if err != nil {
		return domain.Comment{}, err
	}
	payload, err := encodeComment(c, s.now().UTC())
	if err != nil {
		return domain.Comment{}, err
	}
	if _, err = s.commentTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	s.announce(ctx, domain.CommentChanged(domain.OpCreated, c))
	return c, nil
}

// GetComment reads a single comment.
func (s *Storage) GetComment(ctx context.Context, id string) (c domain.Comment, found bool, err error) {
	ctx, span := startSpan(ctx, "storage.GetComment")
	defer func() { endSpan(span, err) }()

	resp, err := s.commentTable.GetEntity(ctx, commentPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Comment{}, false, nil
		}
		return domain.Comment{}, false, fmt.Errorf("get comment: %w", err)
	}
	c, err = decodeComment(resp.Value)
	if err != nil {
		return domain.Comment{}, false, err
	}
	return c, true, nil
}

// DeleteComment removes the comment with the given id.
func (s *Storage) DeleteComment(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "storage.DeleteComment")
	defer func() { endSpan(span, err) }()

	c, found, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound
	}
	if _, err = s.commentTable.DeleteEntity(ctx, commentPartition, id, nil); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	s.announce(ctx, domain.CommentChanged(domain.OpDeleted, c))
	return nil
}

// CommentsByTask lists the comments of a task in store order.
func (s *Storage) CommentsByTask(ctx context.Context, taskID string) (comments []domain.Comment, err error) {
	ctx, span := startSpan(ctx, "storage.CommentsByTask")
	defer func() { endSpan(span, err) }()

	filter := fmt.Sprintf("PartitionKey eq %s and TaskId eq %s", quote(commentPartition), quote(taskID))
	comments = []domain.Comment{}
	err = s.list(ctx, s.commentTable, filter, func(raw []byte) error {
		c, err := decodeComment(raw)
		if err != nil {
			return err
		}
		comments = append(comments, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Storage) list(ctx context.Context, table tableClient, filter string, fn func([]byte) error) error {
	pager := table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list entities: %w", err)
		}
		for _, e := range resp.Entities {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// announce publishes a change event. Failures are logged only: the write
// already happened and live views catch up on the next change.
func (s *Storage) announce(ctx context.Context, ev domain.ChangeEvent) {
	if s.changes == nil {
		return
	}
	data, err := sonic.Marshal(ev)
	if err != nil {
		s.logger.WithError(err).Error("marshal change event")
		return
	}
	if _, err := s.changes.EnqueueMessage(ctx, string(data), nil); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"collection": ev.Collection,
			"op":         ev.Op,
			"id":         ev.ID,
		}).Error("enqueue change event")
	}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// quote renders s as an OData string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
