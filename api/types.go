package api

import (
	"context"

	"github.com/Davi2004/TarefasPlus/domain"
	"github.com/Davi2004/TarefasPlus/subscription"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateTask(ctx context.Context, owner string, in domain.NewTask) (string, error)
	DeleteTask(ctx context.Context, id string) error
	GetTask(ctx context.Context, id string) (domain.Task, bool, error)
	CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	GetComment(ctx context.Context, id string) (domain.Comment, bool, error)
	DeleteComment(ctx context.Context, id string) error
	CommentsByTask(ctx context.Context, taskID string) ([]domain.Comment, error)
}

// Authenticator is implemented by types able to verify ID tokens.
type Authenticator interface {
	IdentityFromAuthHeader(string) (domain.Identity, error)
	IdentityFromToken(string) (domain.Identity, error)
}

// Subscriber opens live task list queries.
type Subscriber interface {
	Subscribe(ctx context.Context, owner string) *subscription.Subscription
}
