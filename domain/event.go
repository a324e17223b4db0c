package domain

import "time"

const (
	CollectionTasks    = "tasks"
	CollectionComments = "comments"

	OpCreated = "created"
	OpDeleted = "deleted"
)

// ChangeEvent records one mutation of the document store.
type ChangeEvent struct {
	Collection string `json:"collection"`
	Op         string `json:"op"`
	ID         string `json:"id"`
	Owner      string `json:"owner,omitempty"`
	TaskID     string `json:"taskId,omitempty"`
	Time       int64  `json:"time"`
}

// TaskChanged builds the event emitted after a task mutation.
func TaskChanged(op string, t Task) ChangeEvent {
	return ChangeEvent{
		Collection: CollectionTasks,
		Op:         op,
		ID:         t.ID,
		Owner:      t.Owner,
		Time:       time.Now().UnixNano(),
	}
}

// CommentChanged builds the event emitted after a comment mutation.
func CommentChanged(op string, c Comment) ChangeEvent {
	return ChangeEvent{
		Collection: CollectionComments,
		Op:         op,
		ID:         c.ID,
		Owner:      c.Author,
		TaskID:     c.TaskID,
		Time:       time.Now().UnixNano(),
	}
}
