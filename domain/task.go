package domain

import (
	"strings"
	"time"
)

// Task is a single entry on a user's board.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created"`
	Owner     string    `json:"user"`
	Public    bool      `json:"public"`
}

// NewTask carries the fields a user submits when registering a task.
type NewTask struct {
	Text   string `json:"text"`
	Public bool   `json:"public"`
}

// TaskView is the payload rendered on the task detail page.
type TaskView struct {
	Text    string `json:"tarefa"`
	Public  bool   `json:"public"`
	Created string `json:"created"`
	User    string `json:"user"`
	TaskID  string `json:"taskId"`
}

// DateFormat renders creation timestamps for display.
type DateFormat struct {
	Layout   string
	Location *time.Location
}

// DefaultDateFormat matches the short pt-BR date the UI has always shown.
var DefaultDateFormat = DateFormat{Layout: "02/01/2006", Location: time.UTC}

// Format renders t using the configured layout and location.
func (f DateFormat) Format(t time.Time) string {
	layout := f.Layout
	if layout == "" {
		layout = DefaultDateFormat.Layout
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layout)
}

// View normalizes the task for the detail page. The date is formatted on
// every call and never stored.
func (t Task) View(f DateFormat) TaskView {
	return TaskView{
		Text:    t.Text,
		Public:  t.Public,
		Created: f.Format(t.CreatedAt),
		User:    t.Owner,
		TaskID:  t.ID,
	}
}

// ValidateText rejects blank task and comment bodies.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}
