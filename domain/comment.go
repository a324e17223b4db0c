package domain

// Comment is a note left by a signed-in user on a public task.
type Comment struct {
	ID           string `json:"id"`
	Text         string `json:"comment"`
	TaskID       string `json:"taskId"`
	Author       string `json:"user"`
	AuthorName   string `json:"name"`
	AuthorAvatar string `json:"profilePhoto,omitempty"`
}

// CommentBy builds a comment authored by id on the given task.
func CommentBy(id Identity, taskID, text string) Comment {
	return Comment{
		Text:         text,
		TaskID:       taskID,
		Author:       id.Email,
		AuthorName:   id.Name,
		AuthorAvatar: id.Image,
	}
}

// WrittenBy reports whether the comment belongs to id.
func (c Comment) WrittenBy(id Identity) bool {
	return id.Email != "" && c.Author == id.Email
}
