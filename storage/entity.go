package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/Davi2004/TarefasPlus/domain"
)

type taskEntity struct {
	aztables.Entity
	Text    string    `json:"Text"`
	Owner   string    `json:"Owner"`
	Public  bool      `json:"Public"`
	Created time.Time `json:"Created"`
}

type commentEntity struct {
	aztables.Entity
	Text         string `json:"Text"`
	TaskID       string `json:"TaskId"`
	Author       string `json:"Author"`
	AuthorName   string `json:"AuthorName"`
	AuthorAvatar string `json:"AuthorAvatar"`
}

func encodeTask(t domain.Task) ([]byte, error) {
	return json.Marshal(aztables.EDMEntity{
		Entity: aztables.Entity{PartitionKey: taskPartition, RowKey: t.ID},
		Properties: map[string]any{
			"Text":    t.Text,
			"Owner":   t.Owner,
			"Public":  t.Public,
			"Created": aztables.EDMDateTime(t.CreatedAt),
		},
	})
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return domain.Task{
		ID:        ent.RowKey,
		Text:      ent.Text,
		CreatedAt: ent.Created,
		Owner:     ent.Owner,
		Public:    ent.Public,
	}, nil
}

func encodeComment(c domain.Comment, created time.Time) ([]byte, error) {
	props := map[string]any{
		"Text":       c.Text,
		"TaskId":     c.TaskID,
		"Author":     c.Author,
		"AuthorName": c.AuthorName,
		"Created":    aztables.EDMDateTime(created),
	}
	if c.AuthorAvatar != "" {
		props["AuthorAvatar"] = c.AuthorAvatar
	}
	return json.Marshal(aztables.EDMEntity{
		Entity:     aztables.Entity{PartitionKey: commentPartition, RowKey: c.ID},
		Properties: props,
	})
}

func decodeComment(data []byte) (domain.Comment, error) {
	var ent commentEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Comment{}, fmt.Errorf("decode comment: %w", err)
	}
	return domain.Comment{
		ID:           ent.RowKey,
		Text:         ent.Text,
		TaskID:       ent.TaskID,
		Author:       ent.Author,
		AuthorName:   ent.AuthorName,
		AuthorAvatar: ent.AuthorAvatar,
	}, nil
}
