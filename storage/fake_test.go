package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// fakeTable keeps raw entities in memory and understands the
// "Prop eq 'value' and ..." filters the store issues.
type fakeTable struct {
	mu      sync.Mutex
	rows    map[string][]byte
	listErr error
	addErr  error
	filters []string
	gets    int
	deletes int
}

func newFakeTable() *fakeTable { return &fakeTable{rows: map[string][]byte{}} }

func (f *fakeTable) AddEntity(ctx context.Context, entity []byte, _ *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return aztables.AddEntityResponse{}, f.addErr
	}
	var props map[string]any
	if err := json.Unmarshal(entity, &props); err != nil {
		return aztables.AddEntityResponse{}, err
	}
	rk, _ := props["RowKey"].(string)
	if _, exists := f.rows[rk]; exists {
		return aztables.AddEntityResponse{}, &azcore.ResponseError{StatusCode: 409}
	}
	f.rows[rk] = append([]byte(nil), entity...)
	return aztables.AddEntityResponse{}, nil
}

func (f *fakeTable) DeleteEntity(ctx context.Context, pk, rk string, _ *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if _, ok := f.rows[rk]; !ok {
		return aztables.DeleteEntityResponse{}, &azcore.ResponseError{StatusCode: 404}
	}
	delete(f.rows, rk)
	return aztables.DeleteEntityResponse{}, nil
}

func (f *fakeTable) GetEntity(ctx context.Context, pk, rk string, _ *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	row, ok := f.rows[rk]
	if !ok {
		return aztables.GetEntityResponse{}, &azcore.ResponseError{StatusCode: 404}
	}
	return aztables.GetEntityResponse{Value: row}, nil
}

func (f *fakeTable) NewListEntitiesPager(o *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	filter := ""
	if o != nil && o.Filter != nil {
		filter = *o.Filter
	}
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool { return false },
		Fetcher: func(ctx context.Context, _ *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			if f.listErr != nil {
				return aztables.ListEntitiesResponse{}, f.listErr
			}
			return aztables.ListEntitiesResponse{Entities: f.match(filter)}, nil
		},
	})
}

func (f *fakeTable) match(filter string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := [][]byte{}
	for _, k := range keys {
		var props map[string]any
		_ = json.Unmarshal(f.rows[k], &props)
		if matchesFilter(props, filter) {
			out = append(out, f.rows[k])
		}
	}
	return out
}

func matchesFilter(props map[string]any, filter string) bool {
	if filter == "" {
		return true
	}
	for _, clause := range strings.Split(filter, " and ") {
		parts := strings.SplitN(clause, " eq ", 2)
		if len(parts) != 2 {
			return false
		}
		want := strings.ReplaceAll(strings.Trim(parts[1], "'"), "''", "'")
		got, _ := props[parts[0]].(string)
		if got != want {
			return false
		}
	}
	return true
}

func (f *fakeTable) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (q *fakeQueue) EnqueueMessage(ctx context.Context, content string, _ *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return azqueue.EnqueueMessagesResponse{}, q.err
	}
	q.messages = append(q.messages, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

func (q *fakeQueue) Messages() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.messages...)
}

var errBoom = errors.New("boom")
