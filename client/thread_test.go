package client

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/domain"
)

var (
	ana = domain.Identity{Email: "ana@example.com", Name: "Ana"}
	bob = domain.Identity{Email: "bob@example.com", Name: "Bob"}
)

func loadedThread(t *testing.T, who domain.SessionState) (*CommentThread, *fakeComments, *recordingNotifier) {
	t.Helper()
	api := &fakeComments{detail: TaskDetail{
		Item: domain.TaskView{TaskID: "t1", Text: "Ler", Public: true},
		AllComments: []domain.Comment{
			{ID: "c1", TaskID: "t1", Author: bob.Email, AuthorName: bob.Name, Text: "um"},
			{ID: "c2", TaskID: "t1", Author: ana.Email, AuthorName: ana.Name, Text: "dois"},
			{ID: "c3", TaskID: "t1", Author: bob.Email, AuthorName: bob.Name, Text: "três"},
		},
	}}
	session := NewSession()
	session.Set(who)
	n := &recordingNotifier{}
	thread := NewCommentThread(api, session, n, log.New())
	if err := thread.Load(context.Background(), "t1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return thread, api, n
}

func TestAppendAddsExactlyOneComment(t *testing.T) {
	thread, api, n := loadedThread(t, domain.SignedIn(ana))
	before := thread.Comments()

	if err := thread.Append(context.Background(), "novo"); err != nil {
		t.Fatalf("append: %v", err)
	}
	after := thread.Comments()
	if len(after) != len(before)+1 {
		t.Fatalf("expected one more comment, got %d -> %d", len(before), len(after))
	}
	last := after[len(after)-1]
	if last.TaskID != "t1" || last.Text != "novo" || last.ID == "" {
		t.Fatalf("unexpected appended comment %+v", last)
	}
	if len(api.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(api.created))
	}
	if len(n.success) != 1 || n.success[0] != domain.NoticeCommentCreated {
		t.Fatalf("unexpected notices %v", n.success)
	}
}

func TestAppendEmptyTextWarns(t *testing.T) {
	thread, api, n := loadedThread(t, domain.SignedIn(ana))
	if err := thread.Append(context.Background(), ""); !errors.Is(err, domain.ErrEmptyText) {
		t.Fatalf("expected empty text error, got %v", err)
	}
	if len(n.warnings) != 1 || n.warnings[0] != domain.NoticeEmptyComment {
		t.Fatalf("expected one warning, got %v", n.warnings)
	}
	if len(api.created) != 0 || len(thread.Comments()) != 3 {
		t.Fatal("empty comment reached the server")
	}
}

func TestAppendWithoutIdentityIsSkipped(t *testing.T) {
	for _, state := range []domain.SessionState{domain.SignedOut(), domain.PendingSession(), domain.SignedIn(domain.Identity{Email: "x@y"})} {
		thread, api, n := loadedThread(t, state)
		if err := thread.Append(context.Background(), "oi"); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("%v: expected unauthenticated, got %v", state.Status, err)
		}
		if len(api.created) != 0 || len(n.warnings) != 0 {
			t.Fatalf("%v: unexpected side effects", state.Status)
		}
	}
}

func TestAppendFailureLeavesList(t *testing.T) {
	thread, api, _ := loadedThread(t, domain.SignedIn(ana))
	api.err = errBoom
	if err := thread.Append(context.Background(), "oi"); !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(thread.Comments()) != 3 {
		t.Fatal("failed append changed the list")
	}
}

func TestRemoveDropsExactlyThatComment(t *testing.T) {
	thread, api, n := loadedThread(t, domain.SignedIn(bob))
	if err := thread.Remove(context.Background(), "c1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got := thread.Comments()
	if len(got) != 2 || got[0].ID != "c2" || got[1].ID != "c3" {
		t.Fatalf("unexpected comments %+v", got)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "c1" {
		t.Fatalf("unexpected delete calls %v", api.deleted)
	}
	if len(n.success) != 1 || n.success[0] != domain.NoticeCommentDeleted {
		t.Fatalf("unexpected notices %v", n.success)
	}
}

func TestRemoveFailureKeepsComment(t *testing.T) {
	thread, api, _ := loadedThread(t, domain.SignedIn(bob))
	api.err = errBoom
	if err := thread.Remove(context.Background(), "c1"); !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(thread.Comments()) != 3 {
		t.Fatal("failed remove changed the list")
	}
}

func TestCanDelete(t *testing.T) {
	thread, _, _ := loadedThread(t, domain.SignedIn(ana))
	comments := thread.Comments()
	if thread.CanDelete(comments[0]) || !thread.CanDelete(comments[1]) {
		t.Fatal("delete affordance must follow authorship")
	}
	anon, _, _ := loadedThread(t, domain.SignedOut())
	if anon.CanDelete(comments[1]) {
		t.Fatal("anonymous visitors cannot delete")
	}
}

func TestLoadNotVisible(t *testing.T) {
	api := &fakeComments{loadErr: ErrNotVisible}
	thread := NewCommentThread(api, NewSession(), nil, log.New())
	if err := thread.Load(context.Background(), "x"); !errors.Is(err, ErrNotVisible) {
		t.Fatalf("expected not visible, got %v", err)
	}
	if err := thread.Remove(context.Background(), "c1"); err == nil {
		t.Fatal("expected error on unloaded thread")
	}
}
