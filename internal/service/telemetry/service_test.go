package telemetry

import (
	"context"
	"testing"

	"github.com/hzwen/portfolio-ai/internal/database"
	"github.com/hzwen/portfolio-ai/internal/repository"
)

func setup(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewRepositories(db.DB)
	return NewService(repo), repo
}

func TestTrackAndList(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	err := svc.Track(ctx, &TrackRequest{
		Event:     "page_view",
		UserID:    "user-1",
		SessionID: "sess-1",
		Payload:   map[string]any{"path": "/projects"},
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := svc.Track(ctx, &TrackRequest{Event: "chat_opened", UserID: "user-1"}); err != nil {
		t.Fatalf("Track: %v", err)
	}

	all, err := svc.List(ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}

	views, err := svc.List(ctx, "page_view", 0, 0)
	if err != nil {
		t.Fatalf("List(page_view): %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 page_view, got %d", len(views))
	}
	if views[0].Payload == "" {
		t.Error("payload should be stored as JSON")
	}

	// 上报方也被登记为访客
	if _, err := repo.User.GetByID("user-1"); err != nil {
		t.Errorf("user should be recorded: %v", err)
	}
}
