package portfolio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hzwen/portfolio-ai/internal/database"
	"github.com/hzwen/portfolio-ai/internal/repository"
)

const testResume = `
name: Jane Doe
headline: Backend engineer
summary: Builds small reliable services.
skills:
  - Go
  - SQL
work:
  - title: Engineer
    org: Acme
    period: 2021-2024
`

func setup(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	resumePath := filepath.Join(t.TempDir(), "resume.yaml")
	if err := os.WriteFile(resumePath, []byte(testResume), 0o644); err != nil {
		t.Fatalf("failed to write resume: %v", err)
	}

	repo := repository.NewRepositories(db.DB)
	return NewService(repo, resumePath), repo
}

// ========== 简历 ==========

func TestGetResume(t *testing.T) {
	svc, _ := setup(t)

	resume, err := svc.GetResume(context.Background())
	if err != nil {
		t.Fatalf("GetResume: %v", err)
	}
	if resume.Name != "Jane Doe" {
		t.Errorf("unexpected name: %q", resume.Name)
	}
	if len(resume.Skills) != 2 || resume.Skills[0] != "Go" {
		t.Errorf("unexpected skills: %v", resume.Skills)
	}
	if len(resume.Work) != 1 || resume.Work[0].Org != "Acme" {
		t.Errorf("unexpected work entries: %+v", resume.Work)
	}
}

func TestGetResumeMissingFile(t *testing.T) {
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewService(repository.NewRepositories(db.DB), "/nonexistent/resume.yaml")
	if _, err := svc.GetResume(context.Background()); err == nil {
		t.Error("missing resume file must return an error")
	}
	if prompt := svc.SystemPrompt(context.Background()); prompt != "" {
		t.Errorf("SystemPrompt should be empty without a resume, got %q", prompt)
	}
}

func TestSystemPromptIncludesProfileAndProjects(t *testing.T) {
	svc, _ := setup(t)

	if _, err := svc.CreateProject(context.Background(), &ProjectRequest{
		Title:   "Orbit Tracker",
		Summary: "Tracks satellites.",
	}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	prompt := svc.SystemPrompt(context.Background())
	for _, want := range []string{"Jane Doe", "Go, SQL", "Orbit Tracker"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

// ========== 项目 ==========

func TestProjectLifecycle(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	created, err := svc.CreateProject(ctx, &ProjectRequest{Title: "One", Featured: true})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := svc.CreateProject(ctx, &ProjectRequest{Title: "Two"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	all, err := svc.ListProjects(ctx, false)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(all))
	}

	featured, err := svc.ListProjects(ctx, true)
	if err != nil {
		t.Fatalf("ListProjects(featured): %v", err)
	}
	if len(featured) != 1 || featured[0].ID != created.ID {
		t.Errorf("unexpected featured list: %+v", featured)
	}

	updated, err := svc.UpdateProject(ctx, created.ID, &ProjectRequest{Title: "One v2"})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if updated.Title != "One v2" || updated.Featured {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := svc.DeleteProject(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := svc.GetProject(ctx, created.ID); err == nil {
		t.Error("deleted project should be gone")
	}
}

func TestUpdateUnknownProject(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.UpdateProject(context.Background(), "missing", &ProjectRequest{Title: "x"}); err == nil {
		t.Error("updating an unknown project must fail")
	}
}

// ========== 联系表单 ==========

func TestSubmitAndListContact(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	msg, err := svc.SubmitContact(ctx, &ContactRequest{
		Name:  "Visitor",
		Email: "visitor@example.com",
		Body:  "Nice site!",
	})
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("message id must be set")
	}

	messages, err := svc.ListContactMessages(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListContactMessages: %v", err)
	}
	if len(messages) != 1 || messages[0].Email != "visitor@example.com" {
		t.Errorf("unexpected messages: %+v", messages)
	}
}
