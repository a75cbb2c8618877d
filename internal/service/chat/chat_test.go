package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hzwen/portfolio-ai/internal/database"
	"github.com/hzwen/portfolio-ai/internal/model"
	"github.com/hzwen/portfolio-ai/internal/repository"
)

// fakeGenerator 记录收到的提示词并返回固定回复
type fakeGenerator struct {
	lastInput []*schema.Message
	reply     string
	err       error
}

func (f *fakeGenerator) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func setup(t *testing.T, gen Generator) (*Service, *repository.Repositories) {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewRepositories(db.DB)
	return NewService(repo, gen, ""), repo
}

// ========== 发送消息 ==========

func TestSendMessageCreatesSessionAndPersists(t *testing.T) {
	gen := &fakeGenerator{reply: "Hi there!"}
	svc, repo := setup(t, gen)

	resp, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		Message: "Hello",
		UserID:  "user-1",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Message == nil || resp.Message.Content != "Hi there!" {
		t.Errorf("unexpected response message: %+v", resp.Message)
	}
	if resp.SessionID == "" {
		t.Fatal("a new session id must be returned")
	}

	messages, err := repo.Chat.GetMessagesBySessionID(resp.SessionID)
	if err != nil {
		t.Fatalf("GetMessagesBySessionID: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(messages))
	}

	// 访客被登记
	if _, err := repo.User.GetByID("user-1"); err != nil {
		t.Errorf("user should be recorded: %v", err)
	}
}

func TestSendMessageReusesSession(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := setup(t, gen)

	first, err := svc.SendMessage(context.Background(), &SendMessageRequest{Message: "one"})
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	second, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		Message:   "two",
		SessionID: first.SessionID,
	})
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session should be reused, got %q then %q", first.SessionID, second.SessionID)
	}
}

func TestSendMessageRecoversFromUnknownSession(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := setup(t, gen)

	resp, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		Message:   "hi",
		SessionID: "no-such-session",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.SessionID == "no-such-session" || resp.SessionID == "" {
		t.Errorf("a fresh session should replace the unknown one, got %q", resp.SessionID)
	}
}

func TestSendMessagePromptShape(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := setup(t, gen)

	first, err := svc.SendMessage(context.Background(), &SendMessageRequest{Message: "first question"})
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		Message:   "second question",
		SessionID: first.SessionID,
	}); err != nil {
		t.Fatalf("second send: %v", err)
	}

	if len(gen.lastInput) < 2 {
		t.Fatalf("prompt too short: %d messages", len(gen.lastInput))
	}
	if gen.lastInput[0].Role != schema.System {
		t.Errorf("prompt must start with the system message, got %s", gen.lastInput[0].Role)
	}

	var sawSecond bool
	for _, m := range gen.lastInput[1:] {
		if m.Content == "second question" {
			sawSecond = true
		}
	}
	if !sawSecond {
		t.Error("latest user message missing from the prompt")
	}
}

func TestSendMessageValidation(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := setup(t, gen)

	if _, err := svc.SendMessage(context.Background(), &SendMessageRequest{Message: "   "}); err == nil {
		t.Error("blank message must be rejected")
	}

	noGen, _ := setup(t, nil)
	if _, err := noGen.SendMessage(context.Background(), &SendMessageRequest{Message: "hi"}); !errors.Is(err, ErrGeneratorUnavailable) {
		t.Errorf("expected ErrGeneratorUnavailable, got %v", err)
	}
}

func TestSendMessageGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	svc, _ := setup(t, gen)

	_, err := svc.SendMessage(context.Background(), &SendMessageRequest{Message: "hi"})
	if err == nil || !strings.Contains(err.Error(), "model down") {
		t.Errorf("generator failure should surface, got %v", err)
	}
}

// ========== 项目关联 ==========

func TestSendMessageLinksMentionedProjects(t *testing.T) {
	gen := &fakeGenerator{reply: "You should check out the Orbit Tracker project."}
	svc, repo := setup(t, gen)

	project := &model.Project{ID: "p1", Title: "Orbit Tracker"}
	if err := repo.Project.Create(project); err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}

	resp, err := svc.SendMessage(context.Background(), &SendMessageRequest{Message: "any cool projects?"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	links, err := repo.Chat.GetProjectLinksBySession(resp.SessionID)
	if err != nil {
		t.Fatalf("GetProjectLinksBySession: %v", err)
	}
	if len(links) != 1 || links[0].ProjectID != "p1" {
		t.Fatalf("expected one link to p1, got %+v", links)
	}

	// 再次提到同一项目不重复记录
	if _, err := svc.SendMessage(context.Background(), &SendMessageRequest{
		Message:   "tell me more about orbit tracker",
		SessionID: resp.SessionID,
	}); err != nil {
		t.Fatalf("second send: %v", err)
	}
	links, _ = repo.Chat.GetProjectLinksBySession(resp.SessionID)
	if len(links) != 1 {
		t.Errorf("duplicate mention must not create a second link, got %d", len(links))
	}
}

// ========== 会话管理 ==========

func TestDeleteSessionRemovesMessages(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, repo := setup(t, gen)

	resp, err := svc.SendMessage(context.Background(), &SendMessageRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if err := svc.DeleteSession(context.Background(), resp.SessionID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	messages, err := repo.Chat.GetMessagesBySessionID(resp.SessionID)
	if err != nil {
		t.Fatalf("GetMessagesBySessionID: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("messages should be gone, got %d", len(messages))
	}
	if _, err := repo.Chat.GetSessionByID(resp.SessionID); err == nil {
		t.Error("session should be gone")
	}
}
