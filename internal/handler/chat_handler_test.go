package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"github.com/hzwen/portfolio-ai/internal/handler"
	"github.com/hzwen/portfolio-ai/internal/repository"
	"github.com/hzwen/portfolio-ai/internal/router"
	"github.com/hzwen/portfolio-ai/internal/service"
	"github.com/hzwen/portfolio-ai/internal/service/auth"
	"github.com/hzwen/portfolio-ai/internal/service/chat"
	"github.com/hzwen/portfolio-ai/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGenerator 补全路由的固定回复生成器
type fakeGenerator struct {
	reply string
}

func (f *fakeGenerator) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return schema.AssistantMessage(f.reply, nil), nil
}

func newTestRouter(t *testing.T, gen chat.Generator) (*gin.Engine, *repository.Repositories, *service.Services) {
	t.Helper()

	provider := testutil.MockAssistantProvider(t)
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	cfg := testutil.TestConfig(t, provider.URL, hash)
	repo := testutil.NewTestDB(t)

	svc, err := service.NewServices(repo, cfg, nil)
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	if gen != nil {
		svc.Chat = chat.NewService(repo, gen, "")
	}

	handlers := handler.NewHandlers(svc, repo.DB)
	return router.SetupRouter(handlers, svc.Auth), repo, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ========== 流式路由 ==========

func TestStreamEndpointWireFormat(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/chat/openai", `{"message":"hi","userId":"u1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("unexpected content type: %q", ct)
	}

	body := w.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(frames) < 2 {
		t.Fatalf("expected multiple SSE frames, got %q", body)
	}

	var accumulated string
	var last struct {
		Type     string `json:"type"`
		Content  string `json:"content"`
		ThreadID string `json:"threadId"`
	}
	for _, frame := range frames {
		if !strings.HasPrefix(frame, "data: ") {
			t.Fatalf("frame missing data prefix: %q", frame)
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &last); err != nil {
			t.Fatalf("frame is not JSON: %q", frame)
		}
		if last.Type == "content" {
			accumulated += last.Content
		}
	}

	if last.Type != "complete" {
		t.Errorf("stream must end with a complete event, got %q", last.Type)
	}
	if last.ThreadID != "thread_test" {
		t.Errorf("complete event must carry the thread id, got %q", last.ThreadID)
	}
	if accumulated != "Hello" {
		t.Errorf("expected accumulated content Hello, got %q", accumulated)
	}
}

func TestStreamEndpointValidation(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/chat/openai", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing message should be 400, got %d", w.Code)
	}
}

func TestStreamHistoryEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/api/chat/openai?sessionId=thread_test", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"messages"`) {
		t.Errorf("history payload missing messages: %s", w.Body.String())
	}

	if w := doJSON(t, r, http.MethodGet, "/api/chat/openai", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing sessionId should be 400, got %d", w.Code)
	}
}

func TestStreamDeleteEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodDelete, "/api/chat/openai?sessionId=thread_test", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("expected success payload, got %d: %s", w.Code, w.Body.String())
	}
}

// ========== 补全路由 ==========

func TestCompletionEndpoint(t *testing.T) {
	r, repo, _ := newTestRouter(t, &fakeGenerator{reply: "Sure thing."})

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{"message":"hello","userId":"u1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		SessionID string `json:"sessionId"`
		Message   struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !resp.Success || resp.SessionID == "" {
		t.Fatalf("unexpected payload: %s", w.Body.String())
	}
	if resp.Message.Role != "assistant" || resp.Message.Content != "Sure thing." {
		t.Errorf("unexpected message: %+v", resp.Message)
	}

	messages, err := repo.Chat.GetMessagesBySessionID(resp.SessionID)
	if err != nil || len(messages) != 2 {
		t.Errorf("expected persisted conversation, got %d messages (%v)", len(messages), err)
	}
}

func TestCompletionEndpointUnavailable(t *testing.T) {
	// 不注入生成器时补全模型缺失（测试配置没有 API key）
	r, _, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{"message":"hello"}`, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a chat model, got %d", w.Code)
	}
}

// ========== 管理端 ==========

func TestAdminLoginAndProtectedRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	if w := doJSON(t, r, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"wrong"}`, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad credentials should be 401, got %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"s3cret"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Data.Token == "" {
		t.Fatalf("no token in login response: %s", w.Body.String())
	}

	if w := doJSON(t, r, http.MethodPost, "/api/admin/projects", `{"title":"X"}`, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated admin call should be 401, got %d", w.Code)
	}

	authz := map[string]string{"Authorization": "Bearer " + resp.Data.Token}
	if w := doJSON(t, r, http.MethodPost, "/api/admin/projects", `{"title":"X"}`, authz); w.Code != http.StatusCreated {
		t.Errorf("authenticated create should be 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/api/projects", "", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"X"`) {
		t.Errorf("created project should be listed publicly: %d %s", w.Code, w.Body.String())
	}
}

// ========== 站点内容与埋点 ==========

func TestContactAndTelemetryEndpoints(t *testing.T) {
	r, repo, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/contact", `{"name":"V","email":"v@example.com","body":"hi"}`, nil)
	if w.Code != http.StatusCreated {
		t.Errorf("contact submit should be 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/api/contact", `{"name":"V","email":"not-an-email","body":"hi"}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad email should be 400, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/telemetry", `{"event":"page_view","userId":"u9"}`, nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("telemetry should be 202, got %d", w.Code)
	}
	events, err := repo.Telemetry.ListByEvent("page_view", 0, 10)
	if err != nil || len(events) != 1 {
		t.Errorf("event should be stored, got %d (%v)", len(events), err)
	}
}

func TestResumeAndHealthEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/api/resume", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Test Owner") {
		t.Errorf("resume endpoint failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health endpoint failed: %d %s", w.Code, w.Body.String())
	}
}
