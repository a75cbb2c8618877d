// Package testutil 提供测试辅助工具
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hzwen/portfolio-ai/internal/config"
	"github.com/hzwen/portfolio-ai/internal/database"
	"github.com/hzwen/portfolio-ai/internal/repository"
)

// MockAssistantProvider 模拟 Assistants API 的最小服务器
// 固定推送 "Hello" 两个增量后完成
func MockAssistantProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /threads", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"thread_test","created_at":%d}`, time.Now().Unix())
	})
	mux.HandleFunc("GET /threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"%s","created_at":%d}`, r.PathValue("id"), time.Now().Unix())
	})
	mux.HandleFunc("DELETE /threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"%s","deleted":true}`, r.PathValue("id"))
	})
	mux.HandleFunc("POST /threads/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"msg_1"}`)
	})
	mux.HandleFunc("GET /threads/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"msg_1","role":"user","created_at":100,"content":[{"type":"text","text":{"value":"hi"}}]}]}`)
	})
	mux.HandleFunc("POST /threads/{id}/runs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: thread.message.delta\ndata: {\"delta\":{\"content\":[{\"type\":\"text\",\"text\":{\"value\":\"He\"}}]}}\n\n")
		fmt.Fprint(w, "event: thread.message.delta\ndata: {\"delta\":{\"content\":[{\"type\":\"text\",\"text\":{\"value\":\"llo\"}}]}}\n\n")
		fmt.Fprint(w, "event: thread.run.completed\ndata: {\"id\":\"run_1\",\"status\":\"completed\"}\n\n")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestConfig 测试配置：内存库、mock 提供方、固定管理员凭据
// passwordHash 为空时管理端登录关闭
func TestConfig(t *testing.T, providerURL, passwordHash string) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.AI.Provider = "openai"
	cfg.AI.OpenAI.BaseURL = providerURL
	cfg.AI.OpenAI.AssistantID = "asst_test"
	cfg.AI.OpenAI.Timeout = 5
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AdminUsername = "admin"
	cfg.Auth.AdminPasswordHash = passwordHash
	cfg.Auth.TokenTTL = time.Hour
	cfg.Resume.Path = writeTestResume(t)
	return cfg
}

// NewTestDB 打开内存数据库并建好仓库
func NewTestDB(t *testing.T) *repository.Repositories {
	t.Helper()

	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repository.NewRepositories(db.DB)
}

func writeTestResume(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "resume.yaml")
	content := "name: Test Owner\nheadline: Engineer\nskills:\n  - Go\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test resume: %v", err)
	}
	return path
}
