package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/hzwen/portfolio-ai/internal/config"
	"github.com/hzwen/portfolio-ai/internal/service/session"
)

// 占位的工具输出：未接入真实工具时让运行得以完成而非挂起
const placeholderToolOutput = "Tool execution is not available in this chat."

// toolLimitationNotice 工具调用被占位时推给客户端的提示
const toolLimitationNotice = "The assistant attempted to use a tool that is not available. The response may be incomplete."

// Service Assistants 流式服务
type Service struct {
	client      *Client
	assistantID string
	sessions    *session.Manager
}

// NewService 创建流式服务
// 助手标识未配置属于致命的部署错误，启动时记录，请求时返回 500
func NewService(cfg *config.Config, sessions *session.Manager) *Service {
	if cfg.AI.OpenAI.AssistantID == "" {
		log.Printf("ERROR: ai.openai.assistantId is not configured; streaming chat will reject all requests")
	}

	timeout := time.Duration(cfg.AI.OpenAI.Timeout) * time.Second
	return &Service{
		client:      NewClient(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.BaseURL, timeout),
		assistantID: cfg.AI.OpenAI.AssistantID,
		sessions:    sessions,
	}
}

// Configured 助手标识是否已配置
func (s *Service) Configured() bool {
	return s.assistantID != ""
}

// Event 推送给客户端的流事件
type Event struct {
	Type     string `json:"type"` // content, complete, error
	Content  string `json:"content,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
}

// 客户端事件类型
const (
	EventContent  = "content"
	EventComplete = "complete"
	EventError    = "error"
)

// StreamRequest 一次流式发送
type StreamRequest struct {
	Message  string
	ThreadID string // 可为空，空时新建线程
	UserID   string
}

// ErrNotConfigured 助手标识缺失
var ErrNotConfigured = errors.New("assistant id is not configured")

// StreamMessage 发送消息并返回客户端事件流
// 返回的通道总是会被关闭；最后一个事件总是 complete（携带线程 id
// 与完整文本），终止性失败在 complete 之前以 error 事件传递
func (s *Service) StreamMessage(ctx context.Context, req *StreamRequest) (<-chan Event, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if req.Message == "" {
		return nil, errors.New("message is required")
	}

	// 解析线程：过期或非法的客户端缓存 id 静默回退到新建
	thread, err := s.resolveThread(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}

	if err := s.client.CreateMessage(ctx, thread.ID, "user", req.Message); err != nil {
		return nil, err
	}
	s.sessions.Append(ctx, thread.ID, session.Message{
		Role:      "user",
		Content:   req.Message,
		CreatedAt: time.Now().Unix(),
	})

	runCtx, cancel := context.WithCancel(ctx)
	stream, err := s.client.StreamRun(runCtx, thread.ID, s.assistantID)
	if err != nil {
		cancel()
		return nil, err
	}

	active := s.sessions.RegisterStream(thread.ID, cancel)
	out := make(chan Event, 10)

	go func() {
		defer close(out)
		defer cancel()
		defer s.sessions.UnregisterStream(thread.ID)

		accumulated := s.consumeRun(runCtx, thread.ID, stream, active, out)

		// 无论成败都补发 complete，客户端据此落定会话标识
		s.emit(runCtx, out, Event{
			Type:     EventComplete,
			ThreadID: thread.ID,
			Content:  accumulated,
		})

		if accumulated != "" {
			s.sessions.Append(context.WithoutCancel(runCtx), thread.ID, session.Message{
				Role:      "assistant",
				Content:   accumulated,
				CreatedAt: time.Now().Unix(),
			})
		}
	}()

	return out, nil
}

// resolveThread 取回或新建线程
func (s *Service) resolveThread(ctx context.Context, threadID string) (*Thread, error) {
	if threadID != "" {
		thread, err := s.client.RetrieveThread(ctx, threadID)
		if err == nil {
			return thread, nil
		}
		log.Printf("assistant: stale thread %s, creating a new one: %v", threadID, err)
	}
	return s.client.CreateThread(ctx)
}

// consumeRun 消费一次运行的事件流直至终止，返回累积文本
// requires_action 会被占位输出接续，其余终止态转为 error 事件
func (s *Service) consumeRun(ctx context.Context, threadID string, stream *RunStream, active *session.ActiveStream, out chan<- Event) string {
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if err == io.EOF {
			return active.GetContent()
		}
		if err != nil {
			s.emit(ctx, out, Event{Type: EventError, Content: fmt.Sprintf("stream interrupted: %v", err)})
			return active.GetContent()
		}

		switch ev.Name {
		case "thread.message.delta":
			for _, chunk := range decodeDelta(ev.Data) {
				active.AppendChunk(chunk)
				if !s.emit(ctx, out, Event{Type: EventContent, Content: chunk, ThreadID: threadID}) {
					return active.GetContent()
				}
			}

		case "thread.run.requires_action":
			next, ok := s.submitPlaceholderOutputs(ctx, threadID, ev.Data, out)
			if !ok {
				return active.GetContent()
			}
			// 换用提交后返回的新流继续消费
			stream.Close()
			stream = next

		case "thread.run.completed":
			return active.GetContent()

		case "thread.run.failed", "thread.run.cancelled", "thread.run.expired", "thread.run.incomplete":
			s.emit(ctx, out, Event{Type: EventError, Content: runFailureMessage(ev)})
			return active.GetContent()

		case "done":
			return active.GetContent()
		}
	}
}

// submitPlaceholderOutputs 为所有请求的工具调用提交占位输出
// 同时向客户端推送一条能力受限的 error 提示
func (s *Service) submitPlaceholderOutputs(ctx context.Context, threadID string, data []byte, out chan<- Event) (*RunStream, bool) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil || run.RequiredAction == nil {
		s.emit(ctx, out, Event{Type: EventError, Content: "assistant requested an unrecognized action"})
		return nil, false
	}

	s.emit(ctx, out, Event{Type: EventError, Content: toolLimitationNotice})

	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, ToolOutput{ToolCallID: call.ID, Output: placeholderToolOutput})
	}

	next, err := s.client.SubmitToolOutputs(ctx, threadID, run.ID, outputs)
	if err != nil {
		s.emit(ctx, out, Event{Type: EventError, Content: fmt.Sprintf("failed to submit tool outputs: %v", err)})
		return nil, false
	}
	return next, true
}

// emit 推送事件，客户端断开时返回 false
func (s *Service) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// decodeDelta 从 message delta 中取出文本增量
func decodeDelta(data []byte) []string {
	var delta struct {
		Delta struct {
			Content []struct {
				Type string `json:"type"`
				Text *struct {
					Value string `json:"value"`
				} `json:"text,omitempty"`
			} `json:"content"`
		} `json:"delta"`
	}
	if err := json.Unmarshal(data, &delta); err != nil {
		log.Printf("assistant: skip malformed delta: %v", err)
		return nil
	}

	var chunks []string
	for _, part := range delta.Delta.Content {
		if part.Type == "text" && part.Text != nil && part.Text.Value != "" {
			chunks = append(chunks, part.Text.Value)
		}
	}
	return chunks
}

// runFailureMessage 终止性失败的用户可见描述
func runFailureMessage(ev *StreamEvent) string {
	var run Run
	if err := json.Unmarshal(ev.Data, &run); err == nil && run.LastError != nil {
		return fmt.Sprintf("run %s: %s", run.Status, run.LastError.Message)
	}
	return fmt.Sprintf("run ended without completing (%s)", ev.Name)
}

// HistoryMessage 线程历史中的一条消息
type HistoryMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// GetHistory 按时间正序取回线程历史，文本块以换行拼接
// 提供方不可达时降级读取本地镜像
func (s *Service) GetHistory(ctx context.Context, threadID string) ([]HistoryMessage, error) {
	messages, err := s.client.ListMessages(ctx, threadID)
	if err != nil {
		cached := s.sessions.History(ctx, threadID)
		if len(cached) == 0 {
			return nil, err
		}
		log.Printf("assistant: serving cached history for %s: %v", threadID, err)
		out := make([]HistoryMessage, 0, len(cached))
		for _, m := range cached {
			out = append(out, HistoryMessage{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
		}
		return out, nil
	}

	out := make([]HistoryMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, HistoryMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Text(),
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

// DeleteSession 中止在途流并删除远端线程
func (s *Service) DeleteSession(ctx context.Context, threadID string) error {
	s.sessions.Clear(ctx, threadID)
	if err := s.client.DeleteThread(ctx, threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}
