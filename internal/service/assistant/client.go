// Package assistant 桥接 OpenAI Assistants API：
// 线程管理、消息追加、流式运行与工具调用占位提交
package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultBaseURL OpenAI API 默认地址
const defaultBaseURL = "https://api.openai.com/v1"

// Client Assistants API 最小客户端
// 只覆盖本服务用到的端点：threads、messages、runs（流式）
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建 API 客户端
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Thread 提供方托管的会话容器
type Thread struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// ThreadMessage 线程内的一条消息
type ThreadMessage struct {
	ID        string        `json:"id"`
	Role      string        `json:"role"`
	CreatedAt int64         `json:"created_at"`
	Content   []contentPart `json:"content"`
}

// contentPart 消息内容块
type contentPart struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

// Text 拼接消息的所有文本块，换行分隔
func (m *ThreadMessage) Text() string {
	parts := make([]string, 0, len(m.Content))
	for _, p := range m.Content {
		if p.Type == "text" && p.Text != nil {
			parts = append(parts, p.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolCall 运行请求的工具调用
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ToolOutput 工具调用的输出
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Run 提供方的一次运行
type Run struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	LastError      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error,omitempty"`
	RequiredAction *struct {
		Type              string `json:"type"`
		SubmitToolOutputs struct {
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action,omitempty"`
}

// apiError 提供方错误响应
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// do 发送一次 JSON 请求
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")
}

func decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("provider error (%d): %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("provider error: status %d", resp.StatusCode)
}

// CreateThread 创建线程
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &thread); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &thread, nil
}

// RetrieveThread 获取线程，过期或非法的 id 返回错误
func (c *Client) RetrieveThread(ctx context.Context, threadID string) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID, nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// DeleteThread 删除线程
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.do(ctx, http.MethodDelete, "/threads/"+threadID, nil, nil)
}

// CreateMessage 向线程追加一条消息
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) error {
	body := map[string]string{"role": role, "content": content}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListMessages 按时间正序列出线程消息
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	var payload struct {
		Data []ThreadMessage `json:"data"`
	}
	path := "/threads/" + threadID + "/messages?order=asc&limit=100"
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return payload.Data, nil
}

// StreamRun 以流式模式启动一次运行
func (c *Client) StreamRun(ctx context.Context, threadID, assistantID string) (*RunStream, error) {
	body := map[string]any{"assistant_id": assistantID, "stream": true}
	return c.openStream(ctx, "/threads/"+threadID+"/runs", body)
}

// SubmitToolOutputs 提交工具输出并继续流式消费
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*RunStream, error) {
	body := map[string]any{"tool_outputs": outputs, "stream": true}
	path := "/threads/" + threadID + "/runs/" + runID + "/submit_tool_outputs"
	return c.openStream(ctx, path, body)
}

// openStream 发起流式 POST，返回 SSE 读取器
func (c *Client) openStream(ctx context.Context, path string, body any) (*RunStream, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	// 流式请求不受客户端整体超时约束，由 ctx 控制生命周期
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	return newRunStream(resp.Body), nil
}

// RunStream 提供方 SSE 流的读取器
type RunStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// StreamEvent 提供方推送的一个完整事件
type StreamEvent struct {
	Name string
	Data []byte
}

func newRunStream(body io.ReadCloser) *RunStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &RunStream{body: body, scanner: scanner}
}

// Next 读取下一个事件，流结束返回 io.EOF
func (s *RunStream) Next() (*StreamEvent, error) {
	var ev StreamEvent
	for s.scanner.Scan() {
		line := s.scanner.Text()

		switch {
		case line == "":
			// 空行分帧：有内容则产出
			if ev.Name != "" || len(ev.Data) > 0 {
				return &ev, nil
			}
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.Data = append(ev.Data, []byte(strings.TrimSpace(strings.TrimPrefix(line, "data:")))...)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if ev.Name != "" || len(ev.Data) > 0 {
		return &ev, nil
	}
	return nil, io.EOF
}

// Close 关闭底层连接
func (s *RunStream) Close() error {
	return s.body.Close()
}
