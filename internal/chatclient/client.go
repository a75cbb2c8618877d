package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 存储键
const (
	sessionStorageKey = "chat_session_id"
	userStorageKey    = "chat_user_id"
)

// 本地合成的用户可见文案
const (
	apologyMessage           = "I'm sorry, something went wrong while processing your message. Please try again."
	historyLoadFailedMessage = "Failed to load chat history. Starting a new conversation."
	historyNetworkMessage    = "Network error while loading chat history."
)

// defaultSendTimeout 单次发送的默认等待上限
const defaultSendTimeout = 120 * time.Second

// Config 客户端配置
type Config struct {
	BaseURL  string // 服务端地址，如 http://localhost:8080
	Provider string // openai 或 gemini，决定调用哪个路由

	HTTPClient   *http.Client
	SessionStore Store // 会话级（对应浏览器 tab）
	DurableStore Store // 持久级（跨进程）

	// SendTimeout 单次发送的等待上限，0 使用默认值，负数关闭超时
	SendTimeout time.Duration
}

// Client 聊天客户端
// 持有会话标识、消息列表与加载状态，串联发送/流式解析/状态回填
// 同一实例同一时刻只允许一次发送在途
type Client struct {
	mu sync.Mutex

	baseURL     string
	endpoint    string
	httpClient  *http.Client
	session     Store
	durable     Store
	sendTimeout time.Duration

	messages  []ChatMessage
	sessionID string
	userID    string
	isLoading bool
	sending   bool

	now   func() time.Time
	newID func() string
}

// NewClient 创建聊天客户端
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:     cfg.BaseURL,
		endpoint:    EndpointFor(cfg.Provider),
		httpClient:  cfg.HTTPClient,
		session:     cfg.SessionStore,
		durable:     cfg.DurableStore,
		sendTimeout: cfg.SendTimeout,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.session == nil {
		c.session = NewMemoryStore()
	}
	if c.durable == nil {
		c.durable = NewMemoryStore()
	}
	if c.sendTimeout == 0 {
		c.sendTimeout = defaultSendTimeout
	}
	return c
}

// Init 初始化客户端：恢复会话标识、生成用户标识，
// 已有会话时立即拉取历史
func (c *Client) Init(ctx context.Context) {
	c.mu.Lock()
	if sid, ok := c.session.Get(sessionStorageKey); ok {
		c.sessionID = sid
	}
	if uid, ok := c.durable.Get(userStorageKey); ok {
		c.userID = uid
	} else {
		c.userID = c.generateUserID()
		c.durable.Set(userStorageKey, c.userID)
	}
	sid := c.sessionID
	c.mu.Unlock()

	if sid != "" {
		c.FetchHistory(ctx, sid)
	}
}

// generateUserID 生成稳定伪用户标识，仅用于服务端归因
func (c *Client) generateUserID() string {
	return fmt.Sprintf("user-%d-%s", c.now().UnixMilli(), c.newID()[:8])
}

// Messages 当前消息列表的副本
func (c *Client) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// SessionID 当前会话标识，未建立时为空
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// UserID 当前用户标识
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// IsLoading 是否有发送在途
func (c *Client) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isLoading
}

// Endpoint 当前提供方对应的路由
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchHistory 拉取会话历史并整体替换本地消息列表
// 任何失败都只追加一条 system 提示消息，保持界面可用
func (c *Client) FetchHistory(ctx context.Context, sessionID string) {
	reqURL := fmt.Sprintf("%s%s?sessionId=%s", c.baseURL, c.endpoint, url.QueryEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.appendSystemMessage(historyNetworkMessage)
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.appendSystemMessage(historyNetworkMessage)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.appendSystemMessage(historyLoadFailedMessage)
		return
	}

	var payload struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.appendSystemMessage(historyLoadFailedMessage)
		return
	}

	normalized := make([]ChatMessage, 0, len(payload.Messages))
	for _, raw := range payload.Messages {
		normalized = append(normalized, NormalizeIncomingMessage(raw))
	}

	// 历史拉取是幂等且权威的：整体替换而非追加
	c.mu.Lock()
	c.messages = normalized
	c.mu.Unlock()
}

// sendRequest 发送消息的请求体
type sendRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId"`
}

// SendMessage 发送一条用户消息并消费流式回复
// 返回 true 表示成功；失败时助手占位消息被替换为致歉文案，
// 由调用方决定是否触发冷却
func (c *Client) SendMessage(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	if c.sending {
		// 同一实例不允许并发发送
		c.mu.Unlock()
		return false
	}
	c.sending = true

	userMsg := ChatMessage{
		ID:        c.newID(),
		Content:   text,
		Role:      RoleUser,
		CreatedAt: c.now().Unix(),
	}
	placeholder := ChatMessage{
		ID:          c.newID(),
		Content:     "",
		Role:        RoleAssistant,
		CreatedAt:   c.now().Unix(),
		IsStreaming: true,
	}
	c.messages = append(c.messages, userMsg, placeholder)
	placeholderID := placeholder.ID
	c.isLoading = true

	userID := c.userID
	if userID == "" {
		// 初始化竞态下的兜底生成
		userID = c.generateUserID()
		c.userID = userID
		c.durable.Set(userStorageKey, userID)
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	err := c.streamMessage(ctx, text, sessionID, userID, placeholderID)

	c.mu.Lock()
	if err != nil {
		c.updateMessage(placeholderID, func(m *ChatMessage) {
			m.Content = apologyMessage
			m.IsStreaming = false
		})
	}
	c.isLoading = false
	c.sending = false
	c.mu.Unlock()

	if err != nil {
		log.Printf("chatclient: send failed: %v", err)
		return false
	}
	return true
}

// streamMessage 执行 POST 并逐块消费响应流
func (c *Client) streamMessage(ctx context.Context, text, sessionID, userID, placeholderID string) error {
	if c.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sendTimeout)
		defer cancel()
	}

	body, err := json.Marshal(sendRequest{Message: text, SessionID: sessionID, UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if resp.Body == nil {
		return errors.New("response has no body")
	}

	// 补全路由返回一次性 JSON 而非事件流
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return c.consumeCompletion(resp.Body, placeholderID)
	}

	parser := NewStreamParser()
	var accumulated string

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range parser.Feed(string(buf[:n])) {
				if err := c.handleEvent(ev, &accumulated, placeholderID); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("stream read failed: %w", readErr)
		}
	}

	for _, ev := range parser.Flush() {
		if err := c.handleEvent(ev, &accumulated, placeholderID); err != nil {
			return err
		}
	}

	return nil
}

// consumeCompletion 处理补全路由的同步响应：
// 采纳会话标识（首次写入生效）并用落库的助手消息回填占位
func (c *Client) consumeCompletion(body io.Reader, placeholderID string) error {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == "" && payload.SessionID != "" {
		c.sessionID = payload.SessionID
		c.session.Set(sessionStorageKey, payload.SessionID)
	}
	c.updateMessage(placeholderID, func(m *ChatMessage) {
		m.Content = payload.Message.Content
		m.IsStreaming = false
	})
	return nil
}

// handleEvent 处理单个流事件
func (c *Client) handleEvent(ev StreamEvent, accumulated *string, placeholderID string) error {
	switch ev.Type {
	case EventContent:
		*accumulated += ev.Content
		full := *accumulated
		c.mu.Lock()
		// 整体覆盖占位内容，避免乱序更新造成重复
		c.updateMessage(placeholderID, func(m *ChatMessage) {
			m.Content = full
		})
		c.mu.Unlock()
	case EventComplete:
		c.mu.Lock()
		if c.sessionID == "" {
			// 会话标识只采纳一次，之后的 complete 事件不覆盖
			adopted := ev.ThreadID
			if adopted == "" {
				adopted = ev.SessionID
			}
			if adopted != "" {
				c.sessionID = adopted
				c.session.Set(sessionStorageKey, adopted)
			}
		}
		c.updateMessage(placeholderID, func(m *ChatMessage) {
			m.IsStreaming = false
		})
		c.mu.Unlock()
	case EventError:
		return errors.New(ev.Content)
	}
	return nil
}

// updateMessage 按 id 原地修改一条消息，调用方须持有锁
func (c *Client) updateMessage(id string, fn func(*ChatMessage)) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			fn(&c.messages[i])
			return
		}
	}
}

// appendSystemMessage 追加一条本地合成的 system 消息
func (c *Client) appendSystemMessage(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, ChatMessage{
		ID:        c.newID(),
		Content:   content,
		Role:      RoleSystem,
		CreatedAt: c.now().Unix(),
	})
}

// ClearChat 清空会话：尽力删除服务端记录，无条件重置本地状态
func (c *Client) ClearChat(ctx context.Context) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	if sessionID != "" {
		reqURL := fmt.Sprintf("%s%s?sessionId=%s", c.baseURL, c.endpoint, url.QueryEscape(sessionID))
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
		if err == nil {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				log.Printf("chatclient: failed to delete remote session: %v", err)
			} else {
				resp.Body.Close()
			}
		}
	}

	c.mu.Lock()
	c.messages = nil
	c.sessionID = ""
	c.session.Delete(sessionStorageKey)
	c.mu.Unlock()
}
