// Package chatclient 提供聊天组件的客户端核心：
// 会话状态、消息发送、流式解析与冷却限流
package chatclient

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system" // 仅用于本地合成的错误/提示消息，不发送给服务端
)

// ChatMessage 展示层消息
type ChatMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"` // epoch 秒
	// IsStreaming 仅在客户端存在，助手消息仍在接收增量内容时为 true
	IsStreaming bool `json:"isStreaming,omitempty"`
}

// StreamEvent 服务端推送的流事件
type StreamEvent struct {
	Type      string `json:"type"` // content, complete, error
	Content   string `json:"content,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// 流事件类型
const (
	EventContent  = "content"
	EventComplete = "complete"
	EventError    = "error"
)
