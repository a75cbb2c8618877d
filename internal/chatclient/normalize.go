package chatclient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FallbackContent 无法识别消息内容时的固定占位文本
const FallbackContent = "Unable to display message content"

// TextContent 结构化内容块中的文本部分
type TextContent struct {
	Value       string `json:"value"`
	Annotations []any  `json:"annotations"`
}

// ContentPart 提供方返回的内容块（text 或其他类型）
type ContentPart struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// ExtractMessageContent 将异构的消息内容统一为可展示的字符串
// 全函数：对任意输入都返回字符串，不 panic
//   - 字符串原样返回
//   - 内容块序列取所有 type=="text" 的 text.value，按顺序用换行拼接
//   - 其他形状返回固定占位文本
func ExtractMessageContent(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []ContentPart:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if p.Type == "text" && p.Text != nil {
				parts = append(parts, p.Text.Value)
			}
		}
		return strings.Join(parts, "\n")
	case []any:
		// JSON 解码后的通用形状
		parts := make([]string, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if m["type"] != "text" {
				continue
			}
			text, ok := m["text"].(map[string]any)
			if !ok {
				continue
			}
			if value, ok := text["value"].(string); ok {
				parts = append(parts, value)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return FallbackContent
	}
}

// NormalizeIncomingMessage 对服务端历史记录做防御性字段纠偏
// 规则：
//   - id 缺失时生成新 id
//   - content 取 content|text|message 中第一个字符串字段，否则用占位文本
//   - role 非法时回退为 system
//   - created_at 非数字时回退为当前时间（epoch 秒）
func NormalizeIncomingMessage(raw map[string]any) ChatMessage {
	msg := ChatMessage{
		ID:        uuid.New().String(),
		Content:   FallbackContent,
		Role:      RoleSystem,
		CreatedAt: time.Now().Unix(),
	}

	if id, ok := raw["id"].(string); ok && id != "" {
		msg.ID = id
	}

	for _, field := range []string{"content", "text", "message"} {
		if s, ok := raw[field].(string); ok {
			msg.Content = s
			break
		}
	}

	switch raw["role"] {
	case RoleUser, RoleAssistant, RoleSystem:
		msg.Role = raw["role"].(string)
	}

	switch ts := raw["created_at"].(type) {
	case float64:
		msg.CreatedAt = int64(ts)
	case int64:
		msg.CreatedAt = ts
	case int:
		msg.CreatedAt = int64(ts)
	}

	return msg
}
