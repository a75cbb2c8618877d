package chatclient

import (
	"encoding/json"
	"testing"
)

// ========== ExtractMessageContent 测试 ==========

func TestExtractMessageContent(t *testing.T) {
	tests := []struct {
		name     string
		content  any
		expected string
	}{
		{
			name:     "plain string",
			content:  "hi",
			expected: "hi",
		},
		{
			name: "typed text parts joined with newline",
			content: []ContentPart{
				{Type: "text", Text: &TextContent{Value: "a", Annotations: []any{}}},
				{Type: "text", Text: &TextContent{Value: "b", Annotations: []any{}}},
			},
			expected: "a\nb",
		},
		{
			name:     "non-text parts only",
			content:  []ContentPart{{Type: "image"}},
			expected: "",
		},
		{
			name:     "empty sequence",
			content:  []ContentPart{},
			expected: "",
		},
		{
			name:     "number falls back",
			content:  42,
			expected: FallbackContent,
		},
		{
			name:     "nil falls back",
			content:  nil,
			expected: FallbackContent,
		},
		{
			name:     "arbitrary object falls back",
			content:  map[string]any{"foo": "bar"},
			expected: FallbackContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractMessageContent(tt.content); got != tt.expected {
				t.Errorf("ExtractMessageContent() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestExtractMessageContent_DecodedJSON JSON 解码后的通用形状
func TestExtractMessageContent_DecodedJSON(t *testing.T) {
	raw := `[{"type":"text","text":{"value":"hello","annotations":[]}},{"type":"image_file"},{"type":"text","text":{"value":"world","annotations":[]}}]`

	var content any
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	if got := ExtractMessageContent(content); got != "hello\nworld" {
		t.Errorf("ExtractMessageContent() = %q, want %q", got, "hello\nworld")
	}
}

// ========== NormalizeIncomingMessage 测试 ==========

func TestNormalizeIncomingMessage(t *testing.T) {
	tests := []struct {
		name            string
		raw             map[string]any
		expectedRole    string
		expectedContent string
	}{
		{
			name:            "valid record passes through",
			raw:             map[string]any{"id": "m1", "role": "user", "content": "hello", "created_at": float64(1700000000)},
			expectedRole:    "user",
			expectedContent: "hello",
		},
		{
			name:            "bogus role and numeric content",
			raw:             map[string]any{"role": "bogus", "content": float64(123)},
			expectedRole:    RoleSystem,
			expectedContent: FallbackContent,
		},
		{
			name:            "text field as content fallback",
			raw:             map[string]any{"role": "assistant", "text": "from text field"},
			expectedRole:    "assistant",
			expectedContent: "from text field",
		},
		{
			name:            "message field as last string fallback",
			raw:             map[string]any{"role": "assistant", "message": "from message field"},
			expectedRole:    "assistant",
			expectedContent: "from message field",
		},
		{
			name:            "content precedes text and message",
			raw:             map[string]any{"role": "user", "content": "a", "text": "b", "message": "c"},
			expectedRole:    "user",
			expectedContent: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NormalizeIncomingMessage(tt.raw)

			if msg.Role != tt.expectedRole {
				t.Errorf("Role = %q, want %q", msg.Role, tt.expectedRole)
			}
			if msg.Content != tt.expectedContent {
				t.Errorf("Content = %q, want %q", msg.Content, tt.expectedContent)
			}
			if msg.ID == "" {
				t.Error("ID should never be empty")
			}
			if msg.CreatedAt <= 0 {
				t.Error("CreatedAt should default to a positive timestamp")
			}
		})
	}
}

func TestNormalizeIncomingMessage_KeepsProvidedValues(t *testing.T) {
	msg := NormalizeIncomingMessage(map[string]any{
		"id":         "keep-me",
		"role":       "system",
		"content":    "notice",
		"created_at": float64(42),
	})

	if msg.ID != "keep-me" {
		t.Errorf("ID = %q, want 'keep-me'", msg.ID)
	}
	if msg.CreatedAt != 42 {
		t.Errorf("CreatedAt = %d, want 42", msg.CreatedAt)
	}
}
