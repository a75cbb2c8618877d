// Package session 维护流式会话的本地缓存与在途流控制
package session

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// 线程缓存在 Redis 中的过期时间（24小时）
	threadTTL = 24 * time.Hour
	// Redis key 前缀
	threadKeyPrefix = "thread:"
)

// Message 缓存的会话消息
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// Thread 线程的本地镜像
// 提供方是权威存储，这里只做降级读取与最近状态缓存
type Thread struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager 会话管理器
// 内存为主，Redis 可选（nil 客户端时退化为纯内存）
type Manager struct {
	mu            sync.RWMutex
	memory        map[string]*Thread
	activeStreams map[string]*ActiveStream
	redis         *redis.Client
}

// ActiveStream 在途的提供方流
type ActiveStream struct {
	ThreadID   string
	CancelFunc context.CancelFunc
	Content    strings.Builder
	Done       bool
	CreatedAt  time.Time
	mu         sync.Mutex
}

// NewManager 创建会话管理器
func NewManager(redisClient *redis.Client) *Manager {
	return &Manager{
		memory:        make(map[string]*Thread),
		activeStreams: make(map[string]*ActiveStream),
		redis:         redisClient,
	}
}

// Get 获取线程镜像，不存在则创建空镜像
func (m *Manager) Get(ctx context.Context, threadID string) *Thread {
	m.mu.RLock()
	thread, ok := m.memory[threadID]
	m.mu.RUnlock()

	if ok {
		return thread
	}

	if m.redis != nil {
		if thread := m.loadFromRedis(ctx, threadID); thread != nil {
			m.mu.Lock()
			m.memory[threadID] = thread
			m.mu.Unlock()
			return thread
		}
	}

	thread = &Thread{
		ID:        threadID,
		Messages:  []Message{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.mu.Lock()
	m.memory[threadID] = thread
	m.mu.Unlock()
	return thread
}

// Append 向线程镜像追加一条消息
func (m *Manager) Append(ctx context.Context, threadID string, msg Message) {
	thread := m.Get(ctx, threadID)

	m.mu.Lock()
	thread.Messages = append(thread.Messages, msg)
	thread.UpdatedAt = time.Now()
	m.mu.Unlock()

	if m.redis != nil {
		if err := m.saveToRedis(ctx, thread); err != nil {
			// 缓存失败不影响主流程
			log.Printf("session: failed to save thread to redis: %v", err)
		}
	}
}

// History 线程镜像中的消息
func (m *Manager) History(ctx context.Context, threadID string) []Message {
	thread := m.Get(ctx, threadID)

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Message, len(thread.Messages))
	copy(out, thread.Messages)
	return out
}

// Clear 清除线程镜像并中止其在途流
func (m *Manager) Clear(ctx context.Context, threadID string) {
	m.StopStream(threadID)

	m.mu.Lock()
	delete(m.memory, threadID)
	m.mu.Unlock()

	if m.redis != nil {
		if err := m.redis.Del(ctx, threadKeyPrefix+threadID).Err(); err != nil {
			log.Printf("session: failed to delete thread from redis: %v", err)
		}
	}
}

func (m *Manager) loadFromRedis(ctx context.Context, threadID string) *Thread {
	data, err := m.redis.Get(ctx, threadKeyPrefix+threadID).Result()
	if err != nil {
		return nil
	}

	var thread Thread
	if err := json.Unmarshal([]byte(data), &thread); err != nil {
		return nil
	}
	return &thread
}

func (m *Manager) saveToRedis(ctx context.Context, thread *Thread) error {
	m.mu.RLock()
	data, err := json.Marshal(thread)
	m.mu.RUnlock()
	if err != nil {
		return err
	}
	return m.redis.Set(ctx, threadKeyPrefix+thread.ID, data, threadTTL).Err()
}

// ========== 在途流控制 ==========

// RegisterStream 注册一条在途流，同一线程的旧流先被中止
func (m *Manager) RegisterStream(threadID string, cancel context.CancelFunc) *ActiveStream {
	m.StopStream(threadID)

	m.mu.Lock()
	defer m.mu.Unlock()

	stream := &ActiveStream{
		ThreadID:   threadID,
		CancelFunc: cancel,
		CreatedAt:  time.Now(),
	}
	m.activeStreams[threadID] = stream
	return stream
}

// UnregisterStream 注销在途流
func (m *Manager) UnregisterStream(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stream, ok := m.activeStreams[threadID]; ok {
		stream.MarkDone()
		delete(m.activeStreams, threadID)
	}
}

// GetStream 获取在途流
func (m *Manager) GetStream(threadID string) *ActiveStream {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeStreams[threadID]
}

// StopStream 中止在途流，存在并被中止时返回 true
func (m *Manager) StopStream(threadID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	stream, ok := m.activeStreams[threadID]
	if !ok {
		return false
	}

	if stream.CancelFunc != nil {
		stream.CancelFunc()
	}
	stream.MarkDone()
	delete(m.activeStreams, threadID)
	return true
}

// AppendChunk 追加流内容
func (s *ActiveStream) AppendChunk(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Content.WriteString(chunk)
}

// GetContent 获取已累积的流内容
func (s *ActiveStream) GetContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Content.String()
}

// IsDone 流是否已结束
func (s *ActiveStream) IsDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Done
}

// MarkDone 标记流结束
func (s *ActiveStream) MarkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Done = true
}
