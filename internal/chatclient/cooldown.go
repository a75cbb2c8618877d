package chatclient

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// cooldownDurations 连续失败的递增锁定时长表
var cooldownDurations = []time.Duration{
	5 * time.Second,
	30 * time.Second,
	120 * time.Second,
	300 * time.Second,
	600 * time.Second,
}

// Cooldown 客户端冷却限流器
// 连续失败时锁定时长递增，成功后重置；不跨进程持久化
type Cooldown struct {
	mu          sync.Mutex
	cooldownEnd time.Time
	errorCount  int
	now         func() time.Time
}

// NewCooldown 创建冷却限流器
func NewCooldown() *Cooldown {
	return &Cooldown{now: time.Now}
}

// StartCooldown 按当前失败次数启动一次冷却
// 失败处理先 StartCooldown 再 IncrementErrorCount：本次失败
// 用的是递增前的档位，递增效果体现在下一次失败上（保留既有行为）
func (c *Cooldown) StartCooldown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.errorCount
	if idx >= len(cooldownDurations) {
		idx = len(cooldownDurations) - 1
	}
	c.cooldownEnd = c.now().Add(cooldownDurations[idx])
}

// IncrementErrorCount 递增失败计数
func (c *Cooldown) IncrementErrorCount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCount++
}

// ResetCooldown 清除冷却状态，成功发送后调用
func (c *Cooldown) ResetCooldown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cooldownEnd = time.Time{}
	c.errorCount = 0
}

// IsCooldownActive 冷却是否仍在生效
func (c *Cooldown) IsCooldownActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.cooldownEnd)
}

// RemainingCooldown 剩余冷却秒数（向上取整），未生效时 <= 0
func (c *Cooldown) RemainingCooldown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.cooldownEnd.Sub(c.now())
	return int(math.Ceil(remaining.Seconds()))
}

// CooldownMessage 面向用户的剩余时间提示，未生效时返回空字符串
func (c *Cooldown) CooldownMessage() string {
	if !c.IsCooldownActive() {
		return ""
	}
	return fmt.Sprintf("Too many failed attempts. Please wait %d seconds before trying again.", c.RemainingCooldown())
}
