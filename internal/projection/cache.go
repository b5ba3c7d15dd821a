package projection

import (
	"sync"

	"trashtrackr/internal/reports"
)

// 文档注释：投影的进程内副本
// 背景：HTTP 读接口与 SSE 推送共享最近一次快照；每次 Update 整体替换。
// 约束：监听通道容量为 1，只保留最新快照，慢消费者不会阻塞 Update。
type Cache struct {
	mu        sync.RWMutex
	records   []reports.Report
	ready     bool
	listeners map[chan []reports.Report]struct{}
}

func NewCache() *Cache {
	return &Cache{listeners: map[chan []reports.Report]struct{}{}}
}

// Update：替换当前快照并通知监听者，可直接作为 Subscribe 的 onUpdate
func (c *Cache) Update(recs []reports.Report) {
	c.mu.Lock()
	c.records = recs
	c.ready = true
	ls := make([]chan []reports.Report, 0, len(c.listeners))
	for ch := range c.listeners {
		ls = append(ls, ch)
	}
	c.mu.Unlock()
	for _, ch := range ls {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- recs:
		default:
		}
	}
}

// Records：当前快照；调用方不得修改返回的记录
func (c *Cache) Records() []reports.Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records
}

// Ready：是否已收到首个快照
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Listen：注册监听；已有快照时立即投递一次。返回的 cancel 可重复调用
func (c *Cache) Listen() (<-chan []reports.Report, func()) {
	ch := make(chan []reports.Report, 1)
	c.mu.Lock()
	c.listeners[ch] = struct{}{}
	if c.ready {
		ch <- c.records
	}
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, ch)
			c.mu.Unlock()
		})
	}
}
