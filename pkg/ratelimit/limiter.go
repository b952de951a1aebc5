// Package ratelimit 按 key（通常是客户端 IP）做令牌桶限流
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTimeout = 10 * time.Minute

// LimiterManager 为每个 key 维护一个 rate.Limiter，长时间未使用的自动清理
type LimiterManager struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	idle     time.Duration

	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewLimiterManager requestsPerMin 为每分钟允许的请求数，burst 为桶容量
func NewLimiterManager(requestsPerMin, burst int) *LimiterManager {
	if requestsPerMin <= 0 {
		requestsPerMin = 1
	}
	if burst <= 0 {
		burst = 1
	}
	m := &LimiterManager{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0),
		burst:    burst,
		idle:     defaultIdleTimeout,
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go m.cleanupRoutine(m.idle)
	return m
}

// Allow 非阻塞判断 key 本次请求是否放行
func (m *LimiterManager) Allow(key string) bool {
	return m.limiter(key).Allow()
}

func (m *LimiterManager) limiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.limiters[key]
	if !ok {
		l = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = l
	}
	m.lastSeen[key] = m.now()
	return l
}

// Active 当前持有的 limiter 数
func (m *LimiterManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

func (m *LimiterManager) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.done:
			return
		}
	}
}

func (m *LimiterManager) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, seen := range m.lastSeen {
		if now.Sub(seen) > m.idle {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}
}

// Stop 停止后台清理，可重复调用
func (m *LimiterManager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}
