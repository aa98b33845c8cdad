// Package ratelimit 提供按调用方隔离的请求限流。
//
// 显式构造、显式注入、可显式重置，不依赖任何包级单例，
// 换成分布式部署时整个组件可替换。
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter 按key（投票人ID或IP）维护独立令牌桶
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// New 速率按每分钟请求数给定
func New(requestsPerMinute int, burst int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

// Allow 非阻塞判断该key当前是否放行
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// 拿到写锁后再查一次，避免重复创建
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.rate, l.burst)
	l.limiters[key] = limiter

	return limiter
}

// Reset 清空单个key的计数
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
}

// ResetAll 清空全部计数，测试与运维用
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters = make(map[string]*rate.Limiter)
}
