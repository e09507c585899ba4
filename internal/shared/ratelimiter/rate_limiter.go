package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiterInterface は、キーごとに操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Allow(key string) bool
}

// window はキーごとの固定ウィンドウの状態です。
type window struct {
	count     int
	lastReset time.Time
}

// RateLimiterは、キー（クライアントIPなど）ごとに固定ウィンドウで操作の頻度を制限します。
// 上限を超えた呼び出しは待機せずに拒否されます。
type RateLimiter struct {
	limit    int           // interval あたりの上限
	interval time.Duration // どの単位でリセットするか
	now      func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		now:      time.Now,
		windows:  make(map[string]*window),
	}
}

// Allowはkeyの呼び出しが上限内であればtrueを返し、カウントを進めます。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.lastReset) >= rl.interval {
		w = &window{lastReset: now}
		rl.windows[key] = w
	}
	// 掃除は interval ごとに一度だけ行う
	if now.Sub(rl.lastSweep) >= rl.interval {
		rl.sweep(now)
		rl.lastSweep = now
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// sweep は期限切れのウィンドウを削除し、マップの肥大化を防ぎます。
func (rl *RateLimiter) sweep(now time.Time) {
	for k, w := range rl.windows {
		if now.Sub(w.lastReset) >= rl.interval {
			delete(rl.windows, k)
		}
	}
}
