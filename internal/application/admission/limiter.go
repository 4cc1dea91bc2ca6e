package admission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kltng/lcsh-validation-api/pkg/logger"
	"github.com/kltng/lcsh-validation-api/pkg/metrics"
)

// ErrRateLimited 客户端在窗口内的请求数已达上限
var ErrRateLimited = errors.New("rate limit exceeded")

// Decision 单次准入判定
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter 被拒绝时距离最早一条记录滑出窗口的时长
	RetryAfter time.Duration
}

// Limiter 按客户端标识限流
type Limiter interface {
	Allow(ctx context.Context, client string) (Decision, error)
}

// Option SlidingWindow 选项
type Option func(*SlidingWindow)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(w *SlidingWindow) {
		w.now = now
	}
}

// SlidingWindow 进程内滑动窗口限流器
// records 的读改写都在 mu 内完成
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	records map[string][]time.Time
}

// NewSlidingWindow 创建限流器
func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	w := &SlidingWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		records: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Allow 先剔除窗口外的记录再计数；被拒绝的请求不记录
func (w *SlidingWindow) Allow(_ context.Context, client string) (Decision, error) {
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	live := prune(w.records[client], now.Add(-w.window))
	if len(live) >= w.limit {
		w.records[client] = live
		retry := live[0].Add(w.window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, Limit: w.limit, Remaining: 0, RetryAfter: retry}, nil
	}

	live = append(live, now)
	w.records[client] = live
	return Decision{Allowed: true, Limit: w.limit, Remaining: w.limit - len(live)}, nil
}

// Sweep 删除窗口内已无记录的客户端，返回删除数量
func (w *SlidingWindow) Sweep() int {
	cutoff := w.now().Add(-w.window)

	w.mu.Lock()
	defer w.mu.Unlock()

	removed := 0
	for client, ts := range w.records {
		live := prune(ts, cutoff)
		if len(live) == 0 {
			delete(w.records, client)
			removed++
			continue
		}
		w.records[client] = live
	}
	metrics.RateLimitTrackedClients.Set(float64(len(w.records)))
	return removed
}

// Tracked 当前跟踪的客户端数量
func (w *SlidingWindow) Tracked() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// Run 周期性清理，直到 ctx 结束
func (w *SlidingWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := w.Sweep(); n > 0 {
				logger.Debug(ctx, "rate limit records swept", "removed", n)
			}
		}
	}
}

// prune 保留晚于 cutoff 的时间戳；ts 按时间升序
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}
