package recommend

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy 上游重试策略，只对 ErrUpstreamUnavailable 生效
type RetryPolicy struct {
	Attempts   int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Delay 第 attempt 次失败（从 1 开始）后的等待时长
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.Initial <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.Initial)
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.Max > 0 && time.Duration(d) >= p.Max {
			return p.Max
		}
	}
	return time.Duration(d)
}

// do 执行 fn，遇到可重试错误时按策略退避；ctx 结束时立即返回
func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrUpstreamUnavailable) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
