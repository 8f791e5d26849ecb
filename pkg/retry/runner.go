package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Runner は一時的な障害のみを固定間隔で再試行する実行器です。
// 呼び出しをまたいだ状態は持ちません。
type Runner struct {
	maxAttempts int
	interval    time.Duration
	timer       backoff.Timer
	logger      *slog.Logger
}

type RunnerOption func(*Runner)

// WithMaxAttempts は初回を含む試行回数の上限を指定します。
// DefaultMaxAttempts を超える値は DefaultMaxAttempts に切り詰めます。
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		switch {
		case n > DefaultMaxAttempts:
			r.maxAttempts = DefaultMaxAttempts
		case n > 0:
			r.maxAttempts = n
		}
	}
}

// WithInterval は再試行前の待ち時間を指定します。
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d >= 0 {
			r.interval = d
		}
	}
}

// WithTimer は待機に使うタイマーを差し替えます。テスト用です。
func WithTimer(t backoff.Timer) RunnerOption {
	return func(r *Runner) { r.timer = t }
}

func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner は既定値 (2 回, 1 秒間隔) の Runner を作成します。
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		maxAttempts: DefaultMaxAttempts,
		interval:    DefaultInterval,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do は op を実行し、一時的な障害であれば上限まで再試行します。
// 返すエラーは常に *domain.ClassifiedError です。
func (r *Runner) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		ce := Classify(err)
		if d := Decide(ce, attempt, r.maxAttempts); !d.Retryable {
			return backoff.Permanent(ce)
		}
		return ce
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(r.interval)
	b = backoff.WithMaxRetries(b, uint64(r.maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	notify := func(err error, wait time.Duration) {
		r.logger.WarnContext(ctx, "一時的なエラーのため再試行します",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"wait", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, r.timer)
	if err == nil {
		return nil
	}
	ce := Classify(err)
	if IsTransient(ce) {
		r.logger.ErrorContext(ctx, "再試行の上限に達しました", "attempts", attempt, "reason", ce.Reason)
	}
	return ce
}

// Attempt は Do の戻り値を持ち回るための補助です。
func Attempt[T any](ctx context.Context, r *Runner, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
