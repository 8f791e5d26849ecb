// Package quota は1日あたりの生成回数を制限する利用枠ゲートを提供します。
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultDailyLimit は1日あたりの無料生成回数です。
	DefaultDailyLimit = 3
	dateLayout        = "2006-01-02"
)

// Gate はカウンタに基づく受付制御です。
//
// 日付の切り替わりは NewGate で1度だけ確認し、リクエストごとには確認しません。
// 長時間動作するホストは Rollover を明示的に呼び出してください。
// CheckAdmission と RecordSuccess は別の操作のため、同時に受け付けた要求が
// 両方とも通過して上限を1回超えることがあります。
type Gate struct {
	mu     sync.Mutex
	store  Store
	limit  int
	now    func() time.Time
	usage  Usage
	logger *slog.Logger
}

type GateOption func(*Gate)

// WithLimit は1日の上限回数を指定します。
func WithLimit(n int) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.limit = n
		}
	}
}

// WithClock は現在時刻の取得方法を差し替えます。テスト用です。
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate は保存済みの利用状況を読み込み、日付の切り替わりを確認します。
func NewGate(ctx context.Context, store Store, opts ...GateOption) (*Gate, error) {
	if store == nil {
		return nil, fmt.Errorf("store (quota.Store) is required")
	}
	g := &Gate{
		store:  store,
		limit:  DefaultDailyLimit,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	usage, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("利用状況の読み込みに失敗しました: %w", err)
	}
	g.usage = usage

	if err := g.Rollover(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Rollover は今日の日付が保存済みの日付と異なる場合にカウンタを 0 に戻して保存します。
func (g *Gate) Rollover(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.now().Format(dateLayout)
	if g.usage.Date == today {
		return nil
	}

	g.logger.InfoContext(ctx, "日付が変わったため利用回数をリセットします", "last_date", g.usage.Date, "today", today, "count", g.usage.Count)
	g.usage = Usage{Date: today, Count: 0}
	if err := g.store.Save(ctx, g.usage); err != nil {
		return fmt.Errorf("利用状況のリセットに失敗しました: %w", err)
	}
	return nil
}

// CheckAdmission は本日の残り回数がある場合に true を返します。
func (g *Gate) CheckAdmission() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage.Count < g.limit
}

// RecordSuccess はカウンタを1つ進めて保存します。
// 画像が生成された場合にのみ呼び出します。
func (g *Gate) RecordSuccess(ctx context.Context) error {
	g.mu.Lock()
	g.usage.Count++
	snapshot := g.usage
	g.mu.Unlock()

	if err := g.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("利用回数の保存に失敗しました: %w", err)
	}
	g.logger.DebugContext(ctx, "利用回数を記録しました", "date", snapshot.Date, "count", snapshot.Count, "limit", g.limit)
	return nil
}

// Usage は現在の利用状況を返します。
func (g *Gate) Usage() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

func (g *Gate) Limit() int { return g.limit }

// Remaining は本日の残り回数を返します。
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r := g.limit - g.usage.Count; r > 0 {
		return r
	}
	return 0
}
