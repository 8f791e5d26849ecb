package quota

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shouni/vrazo-kit/pkg/kvstore"
)

const (
	keyLastDate   = "vrazo_last_date"
	keyDailyCount = "vrazo_daily_count"
)

// Usage は1日分の利用状況です。Date はローカル日付の YYYY-MM-DD です。
type Usage struct {
	Date  string
	Count int
}

// Store は Usage の永続化先です。
type Store interface {
	Load(ctx context.Context) (Usage, error)
	Save(ctx context.Context, u Usage) error
}

// KVStore は2つのスカラー値として Usage を kvstore に保存します。
type KVStore struct {
	kv kvstore.Store
}

func NewKVStore(kv kvstore.Store) *KVStore {
	return &KVStore{kv: kv}
}

// Load は保存済みの Usage を返します。未保存や数値として読めない値は 0 として扱います。
func (s *KVStore) Load(ctx context.Context) (Usage, error) {
	date, _, err := s.kv.Get(ctx, keyLastDate)
	if err != nil {
		return Usage{}, fmt.Errorf("利用日の読み込みに失敗しました: %w", err)
	}
	raw, ok, err := s.kv.Get(ctx, keyDailyCount)
	if err != nil {
		return Usage{}, fmt.Errorf("利用回数の読み込みに失敗しました: %w", err)
	}

	count := 0
	if ok {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			slog.WarnContext(ctx, "利用回数の値が不正なため 0 として扱います", "value", raw)
		} else {
			count = n
		}
	}
	return Usage{Date: date, Count: count}, nil
}

func (s *KVStore) Save(ctx context.Context, u Usage) error {
	if err := s.kv.Set(ctx, keyLastDate, u.Date); err != nil {
		return fmt.Errorf("利用日の保存に失敗しました: %w", err)
	}
	if err := s.kv.Set(ctx, keyDailyCount, strconv.Itoa(u.Count)); err != nil {
		return fmt.Errorf("利用回数の保存に失敗しました: %w", err)
	}
	return nil
}
