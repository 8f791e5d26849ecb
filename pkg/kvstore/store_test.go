package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 全バックエンドで同じ振る舞いを確認する
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "vrazo_daily_count", "1"))
	v, ok, err := s.Get(ctx, "vrazo_daily_count")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	// 上書きは最後の書き込みが勝つ
	require.NoError(t, s.Set(ctx, "vrazo_daily_count", "2"))
	v, _, err = s.Get(ctx, "vrazo_daily_count")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, s.Set(ctx, "empty", ""))
	v, ok, err = s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok, "空文字も値として保存される")
	assert.Empty(t, v)

	require.NoError(t, s.Delete(ctx, "vrazo_daily_count"))
	_, ok, err = s.Get(ctx, "vrazo_daily_count")
	require.NoError(t, err)
	assert.False(t, ok)

	// 存在しないキーの削除はエラーにならない
	assert.NoError(t, s.Delete(ctx, "missing"))
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	runStoreContract(t, s)

	require.NoError(t, s.Close())
	_, _, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemory().Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vrazo.db")
	s, err := OpenSQLite(context.Background(), DefaultSQLiteConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runStoreContract(t, s)

	t.Run("再オープンしても値が残る", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "vrazo_last_date", "2026-10-19"))
		require.NoError(t, s.Close())

		reopened, err := OpenSQLite(ctx, DefaultSQLiteConfig(path))
		require.NoError(t, err)
		defer reopened.Close()

		v, ok, err := reopened.Get(ctx, "vrazo_last_date")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "2026-10-19", v)
	})
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), DefaultSQLiteConfig(""))
	assert.Error(t, err)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runStoreContract(t, s)

	t.Run("プレフィックス付きのキーで保存される", func(t *testing.T) {
		require.NoError(t, s.Set(context.Background(), "vrazo-projects", "[]"))
		v, err := mr.Get("test:vrazo-projects")
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "kv.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
