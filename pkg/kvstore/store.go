// Package kvstore はローカル設定やプロジェクト一覧を保存する単純なキーバリューストアを提供します。
// 最後の書き込みが勝ち、トランザクションはありません。
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed はクローズ済みのストアを操作したことを表します。
var ErrClosed = errors.New("kvstore: store is closed")

// Store は文字列のキーと値を保存するストアです。
type Store interface {
	// Get は値を返します。キーが存在しない場合は ok が false になります。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory はプロセス内だけで完結する Store です。テストと既定のバックエンドに使います。
type Memory struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Backend は設定で選択できるストアの種類です。
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Options は Open に渡すバックエンドごとの接続情報です。
type Options struct {
	Backend Backend

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open は Options.Backend に応じたストアを開きます。
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		s, err := OpenSQLite(ctx, DefaultSQLiteConfig(opts.SQLitePath))
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		r, err := OpenRedis(ctx, RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("kvstore: unknown backend %q", opts.Backend)
}
