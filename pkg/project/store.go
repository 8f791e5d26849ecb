// Package project は保存した作品の一覧を kvstore に JSON として保存します。
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/kvstore"
)

const (
	storageKey    = "vrazo-projects"
	titleMaxRunes = 20
	defaultTitle  = "Untitled"
)

// ErrNotFound は指定した ID のプロジェクトが存在しないことを表します。
var ErrNotFound = errors.New("project not found")

// Store はプロジェクト一覧を新しい順に保持します。変更のたびに一覧全体を保存します。
type Store struct {
	mu  sync.Mutex
	kv  kvstore.Store
	now func() time.Time
}

func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv, now: time.Now}
}

// List は保存済みのプロジェクトを新しい順に返します。
// 保存値が読めない場合は空の一覧として扱います。
func (s *Store) List(ctx context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add は新しいプロジェクトを先頭に追加し、採番済みの値を返します。
func (s *Store) Add(ctx context.Context, title, thumbnail string, typ domain.ProjectType) (domain.Project, error) {
	if thumbnail == "" {
		return domain.Project{}, fmt.Errorf("thumbnail is required")
	}
	p := domain.Project{
		ID:        uuid.NewString(),
		Title:     title,
		Thumbnail: thumbnail,
		Type:      typ,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	projects, err := s.load(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	projects = append([]domain.Project{p}, projects...)
	if err := s.save(ctx, projects); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// Get は ID に一致するプロジェクトを返します。
func (s *Store) Get(ctx context.Context, id string) (domain.Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	for _, p := range projects {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete は ID に一致するプロジェクトを削除します。
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := projects[:0]
	for _, p := range projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(projects) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.save(ctx, kept)
}

func (s *Store) load(ctx context.Context) ([]domain.Project, error) {
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の読み込みに失敗しました: %w", err)
	}
	if !ok || raw == "" {
		return []domain.Project{}, nil
	}
	var projects []domain.Project
	if err := json.Unmarshal([]byte(raw), &projects); err != nil {
		slog.WarnContext(ctx, "保存済みのプロジェクト一覧が壊れているため空として扱います", "error", err)
		return []domain.Project{}, nil
	}
	return projects, nil
}

func (s *Store) save(ctx context.Context, projects []domain.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("プロジェクト一覧のシリアライズに失敗しました: %w", err)
	}
	if err := s.kv.Set(ctx, storageKey, string(data)); err != nil {
		return fmt.Errorf("プロジェクト一覧の保存に失敗しました: %w", err)
	}
	return nil
}

// TitleFromPrompt はプロンプトから一覧表示用のタイトルを作ります。
// 20 文字を超える場合は切り詰めて "..." を付けます。
func TitleFromPrompt(prompt string) string {
	if prompt == "" {
		return defaultTitle
	}
	if utf8.RuneCountInString(prompt) <= titleMaxRunes {
		return prompt
	}
	return string([]rune(prompt)[:titleMaxRunes]) + "..."
}
