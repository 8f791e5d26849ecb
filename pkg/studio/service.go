// Package studio は受付制御・画像生成・合成・保存をひとつの操作にまとめます。
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/vrazo-kit/pkg/composite"
	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/generator"
	"github.com/shouni/vrazo-kit/pkg/imgutil"
	"github.com/shouni/vrazo-kit/pkg/quota"
	"github.com/shouni/vrazo-kit/pkg/retry"
	"github.com/shouni/vrazo-kit/pkg/utils"
)

// Gate は Service が利用する受付制御です。*quota.Gate が満たします。
type Gate interface {
	CheckAdmission() bool
	RecordSuccess(ctx context.Context) error
	Usage() quota.Usage
	Limit() int
	Remaining() int
}

// Projects は作品の保存先です。*project.Store が満たします。
type Projects interface {
	Add(ctx context.Context, title, thumbnail string, typ domain.ProjectType) (domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id string) (domain.Project, error)
	Delete(ctx context.Context, id string) error
}

// Renderer はテキストの合成処理です。*composite.Renderer が満たします。
type Renderer interface {
	Render(base []byte, overlay composite.Overlay, format composite.Format) ([]byte, error)
}

// QuotaError は本日の上限に達したことを表します。errors.Is(err, domain.ErrQuotaExhausted) で判定できます。
type QuotaError struct {
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily usage limit reached (%d)", e.Limit)
}

func (e *QuotaError) Unwrap() error { return domain.ErrQuotaExhausted }

// UserMessage はアップセルの案内文です。
func (e *QuotaError) UserMessage() string {
	return domain.QuotaExhaustedMessage(e.Limit)
}

// Outcome は生成操作の結果です。
// Empty が true の場合は上流が画像を返さなかったことを表し、エラーではありません。
type Outcome struct {
	Result  *domain.GenerationResult
	Empty   bool
	Message string
}

// DataURI は生成画像の PNG データURIを返します。画像が無い場合は空文字です。
func (o *Outcome) DataURI() string {
	if o == nil || o.Result.IsEmpty() {
		return ""
	}
	return o.Result.Image.DataURI()
}

// Service はプレゼンテーション層から呼ばれるユースケースの集合です。
// 返すエラーは *domain.ClassifiedError か *QuotaError、または永続化の失敗です。
type Service struct {
	gateway  generator.ImageGateway
	runner   *retry.Runner
	gate     Gate
	projects Projects
	renderer Renderer
	logger   *slog.Logger
}

type Option func(*Service)

func WithProjects(p Projects) Option {
	return func(s *Service) { s.projects = p }
}

func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService は Service を初期化します。runner が nil の場合は既定の Runner を使います。
func NewService(gateway generator.ImageGateway, runner *retry.Runner, gate Gate, opts ...Option) (*Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway (generator.ImageGateway) is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("gate (studio.Gate) is required")
	}
	if runner == nil {
		runner = retry.NewRunner()
	}
	s := &Service{
		gateway: gateway,
		runner:  runner,
		gate:    gate,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(utils.Module("studio"))
	return s, nil
}

// GeneratePhoto はテキストから画像を生成します。
func (s *Service) GeneratePhoto(ctx context.Context, prompt string) (*Outcome, error) {
	if !s.gate.CheckAdmission() {
		return nil, s.quotaError(ctx)
	}
	req, err := domain.NewTextToImageRequest(prompt)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "画像生成を開始します", utils.Truncate("prompt", prompt, 60))
	return s.submit(ctx, req)
}

// EnhancePhoto は画像を修復・高解像度化します。
func (s *Service) EnhancePhoto(ctx context.Context, image domain.ImageRef, resolution domain.Resolution) (*Outcome, error) {
	if !s.gate.CheckAdmission() {
		return nil, s.quotaError(ctx)
	}
	req, err := domain.NewRestoreRequest(image, resolution)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "画像の修復を開始します", "resolution", req.Resolution())
	return s.submit(ctx, req)
}

// GenerateThumbnail は参照画像とタイトルからサムネイル背景を生成します。
func (s *Service) GenerateThumbnail(ctx context.Context, title string, refs []domain.ImageRef, style domain.Style) (*Outcome, error) {
	if !s.gate.CheckAdmission() {
		return nil, s.quotaError(ctx)
	}
	req, err := domain.NewThumbnailRequest(title, refs, style)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "サムネイル生成を開始します", "style", req.Style(), "references", len(req.References()))
	return s.submit(ctx, req)
}

// submit は再試行付きで Gateway を呼び出し、画像が得られた場合のみ利用回数を記録します。
func (s *Service) submit(ctx context.Context, req domain.GenerationRequest) (*Outcome, error) {
	result, err := retry.Attempt(ctx, s.runner, func(ctx context.Context) (*domain.GenerationResult, error) {
		return s.gateway.Submit(ctx, req)
	})
	if err != nil {
		ce := retry.Classify(err)
		s.logger.WarnContext(ctx, "生成に失敗しました", "mode", req.Mode(), "kind", ce.Kind, "reason", ce.Reason, utils.Err(err))
		return nil, ce
	}

	if result.IsEmpty() {
		s.logger.InfoContext(ctx, "画像が生成されませんでした", "mode", req.Mode())
		return &Outcome{Result: result, Empty: true, Message: domain.MessageNoImage}, nil
	}

	if err := s.gate.RecordSuccess(ctx); err != nil {
		// 画像は得られているので結果は返す
		s.logger.ErrorContext(ctx, "利用回数の記録に失敗しました", utils.Err(err))
	}
	return &Outcome{Result: result}, nil
}

// Compose は画像にテキストを重ねます。利用枠は消費しません。
func (s *Service) Compose(ctx context.Context, base domain.ImageRef, overlay composite.Overlay, format composite.Format) ([]byte, error) {
	if s.renderer == nil {
		return nil, errors.New("renderer is not configured")
	}
	data, err := base.Bytes()
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.Render(data, overlay, format)
	if err != nil {
		return nil, domain.NewMalformed("The image could not be composed.", err)
	}
	s.logger.DebugContext(ctx, "テキストを合成しました", "headline", overlay.Headline, "bytes", len(out))
	return out, nil
}

// SaveProject は生成画像を作品一覧に保存します。
// title が空の場合は "Generated Image" を使います。
func (s *Service) SaveProject(ctx context.Context, title string, image []byte, typ domain.ProjectType) (domain.Project, error) {
	if s.projects == nil {
		return domain.Project{}, errors.New("project store is not configured")
	}
	if len(image) == 0 {
		return domain.Project{}, domain.NewMalformed("There is no image to save.", nil)
	}
	if title == "" {
		title = "Generated Image"
	}
	p, err := s.projects.Add(ctx, title, imgutil.ToPNGDataURI(image), typ)
	if err != nil {
		return domain.Project{}, err
	}
	s.logger.InfoContext(ctx, "作品を保存しました", "id", p.ID, "type", p.Type)
	return p, nil
}

// Projects は保存済みの作品一覧を返します。
func (s *Service) Projects(ctx context.Context) ([]domain.Project, error) {
	if s.projects == nil {
		return nil, errors.New("project store is not configured")
	}
	return s.projects.List(ctx)
}

// Project は ID に一致する作品を返します。
func (s *Service) Project(ctx context.Context, id string) (domain.Project, error) {
	if s.projects == nil {
		return domain.Project{}, errors.New("project store is not configured")
	}
	return s.projects.Get(ctx, id)
}

// DeleteProject は作品を削除します。
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if s.projects == nil {
		return errors.New("project store is not configured")
	}
	return s.projects.Delete(ctx, id)
}

// UsageStatus は本日の利用状況です。
type UsageStatus struct {
	Date      string
	Count     int
	Limit     int
	Remaining int
}

// Usage は本日の利用状況を返します。
func (s *Service) Usage() UsageStatus {
	u := s.gate.Usage()
	return UsageStatus{Date: u.Date, Count: u.Count, Limit: s.gate.Limit(), Remaining: s.gate.Remaining()}
}

func (s *Service) quotaError(ctx context.Context) error {
	s.logger.InfoContext(ctx, "本日の利用上限に達しています", "limit", s.gate.Limit())
	return &QuotaError{Limit: s.gate.Limit()}
}
