package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/retry"
	"google.golang.org/genai"
)

// GeminiGateway は GenerationRequest を1回の GenerateContent 呼び出しに変換する ImageGateway の実装です。
// 失敗はすべて *domain.ClassifiedError として返します。
type GeminiGateway struct {
	client ContentGenerator
	assets AssetManager
	model  string
	safety SafetyProfile
	logger *slog.Logger
}

// Option は GeminiGateway の設定を変更します。
type Option func(*GeminiGateway)

// WithModel は利用するモデル名を指定します。
func WithModel(model string) Option {
	return func(g *GeminiGateway) {
		if model != "" {
			g.model = model
		}
	}
}

// WithSafetyProfile は安全設定の強さを指定します。
func WithSafetyProfile(p SafetyProfile) Option {
	return func(g *GeminiGateway) {
		if p != "" {
			g.safety = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *GeminiGateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGeminiGateway は GeminiGateway を初期化します。
// assets が nil の場合は、インライン画像のみを扱う GeminiImageCore を使います。
func NewGeminiGateway(client ContentGenerator, assets AssetManager, opts ...Option) (*GeminiGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("client (ContentGenerator) is required")
	}
	if assets == nil {
		assets = NewGeminiImageCore(nil, nil, nil, 0)
	}

	g := &GeminiGateway{
		client: client,
		assets: assets,
		model:  DefaultModel,
		safety: SafetyStandard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewGenAIClient は Gemini API バックエンドの genai.Client を作成します。
// 戻り値の Models フィールドを NewGeminiGateway にそのまま渡せます。
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API キーが設定されていません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの作成に失敗しました: %w", err)
	}
	return client, nil
}

// Submit は要求を検証し、上流を1回だけ呼び出します。
// 画像が返らなかった場合は空の GenerationResult を返し、エラーにはしません。
func (g *GeminiGateway) Submit(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if req == nil {
		return nil, domain.NewMalformed("", errors.New("nil request"))
	}
	// 無効な要求はトランスポートに到達させない
	if err := req.Validate(); err != nil {
		return nil, retry.Classify(err)
	}

	parts, aspectRatio, err := g.buildParts(ctx, req)
	if err != nil {
		return nil, retry.Classify(err)
	}

	config := &genai.GenerateContentConfig{SafetySettings: g.safety.Settings()}
	if aspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}
	contents := []*genai.Content{{Role: string(genai.RoleUser), Parts: parts}}

	g.logger.DebugContext(ctx, "Gemini 画像生成リクエスト送信", "model", g.model, "mode", req.Mode(), "parts", len(parts))
	resp, err := g.client.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		ce := retry.Classify(err)
		g.logger.WarnContext(ctx, "Gemini 呼び出しに失敗しました", "mode", req.Mode(), "kind", ce.Kind, "reason", ce.Reason, "error", err)
		return nil, ce
	}

	result, err := decodeResponse(resp)
	if err != nil {
		g.logger.WarnContext(ctx, "安全フィルターによりブロックされました", "mode", req.Mode(), "error", err)
		return nil, err
	}
	if result.IsEmpty() {
		g.logger.InfoContext(ctx, "レスポンスに画像が含まれていません", "mode", req.Mode())
	}
	return result, nil
}

// buildParts はモードごとのパーツとアスペクト比を組み立てます。
func (g *GeminiGateway) buildParts(ctx context.Context, req domain.GenerationRequest) ([]*genai.Part, string, error) {
	switch r := req.(type) {
	case domain.TextToImageRequest:
		prompt := SanitizePrompt(r.Prompt())
		if prompt == "" {
			return nil, "", domain.NewMalformed("Please enter a prompt.", nil)
		}
		return []*genai.Part{genai.NewPartFromText(prompt)}, OutputAspectRatio, nil

	case domain.RestoreRequest:
		imgPart, err := g.assets.PrepareImagePart(ctx, r.Image(), restoreFallbackMIME)
		if err != nil {
			return nil, "", err
		}
		return []*genai.Part{imgPart, genai.NewPartFromText(restorationPrompt(r.Resolution()))}, "", nil

	case domain.ThumbnailRequest:
		refs := r.References()
		parts := make([]*genai.Part, 0, len(refs)+1)
		for _, ref := range refs {
			imgPart, err := g.assets.PrepareImagePart(ctx, ref, referenceFallbackMIME)
			if err != nil {
				// 取得できなかったリモート参照は除外して続行する
				if ref.IsRemote() && errors.Is(err, domain.ErrMalformed) {
					g.logger.WarnContext(ctx, "参照画像の取得に失敗したためスキップします", "url", ref.URL(), "error", err)
					continue
				}
				return nil, "", err
			}
			parts = append(parts, imgPart)
		}
		parts = append(parts, genai.NewPartFromText(thumbnailPrompt(r.Title(), r.Style(), len(parts) > 0)))
		return parts, OutputAspectRatio, nil
	}
	return nil, "", domain.NewMalformed("", fmt.Errorf("unsupported request type %T", req))
}
