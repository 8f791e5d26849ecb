package generator

import (
	"context"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"google.golang.org/genai"
)

// ContentGenerator は Gemini API への単一呼び出しを抽象化したトランスポートです。
// *genai.Client の Models フィールドがそのまま満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageGateway はビジネスロジック層が利用する統合窓口です。
type ImageGateway interface {
	// Submit は要求を1回の上流呼び出しに変換して実行します。
	// 画像が見つからない場合はエラーではなく空の GenerationResult を返します。
	Submit(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}

// AssetManager は参照画像を取得して genai.Part に変換します。
type AssetManager interface {
	// PrepareImagePart は ImageRef を InlineData のパーツに変換します。
	// fallbackMIME は内容から MIME を判定できない場合に使います。
	PrepareImagePart(ctx context.Context, ref domain.ImageRef, fallbackMIME string) (*genai.Part, error)
}
