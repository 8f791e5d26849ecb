package generator

import (
	"context"
	"time"
)

const (
	// DefaultModel は画像生成に使う Gemini モデルです。
	DefaultModel = "gemini-2.5-flash-image"
	// OutputAspectRatio は生成・合成モードで指定する出力アスペクト比です。
	OutputAspectRatio = "16:9"

	ImageCompressionQuality = 75
	cacheKeyReference       = "reference:"

	restoreFallbackMIME   = "image/jpeg"
	referenceFallbackMIME = "image/png"
)

// 依存関係用
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageCacher は、取得済みの参照画像をキャッシュするためのインターフェースです。
// github.com/patrickmn/go-cache の *cache.Cache がそのまま満たします。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
