package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/imgutil"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

// GeminiImageCore は参照画像の取得・変換を担う AssetManager の実装です。
// インラインのペイロードはそのまま復号し、URL は HTTP / GCS から取得してキャッシュします。
type GeminiImageCore struct {
	reader     remoteio.InputReader
	httpClient HTTPClient
	cache      ImageCacher
	expiration time.Duration
	urlGuard   func(rawURL string) (bool, error)
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
// reader / httpClient / cache はいずれも nil を許容し、その場合は該当する参照形式が使えません。
// gs:// を読むには gcsfactory から得た InputReader を渡します。
func NewGeminiImageCore(reader remoteio.InputReader, httpClient httpkit.ClientInterface, cache ImageCacher, cacheTTL time.Duration) *GeminiImageCore {
	c := &GeminiImageCore{
		cache:      cache,
		expiration: cacheTTL,
		urlGuard:   IsSafeURL,
	}
	// nil のインターフェース値をそのまま代入すると nil 判定が効かなくなる
	if reader != nil {
		c.reader = reader
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// PrepareImagePart は ImageRef を InlineData のパーツに変換します。
func (c *GeminiImageCore) PrepareImagePart(ctx context.Context, ref domain.ImageRef, fallbackMIME string) (*genai.Part, error) {
	data, err := c.LoadImage(ctx, ref)
	if err != nil {
		return nil, err
	}
	return c.toPart(data, fallbackMIME), nil
}

// LoadImage は ImageRef の実データを返します。
// 上限を超える画像は JPEG に再圧縮し、それでも超える場合は InputTooLarge を返します。
func (c *GeminiImageCore) LoadImage(ctx context.Context, ref domain.ImageRef) ([]byte, error) {
	if !ref.IsRemote() {
		data, err := ref.Bytes()
		if err != nil {
			return nil, err
		}
		return c.fitToLimit(data)
	}

	rawURL := ref.URL()
	cacheKey := cacheKeyReference + rawURL
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKey); ok {
			if data, ok := val.([]byte); ok {
				return data, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", val))
		}
	}

	data, err := c.fetchImageData(ctx, rawURL)
	if err != nil {
		return nil, domain.NewMalformed("The reference image could not be downloaded.", err)
	}
	data, err = c.fitToLimit(data)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, data, c.expiration)
	}
	return data, nil
}

func (c *GeminiImageCore) fitToLimit(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, domain.NewMalformed("The image is empty.", nil)
	}
	if len(data) <= domain.MaxReferenceImageBytes {
		return data, nil
	}
	compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality)
	if err != nil || len(compressed) > domain.MaxReferenceImageBytes {
		return nil, domain.NewInputTooLarge(fmt.Sprintf("Each image must be %d MB or smaller.", domain.MaxReferenceImageBytes>>20))
	}
	return compressed, nil
}

func (c *GeminiImageCore) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if remoteio.IsGCSURI(rawURL) {
		if c.reader == nil {
			return nil, fmt.Errorf("gs:// の参照にはリモートリーダーが必要です: %s", rawURL)
		}
		rc, err := c.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, 4*domain.MaxReferenceImageBytes))
	}

	guard := c.urlGuard
	if guard == nil {
		guard = IsSafeURL
	}
	if safe, err := guard(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	if c.httpClient == nil {
		return nil, fmt.Errorf("URL の参照には HTTP クライアントが必要です: %s", rawURL)
	}
	return c.httpClient.FetchBytes(ctx, rawURL)
}
