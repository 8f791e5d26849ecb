package imgutil

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// PNGDataURIPrefix は生成結果に付与する固定のデータURIプレフィックスです。
const PNGDataURIPrefix = "data:image/png;base64,"

// StripDataURIPrefix は "data:<mime>;base64," 形式のプレフィックスを取り除きます。
// プレフィックスが無い場合は入力をそのまま返します。
func StripDataURIPrefix(payload string) string {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if idx := strings.IndexByte(payload, ','); idx >= 0 {
		return payload[idx+1:]
	}
	return payload
}

// DecodeBase64Payload はデータURIまたは素の base64 文字列をバイト列に復号します。
func DecodeBase64Payload(payload string) ([]byte, error) {
	clean := StripDataURIPrefix(payload)
	if clean == "" {
		return nil, fmt.Errorf("empty image payload")
	}
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		// パディング無しで送ってくるクライアントもある
		raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(clean, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("invalid base64 image payload: %w", err)
		}
		return raw, nil
	}
	return data, nil
}

// DecodedSize は base64 ペイロードを復号せずに復号後のバイト数を見積もります。
func DecodedSize(payload string) int {
	clean := strings.TrimRight(StripDataURIPrefix(payload), "=")
	return base64.RawStdEncoding.DecodedLen(len(clean))
}

// ToPNGDataURI は元のフォーマットに関わらず PNG のデータURIとしてエンコードします。
func ToPNGDataURI(data []byte) string {
	return PNGDataURIPrefix + base64.StdEncoding.EncodeToString(data)
}

// DetectImageMIME はバイト列から画像の MIME タイプを判定します。
// 画像として判定できない場合は fallback を返します。
func DetectImageMIME(data []byte, fallback string) string {
	mimeType := http.DetectContentType(data)
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return fallback
}

// ExtensionForMIME は画像の MIME タイプに対応する拡張子 (ドット付き) を返します。
// 不明な場合は ".png" です。
func ExtensionForMIME(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}
