package domain

import (
	"bytes"
	"strings"

	"github.com/shouni/vrazo-kit/pkg/imgutil"
)

// ImageData は上流から取り出した画像ペイロードです。
type ImageData struct {
	Data     []byte
	MimeType string // 上流が申告した MIME。DataURI では使わない
}

// DataURI は画像を PNG のデータURIとして返します。
func (d *ImageData) DataURI() string {
	return imgutil.ToPNGDataURI(d.Data)
}

// GenerationResult は Gateway の成功結果です。
// Image が nil の場合は「画像が生成されなかった」ことを表し、エラーとは区別されます。
type GenerationResult struct {
	Image *ImageData
}

// EmptyResult は画像が見つからなかった場合の結果を返します。
func EmptyResult() *GenerationResult {
	return &GenerationResult{}
}

// ImageResult は画像を保持する結果を返します。
func ImageResult(data []byte, mimeType string) *GenerationResult {
	return &GenerationResult{Image: &ImageData{Data: data, MimeType: mimeType}}
}

// IsEmpty は画像が含まれていない結果かどうかを返します。
func (r *GenerationResult) IsEmpty() bool {
	return r == nil || r.Image == nil || len(r.Image.Data) == 0
}

// ImageRef は参照画像または修復対象の画像です。
// インラインのペイロード（データURI / base64 / 生バイト）かリモートURLのどちらか一方を持ちます。
type ImageRef struct {
	inline string
	raw    []byte
	url    string
}

// InlineImage はデータURIまたは base64 文字列から ImageRef を作成します。
func InlineImage(payload string) ImageRef {
	return ImageRef{inline: strings.TrimSpace(payload)}
}

// ImageBytes は生のバイト列から ImageRef を作成します。
func ImageBytes(data []byte) ImageRef {
	cp := make([]byte, len(data))
	copy(cp, data)
	return ImageRef{raw: cp}
}

// RemoteImage は http(s):// または gs:// の URL から ImageRef を作成します。
func RemoteImage(url string) ImageRef {
	return ImageRef{url: strings.TrimSpace(url)}
}

// IsZero は画像が指定されていないかどうかを返します。
func (r ImageRef) IsZero() bool {
	return r.inline == "" && len(r.raw) == 0 && r.url == ""
}

// IsRemote はリモートURLを指す参照かどうかを返します。
func (r ImageRef) IsRemote() bool {
	return r.url != ""
}

// URL はリモート参照の URL を返します。
func (r ImageRef) URL() string {
	return r.url
}

// Bytes はインライン参照をバイト列として返します。戻り値は呼び出し側が変更してよい複製です。
// リモート参照に対しては Malformed を返します。
func (r ImageRef) Bytes() ([]byte, error) {
	switch {
	case len(r.raw) > 0:
		return bytes.Clone(r.raw), nil
	case r.inline != "":
		data, err := imgutil.DecodeBase64Payload(r.inline)
		if err != nil {
			return nil, NewMalformed("The image could not be read. Please upload a valid PNG or JPEG file.", err)
		}
		return data, nil
	default:
		return nil, NewMalformed("The image could not be read. Please upload a valid PNG or JPEG file.", nil)
	}
}

// Size は復号後のペイロードサイズを返します。リモート参照は取得するまで 0 です。
func (r ImageRef) Size() int {
	if len(r.raw) > 0 {
		return len(r.raw)
	}
	if r.inline != "" {
		return imgutil.DecodedSize(r.inline)
	}
	return 0
}
