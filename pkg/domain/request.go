package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxPromptLength        = 800
	MaxTitleLength         = 150
	MaxReferenceImages     = 2
	MaxReferenceImageBytes = 15 << 20 // 15 MiB
)

// Mode は GenerationRequest の種別です。
type Mode string

const (
	ModeTextToImage Mode = "text_to_image"
	ModeRestore     Mode = "restore"
	ModeThumbnail   Mode = "thumbnail"
)

// Style はサムネイルの画風です。
type Style string

const (
	StyleViralReaction Style = "Viral Reaction"
	StyleTechReview    Style = "Tech Review"
	StyleCinematic     Style = "Cinematic"
	StyleGaming        Style = "Gaming"
)

// Styles は選択可能な画風の一覧です。
var Styles = []Style{StyleViralReaction, StyleTechReview, StyleCinematic, StyleGaming}

// ParseStyle は文字列を Style に変換します。空文字は既定の Viral Reaction です。
func ParseStyle(s string) (Style, error) {
	if strings.TrimSpace(s) == "" {
		return StyleViralReaction, nil
	}
	for _, st := range Styles {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", NewMalformed(fmt.Sprintf("Unknown thumbnail style %q.", s), nil)
}

// Resolution は修復モードの目標解像度です。
type Resolution string

const (
	Resolution4K Resolution = "4K"
	Resolution8K Resolution = "8K"
)

// ParseResolution は文字列を Resolution に変換します。空文字は既定の 4K です。
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Resolution4K):
		return Resolution4K, nil
	case string(Resolution8K):
		return Resolution8K, nil
	}
	return "", NewMalformed(fmt.Sprintf("Unsupported resolution %q. Choose 4K or 8K.", s), nil)
}

// GenerationRequest は Gateway に渡す生成要求です。
// 実体は TextToImageRequest / RestoreRequest / ThumbnailRequest のいずれかです。
type GenerationRequest interface {
	Mode() Mode
	Validate() error
}

// TextToImageRequest はテキストからの画像生成要求です。
type TextToImageRequest struct {
	prompt string
}

// NewTextToImageRequest は検証済みの TextToImageRequest を作成します。
func NewTextToImageRequest(prompt string) (TextToImageRequest, error) {
	req := TextToImageRequest{prompt: prompt}
	if err := req.Validate(); err != nil {
		return TextToImageRequest{}, err
	}
	return req, nil
}

func (r TextToImageRequest) Mode() Mode     { return ModeTextToImage }
func (r TextToImageRequest) Prompt() string { return r.prompt }

func (r TextToImageRequest) Validate() error {
	if strings.TrimSpace(r.prompt) == "" {
		return NewMalformed("Please enter a prompt.", nil)
	}
	if utf8.RuneCountInString(r.prompt) > MaxPromptLength {
		return NewInputTooLarge(fmt.Sprintf("Prompt must be at most %d characters.", MaxPromptLength))
	}
	return nil
}

// RestoreRequest は画像の修復・アップスケール要求です。
type RestoreRequest struct {
	image      ImageRef
	resolution Resolution
}

// NewRestoreRequest は検証済みの RestoreRequest を作成します。
func NewRestoreRequest(image ImageRef, resolution Resolution) (RestoreRequest, error) {
	if resolution == "" {
		resolution = Resolution4K
	}
	req := RestoreRequest{image: image, resolution: resolution}
	if err := req.Validate(); err != nil {
		return RestoreRequest{}, err
	}
	return req, nil
}

func (r RestoreRequest) Mode() Mode             { return ModeRestore }
func (r RestoreRequest) Image() ImageRef        { return r.image }
func (r RestoreRequest) Resolution() Resolution { return r.resolution }

func (r RestoreRequest) Validate() error {
	if r.image.IsZero() {
		return NewMalformed("Please upload an image to enhance.", nil)
	}
	if r.resolution != Resolution4K && r.resolution != Resolution8K {
		return NewMalformed(fmt.Sprintf("Unsupported resolution %q. Choose 4K or 8K.", r.resolution), nil)
	}
	return validateImageSize(r.image)
}

// ThumbnailRequest は参照画像を合成するサムネイル生成要求です。
type ThumbnailRequest struct {
	title      string
	references []ImageRef
	style      Style
}

// NewThumbnailRequest は検証済みの ThumbnailRequest を作成します。
// 参照画像が MaxReferenceImages を超える場合は送信前に失敗します。
func NewThumbnailRequest(title string, references []ImageRef, style Style) (ThumbnailRequest, error) {
	if style == "" {
		style = StyleViralReaction
	}
	refs := make([]ImageRef, 0, len(references))
	for _, ref := range references {
		if ref.IsZero() {
			continue
		}
		refs = append(refs, ref)
	}
	req := ThumbnailRequest{title: title, references: refs, style: style}
	if err := req.Validate(); err != nil {
		return ThumbnailRequest{}, err
	}
	return req, nil
}

func (r ThumbnailRequest) Mode() Mode    { return ModeThumbnail }
func (r ThumbnailRequest) Title() string { return r.title }
func (r ThumbnailRequest) Style() Style  { return r.style }

// References は参照画像のコピーを返します。
func (r ThumbnailRequest) References() []ImageRef {
	out := make([]ImageRef, len(r.references))
	copy(out, r.references)
	return out
}

func (r ThumbnailRequest) Validate() error {
	if strings.TrimSpace(r.title) == "" {
		return NewMalformed("Please enter a title.", nil)
	}
	if utf8.RuneCountInString(r.title) > MaxTitleLength {
		return NewInputTooLarge(fmt.Sprintf("Title must be at most %d characters.", MaxTitleLength))
	}
	if len(r.references) > MaxReferenceImages {
		return NewMalformed(fmt.Sprintf("You can attach at most %d reference images.", MaxReferenceImages), nil)
	}
	valid := false
	for _, st := range Styles {
		if r.style == st {
			valid = true
			break
		}
	}
	if !valid {
		return NewMalformed(fmt.Sprintf("Unknown thumbnail style %q.", r.style), nil)
	}
	for _, ref := range r.references {
		if err := validateImageSize(ref); err != nil {
			return err
		}
	}
	return nil
}

func validateImageSize(ref ImageRef) error {
	if ref.Size() > MaxReferenceImageBytes {
		return NewInputTooLarge(fmt.Sprintf("Each image must be %d MB or smaller.", MaxReferenceImageBytes>>20))
	}
	return nil
}
