// Package composite は生成画像に見出しとサブタイトルを重ねたサムネイルを描画します。
package composite

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/shouni/vrazo-kit/pkg/imgutil"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Format は出力画像のフォーマットです。
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"

	defaultJPEGQuality = 90
)

// ParseFormat は文字列を Format に変換します。空文字は PNG です。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("未対応の出力フォーマットです: %q", s)
}

// Overlay は画像に重ねるテキストです。空の項目は描画しません。
type Overlay struct {
	Headline string
	Subtitle string
}

// IsEmpty は描画するテキストが無いかどうかを返します。
func (o Overlay) IsEmpty() bool {
	return strings.TrimSpace(o.Headline) == "" && strings.TrimSpace(o.Subtitle) == ""
}

// textStyle は1行分のテキストの描画設定です。比率はすべて画像の高さに対する値です。
type textStyle struct {
	sizeRatio     float64
	baselineRatio float64
	fill          color.Color
	stroke        color.Color
}

var (
	headlineStyle = textStyle{sizeRatio: 0.15, baselineRatio: 0.25, fill: color.RGBA{R: 255, G: 255, A: 255}, stroke: color.Black}
	subtitleStyle = textStyle{sizeRatio: 0.10, baselineRatio: 0.85, fill: color.White, stroke: color.Black}
)

// Renderer は Go Bold フォントでテキストを合成します。
type Renderer struct {
	font        *opentype.Font
	maxWidth    int
	jpegQuality int

	mu    sync.Mutex
	faces map[float64]font.Face
}

type Option func(*Renderer)

// WithMaxWidth は出力の最大幅を指定します。これより大きい画像は縮小してから描画します。
func WithMaxWidth(w int) Option {
	return func(r *Renderer) { r.maxWidth = w }
}

func WithJPEGQuality(q int) Option {
	return func(r *Renderer) {
		if q > 0 && q <= 100 {
			r.jpegQuality = q
		}
	}
}

// NewRenderer は埋め込みの Go Bold フォントを読み込んで Renderer を作成します。
func NewRenderer(opts ...Option) (*Renderer, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("フォントの読み込みに失敗しました: %w", err)
	}
	r := &Renderer{
		font:        f,
		jpegQuality: defaultJPEGQuality,
		faces:       make(map[float64]font.Face),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render は base をデコードし、overlay を描画して format でエンコードします。
func (r *Renderer) Render(base []byte, overlay Overlay, format Format) ([]byte, error) {
	src, _, err := imgutil.DecodeImage(base)
	if err != nil {
		return nil, err
	}

	canvas := r.prepareCanvas(src)
	h := canvas.Bounds().Dy()
	if h == 0 || canvas.Bounds().Dx() == 0 {
		return nil, fmt.Errorf("画像のサイズが不正です")
	}

	if s := strings.TrimSpace(overlay.Headline); s != "" {
		if err := r.drawLine(canvas, s, headlineStyle); err != nil {
			return nil, err
		}
	}
	if s := strings.TrimSpace(overlay.Subtitle); s != "" {
		if err := r.drawLine(canvas, s, subtitleStyle); err != nil {
			return nil, err
		}
	}

	switch format {
	case "", FormatPNG:
		return imgutil.EncodePNG(canvas)
	case FormatJPEG:
		return imgutil.EncodeJPEG(canvas, r.jpegQuality)
	}
	return nil, fmt.Errorf("未対応の出力フォーマットです: %q", format)
}

// prepareCanvas は描画用の RGBA 画像を作ります。maxWidth を超える場合は縦横比を保って縮小します。
func (r *Renderer) prepareCanvas(src image.Image) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if r.maxWidth > 0 && w > r.maxWidth {
		nh := h * r.maxWidth / w
		if nh < 1 {
			nh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, r.maxWidth, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// drawLine は中央揃えで縁取り付きのテキストを1行描画します。
// 幅に収まらない場合はフォントサイズを縮めます。
func (r *Renderer) drawLine(dst *image.RGBA, text string, st textStyle) error {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	size := float64(h) * st.sizeRatio
	if size < 1 {
		size = 1
	}

	face, err := r.face(size)
	if err != nil {
		return err
	}
	maxText := float64(w) * 0.95
	if adv := font.MeasureString(face, text).Round(); float64(adv) > maxText {
		size = size * maxText / float64(adv)
		if face, err = r.face(size); err != nil {
			return err
		}
	}

	advance := font.MeasureString(face, text).Round()
	x := (w - advance) / 2
	y := int(float64(h) * st.baselineRatio)

	// 縁取りの太さはフォントサイズの 15%
	radius := int(size * 0.15 / 2)
	if radius < 1 {
		radius = 1
	}
	step := radius / 3
	if step < 1 {
		step = 1
	}

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(st.stroke), Face: face}
	for dy := -radius; dy <= radius; dy += step {
		for dx := -radius; dx <= radius; dx += step {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			d.Dot = fixed.P(x+dx, y+dy)
			d.DrawString(text)
		}
	}

	d.Src = image.NewUniform(st.fill)
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
	return nil
}

// face はサイズごとの font.Face をキャッシュして返します。
func (r *Renderer) face(size float64) (font.Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("フォントフェイスの作成に失敗しました: %w", err)
	}
	r.faces[size] = f
	return f, nil
}
