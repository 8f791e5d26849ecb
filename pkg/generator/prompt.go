package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/vrazo-kit/pkg/domain"
)

var (
	markupPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var styleInstructions = map[domain.Style]string{
	domain.StyleViralReaction: "Style: MrBeast/YouTuber style. High saturation, expressive faces, bright background, rim lighting, high contrast.",
	domain.StyleTechReview:    "Style: MKBHD/Tech style. Clean, sharp focus on product, modern studio lighting, matte background, bokeh.",
	domain.StyleCinematic:     "Style: Movie poster/Documentary. Dramatic lighting, color graded, depth of field, realistic textures.",
	domain.StyleGaming:        "Style: Gaming/Esports. Neon lights, dark background, electric effects, dynamic composition.",
}

const (
	defaultStyleInstruction = "Style: High impact YouTube thumbnail."
	withReferences          = "Instructions: Compose a scene using the subjects from the attached reference images. Make the subjects pop out. Fix lighting on subjects to match the scene."
	withoutReferences       = "Instructions: Create a visually stunning composition that perfectly represents the title. Use high quality assets and dramatic composition."
)

// SanitizePrompt はプロンプトに埋め込まれたタグを除去し、空白を1つにまとめます。
func SanitizePrompt(s string) string {
	s = markupPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

func restorationPrompt(res domain.Resolution) string {
	return strings.Join([]string{
		"Restoration Mode: Clean and Enhance this image.",
		fmt.Sprintf("1. Upscale to ultra high resolution (%s).", res),
		"2. Remove all blur, noise, dirt, and compression artifacts.",
		"3. Fix facial details and make the subject crystal clear.",
		"4. Correct lighting and colors.",
		"Output a professional, sharp, and clean version of the original.",
	}, "\n")
}

// thumbnailPrompt は参照画像の有無で構図の指示を切り替えます。
func thumbnailPrompt(title string, style domain.Style, hasReferences bool) string {
	styleText, ok := styleInstructions[style]
	if !ok {
		styleText = defaultStyleInstruction
	}
	imageText := withoutReferences
	if hasReferences {
		imageText = withReferences
	}
	return strings.Join([]string{
		"Create a high-click-through-rate YouTube thumbnail background.",
		fmt.Sprintf("Title Context: %q.", SanitizePrompt(title)),
		styleText,
		imageText,
		"IMPORTANT: Do NOT add text. Text overlays are added later. Just create the perfect visual background image.",
	}, "\n")
}
