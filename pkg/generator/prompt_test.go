package generator

import (
	"strings"
	"testing"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSanitizePrompt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"そのまま", "a red cube", "a red cube"},
		{"タグの除去", "<p>a <i>red</i> cube</p>", "a red cube"},
		{"空白の正規化", "  a\n\tred   cube ", "a red cube"},
		{"タグのみ", "<br/>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizePrompt(tt.in))
		})
	}
}

func TestThumbnailPrompt(t *testing.T) {
	for _, st := range domain.Styles {
		text := thumbnailPrompt("Title", st, false)
		assert.Contains(t, text, styleInstructions[st])
		assert.Contains(t, text, "Do NOT add text")
	}

	assert.Contains(t, thumbnailPrompt("Title", domain.Style("unknown"), true), defaultStyleInstruction)
	assert.False(t, strings.Contains(thumbnailPrompt("<b>Title</b>", domain.StyleGaming, true), "<b>"))
}

func TestRestorationPrompt(t *testing.T) {
	assert.Contains(t, restorationPrompt(domain.Resolution4K), "(4K)")
	assert.Contains(t, restorationPrompt(domain.Resolution8K), "(8K)")
}
