package generator

import (
	"testing"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestDecodeResponse(t *testing.T) {
	t.Run("最初のインラインデータを画像として返す", func(t *testing.T) {
		res, err := decodeResponse(imageResponse([]byte("img"), "image/jpeg"))
		require.NoError(t, err)
		require.False(t, res.IsEmpty())
		assert.Equal(t, []byte("img"), res.Image.Data)
		assert.Equal(t, "image/jpeg", res.Image.MimeType)
	})

	t.Run("nil のレスポンスは空の結果", func(t *testing.T) {
		res, err := decodeResponse(nil)
		require.NoError(t, err)
		assert.True(t, res.IsEmpty())
	})

	t.Run("候補が無ければ空の結果", func(t *testing.T) {
		res, err := decodeResponse(&genai.GenerateContentResponse{})
		require.NoError(t, err)
		assert.True(t, res.IsEmpty())
	})

	t.Run("テキストのみなら空の結果", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "I cannot draw that"}}},
				FinishReason: genai.FinishReasonStop,
			}},
		}
		res, err := decodeResponse(resp)
		require.NoError(t, err)
		assert.True(t, res.IsEmpty())
	})

	t.Run("空のインラインデータは画像として扱わない", func(t *testing.T) {
		res, err := decodeResponse(imageResponse(nil, "image/png"))
		require.NoError(t, err)
		assert.True(t, res.IsEmpty())
	})

	t.Run("安全系の終了理由は SafetyRejected", func(t *testing.T) {
		for _, reason := range []genai.FinishReason{genai.FinishReasonSafety, genai.FinishReason("IMAGE_SAFETY"), genai.FinishReasonProhibitedContent} {
			resp := &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: reason}},
			}
			_, err := decodeResponse(resp)
			assert.ErrorIs(t, err, domain.ErrSafetyRejected, string(reason))
		}
	})

	t.Run("プロンプトのブロックは SafetyRejected", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}
		_, err := decodeResponse(resp)
		assert.ErrorIs(t, err, domain.ErrSafetyRejected)
	})
}
