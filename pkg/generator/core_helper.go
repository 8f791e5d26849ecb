package generator

import (
	"fmt"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/imgutil"
	"google.golang.org/genai"
)

func (c *GeminiImageCore) toPart(data []byte, fallbackMIME string) *genai.Part {
	mimeType := imgutil.DetectImageMIME(data, fallbackMIME)
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// safetyFinishReasons は安全系のブロックを示す FinishReason です。
var safetyFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:                       true,
	genai.FinishReasonProhibitedContent:            true,
	genai.FinishReasonBlocklist:                    true,
	genai.FinishReasonSPII:                         true,
	genai.FinishReason("IMAGE_SAFETY"):             true,
	genai.FinishReason("IMAGE_PROHIBITED_CONTENT"): true,
}

// decodeResponse は Gemini のレスポンスを {Image | Empty} のいずれかに変換します。
// 安全フィルターによるブロックが明示されている場合のみ SafetyRejected を返します。
func decodeResponse(resp *genai.GenerateContentResponse) (*domain.GenerationResult, error) {
	if resp == nil {
		return domain.EmptyResult(), nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, domain.NewSafetyRejected(fmt.Errorf("prompt blocked: %s", fb.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return domain.EmptyResult(), nil
	}

	// 現在の仕様では、最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]
	if candidate == nil {
		return domain.EmptyResult(), nil
	}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return domain.ImageResult(part.InlineData.Data, part.InlineData.MIMEType), nil
			}
		}
	}

	if safetyFinishReasons[candidate.FinishReason] {
		return nil, domain.NewSafetyRejected(fmt.Errorf("generation stopped: %s", candidate.FinishReason))
	}
	return domain.EmptyResult(), nil
}
