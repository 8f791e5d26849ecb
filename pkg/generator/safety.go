package generator

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// SafetyProfile は上流へ送る安全設定の強さです。
type SafetyProfile string

const (
	SafetyStandard SafetyProfile = "standard"
	SafetyRelaxed  SafetyProfile = "relaxed"
)

var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// ParseSafetyProfile は設定値を SafetyProfile に変換します。空文字は standard です。
func ParseSafetyProfile(s string) (SafetyProfile, error) {
	switch SafetyProfile(strings.ToLower(strings.TrimSpace(s))) {
	case "", SafetyStandard:
		return SafetyStandard, nil
	case SafetyRelaxed:
		return SafetyRelaxed, nil
	}
	return "", fmt.Errorf("未知のセーフティプロファイルです: %q", s)
}

// Settings は 4 つのカテゴリすべてに同じしきい値を適用した設定を返します。
func (p SafetyProfile) Settings() []*genai.SafetySetting {
	threshold := genai.HarmBlockThresholdBlockMediumAndAbove
	if p == SafetyRelaxed {
		threshold = genai.HarmBlockThresholdBlockOnlyHigh
	}
	settings := make([]*genai.SafetySetting, 0, len(safetyCategories))
	for _, c := range safetyCategories {
		settings = append(settings, &genai.SafetySetting{Category: c, Threshold: threshold})
	}
	return settings
}
