// Package utils はログ出力用の slog 属性ヘルパーをまとめています。
package utils

import (
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Err はエラーを "error" 属性に変換します。nil の場合は空文字です。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Secret は API キーなどの先頭 5 文字だけを残した属性を返します。
func Secret(some string) slog.Attr {
	r := "***"
	if len(some) > 5 {
		r = fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		r = "?"
	}
	return slog.String("secret", r)
}

// Module はログの出力元を示す属性です。
func Module(mod string) slog.Attr {
	return slog.String("mod", mod)
}

// Truncate はプロンプトやデータURIのような長い値を max 文字に切り詰めた属性を返します。
func Truncate(key, value string, max int) slog.Attr {
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return slog.String(key, value)
	}
	return slog.String(key, string([]rune(value)[:max])+fmt.Sprintf("...(%d chars)", utf8.RuneCountInString(value)))
}
