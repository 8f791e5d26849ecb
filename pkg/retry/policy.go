package retry

import "time"

const (
	// DefaultMaxAttempts は1回の操作あたりの試行回数の上限です（初回を含む）。設定で増やすことはできません。
	DefaultMaxAttempts = 2
	// DefaultInterval は再試行前に待つ固定の間隔です。
	DefaultInterval = time.Second
)

// Decision はエラー1件に対する再試行の判断です。
type Decision struct {
	Retryable         bool
	AttemptsRemaining int
	UserMessage       string
}

// Decide は分類結果と試行回数 (1 始まり) から再試行の可否を決めます。
func Decide(err error, attempt, maxAttempts int) Decision {
	ce := Classify(err)
	if ce == nil {
		return Decision{}
	}
	remaining := maxAttempts - attempt
	if remaining < 0 || !IsTransient(ce) {
		remaining = 0
	}
	return Decision{
		Retryable:         remaining > 0,
		AttemptsRemaining: remaining,
		UserMessage:       ce.UserMessage,
	}
}
