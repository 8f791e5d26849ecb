package domain

import (
	"errors"
	"fmt"
)

// ErrorKind は上流の失敗を閉じた分類に落とし込んだ種別です。
type ErrorKind string

const (
	KindInputTooLarge       ErrorKind = "input_too_large"
	KindMalformed           ErrorKind = "malformed"
	KindSafetyRejected      ErrorKind = "safety_rejected"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
)

// Reason は ErrorKind をさらに細分化した理由です。
// UpstreamUnavailable のメッセージを出し分けるために使います。
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonRateLimited Reason = "rate_limited"
	ReasonOverloaded  Reason = "overloaded"
	ReasonNetwork     Reason = "network"
	ReasonBlocked     Reason = "blocked"
	ReasonUnknown     Reason = "unknown"
)

var (
	ErrInputTooLarge       = errors.New("input too large")
	ErrMalformed           = errors.New("malformed request")
	ErrSafetyRejected      = errors.New("rejected by safety filter")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrQuotaExhausted は本日の利用上限に達したことを表します。Gateway の分類とは独立です。
	ErrQuotaExhausted = errors.New("daily usage limit reached")
)

// ClassifiedError はプレゼンテーション層に渡す唯一のエラー型です。
type ClassifiedError struct {
	Kind        ErrorKind
	Reason      Reason
	UserMessage string
	Err         error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Reason != ReasonNone {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Reason)
	}
	return string(e.Kind)
}

// Unwrap は種別ごとのセンチネルと元のエラーの両方を返すため、
// errors.Is(err, ErrSafetyRejected) のような判定ができます。
func (e *ClassifiedError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Terminal は再試行しても結果が変わらない失敗かどうかを返します。
func (e *ClassifiedError) Terminal() bool {
	return e.Kind != KindUpstreamUnavailable
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInputTooLarge:
		return ErrInputTooLarge
	case KindMalformed:
		return ErrMalformed
	case KindSafetyRejected:
		return ErrSafetyRejected
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	}
	return nil
}

// AsClassified は err の連鎖から ClassifiedError を取り出します。
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// NewInputTooLarge は入力サイズ超過のエラーを作成します。
func NewInputTooLarge(msg string) *ClassifiedError {
	if msg == "" {
		msg = MessageInputTooLarge
	}
	return &ClassifiedError{Kind: KindInputTooLarge, UserMessage: msg}
}

// NewMalformed は不正な入力のエラーを作成します。
func NewMalformed(msg string, err error) *ClassifiedError {
	if msg == "" {
		msg = MessageMalformed
	}
	return &ClassifiedError{Kind: KindMalformed, UserMessage: msg, Err: err}
}

// NewSafetyRejected は安全フィルターによる拒否のエラーを作成します。
func NewSafetyRejected(err error) *ClassifiedError {
	return &ClassifiedError{Kind: KindSafetyRejected, Reason: ReasonBlocked, UserMessage: MessageSafetyRejected, Err: err}
}

// NewUpstreamUnavailable は一時的な上流障害のエラーを作成します。
func NewUpstreamUnavailable(reason Reason, err error) *ClassifiedError {
	return &ClassifiedError{Kind: KindUpstreamUnavailable, Reason: reason, UserMessage: UnavailableMessage(reason), Err: err}
}
