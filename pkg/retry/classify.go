package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"google.golang.org/genai"
)

// messageRule は構造化された信号が得られない場合に使う文字列マッピングです。
// 上流のメッセージ文言が変わった場合はこの表だけを更新します。
type messageRule struct {
	pattern *regexp.Regexp
	kind    domain.ErrorKind
	reason  domain.Reason
}

func rule(expr string, kind domain.ErrorKind, reason domain.Reason) messageRule {
	return messageRule{pattern: regexp.MustCompile(expr), kind: kind, reason: reason}
}

// 先頭から順に評価する。レート制限は "blocked" などの語と同時に現れることがあるため安全系より先に置く。
// ステータスコードは単語境界で照合し、サイズなどの数値には反応させない。
var messageRules = []messageRule{
	rule(`\b429\b`, domain.KindUpstreamUnavailable, domain.ReasonRateLimited),
	rule(`rate limit`, domain.KindUpstreamUnavailable, domain.ReasonRateLimited),
	rule(`quota`, domain.KindUpstreamUnavailable, domain.ReasonRateLimited),
	rule(`resource[ _]exhausted`, domain.KindUpstreamUnavailable, domain.ReasonRateLimited),
	rule(`safety`, domain.KindSafetyRejected, domain.ReasonBlocked),
	rule(`blocked`, domain.KindSafetyRejected, domain.ReasonBlocked),
	rule(`invalid[ _]argument`, domain.KindMalformed, domain.ReasonNone),
	rule(`too large`, domain.KindInputTooLarge, domain.ReasonNone),
	rule(`\b503\b`, domain.KindUpstreamUnavailable, domain.ReasonOverloaded),
	rule(`overloaded`, domain.KindUpstreamUnavailable, domain.ReasonOverloaded),
	rule(`unavailable`, domain.KindUpstreamUnavailable, domain.ReasonOverloaded),
}

// Classify は任意のエラーを閉じた分類の ClassifiedError に変換します。
// I/O を伴わない純粋関数で、分類済みのエラーはそのまま返します。
func Classify(err error) *domain.ClassifiedError {
	if err == nil {
		return nil
	}
	if ce, ok := domain.AsClassified(err); ok {
		return ce
	}

	if ce := fromAPIError(err); ce != nil {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewUpstreamUnavailable(domain.ReasonNetwork, err)
	}
	if ce := fromMessage(err.Error(), err); ce != nil {
		return ce
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewUpstreamUnavailable(domain.ReasonNetwork, err)
	}
	return domain.NewUpstreamUnavailable(domain.ReasonUnknown, err)
}

func fromAPIError(err error) *domain.ClassifiedError {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return nil
	}

	switch {
	case apiErr.Code == http.StatusBadRequest || apiErr.Status == "INVALID_ARGUMENT":
		// 400 でも安全フィルター由来の場合がある
		if ce := fromMessage(apiErr.Message, err); ce != nil && ce.Kind == domain.KindSafetyRejected {
			return ce
		}
		return domain.NewMalformed("", err)
	case apiErr.Code == http.StatusRequestEntityTooLarge:
		return &domain.ClassifiedError{Kind: domain.KindInputTooLarge, UserMessage: domain.MessageInputTooLarge, Err: err}
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return domain.NewUpstreamUnavailable(domain.ReasonRateLimited, err)
	case apiErr.Code == http.StatusInternalServerError,
		apiErr.Code == http.StatusBadGateway,
		apiErr.Code == http.StatusServiceUnavailable,
		apiErr.Code == http.StatusGatewayTimeout,
		apiErr.Status == "UNAVAILABLE",
		apiErr.Status == "INTERNAL":
		return domain.NewUpstreamUnavailable(domain.ReasonOverloaded, err)
	}
	return fromMessage(apiErr.Message, err)
}

func fromMessage(msg string, err error) *domain.ClassifiedError {
	lower := strings.ToLower(msg)
	for _, r := range messageRules {
		if !r.pattern.MatchString(lower) {
			continue
		}
		switch r.kind {
		case domain.KindSafetyRejected:
			return domain.NewSafetyRejected(err)
		case domain.KindMalformed:
			return domain.NewMalformed("", err)
		case domain.KindInputTooLarge:
			return &domain.ClassifiedError{Kind: domain.KindInputTooLarge, UserMessage: domain.MessageInputTooLarge, Err: err}
		default:
			return domain.NewUpstreamUnavailable(r.reason, err)
		}
	}
	return nil
}

// IsTransient は自動再試行の対象となる一時的な障害かどうかを返します。
// レート制限と過負荷のみが対象で、ネットワーク障害や不明なエラーは対象外です。
func IsTransient(ce *domain.ClassifiedError) bool {
	if ce == nil || ce.Kind != domain.KindUpstreamUnavailable {
		return false
	}
	return ce.Reason == domain.ReasonRateLimited || ce.Reason == domain.ReasonOverloaded
}
