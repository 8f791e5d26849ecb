package domain

import "fmt"

// ユーザーに表示する固定メッセージ
const (
	MessageInputTooLarge  = "Your input is too large. Please shorten the text or use a smaller image."
	MessageMalformed      = "The request could not be processed. Please check your input and try again."
	MessageSafetyRejected = "This request was blocked by the content safety filter. Please edit your prompt or image and try again."
	MessageRateLimited    = "Too many requests right now. Please wait a moment and try again."
	MessageOverloaded     = "The image service is busy right now. Please try again in a few minutes."
	MessageNetwork        = "Could not reach the image service. Please check your connection and try again."
	MessageNoImage        = "No image was generated. Please try again."
)

// UnavailableMessage は UpstreamUnavailable の理由ごとのメッセージを返します。
func UnavailableMessage(reason Reason) string {
	switch reason {
	case ReasonRateLimited:
		return MessageRateLimited
	case ReasonOverloaded:
		return MessageOverloaded
	default:
		return MessageNetwork
	}
}

// QuotaExhaustedMessage は上限到達時のアップセル文言です。
func QuotaExhaustedMessage(limit int) string {
	return fmt.Sprintf("You have used all %d free generations for today. Upgrade to premium or contact us to keep creating.", limit)
}
