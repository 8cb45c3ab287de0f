package telegram

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
)

// Outcome classifies the result of a best-effort Bot API call.
type Outcome int

// Outcomes of a Bot API call.
const (
	// OutcomeOK means the call succeeded.
	OutcomeOK Outcome = iota
	// OutcomeDenied means Telegram rejected the call: missing rights,
	// message already gone, bot removed from the chat.
	OutcomeDenied
	// OutcomeNetworkError covers transport failures, timeouts, rate limits
	// and anything Telegram did not answer with a definitive rejection.
	OutcomeNetworkError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDenied:
		return "denied"
	default:
		return "network_error"
	}
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o == OutcomeOK
}

// Classify maps an error returned by go-telegram/bot to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeNetworkError
	case errors.Is(err, bot.ErrorForbidden),
		errors.Is(err, bot.ErrorBadRequest),
		errors.Is(err, bot.ErrorNotFound),
		errors.Is(err, bot.ErrorUnauthorized):
		return OutcomeDenied
	default:
		return OutcomeNetworkError
	}
}
