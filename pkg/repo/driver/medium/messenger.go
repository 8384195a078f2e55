package medium

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
)

// Messenger delivers one text message. Retries and timeouts are the
// provider's business.
type Messenger interface {
	Send(ctx context.Context, to, from, body string) error
	Name() string
}

// NewMessenger builds the configured transport behind the send throttle. It
// returns consts.ErrMissingTransport when credentials are incomplete.
func NewMessenger(conf *config.AppConfModel) (Messenger, error) {
	if err := conf.TransportReady(); err != nil {
		return nil, err
	}

	var (
		m   Messenger
		err error
	)
	switch conf.Transport.Provider {
	case consts.TransportTwilio:
		m, err = NewTwilioMessenger(conf.Transport.Twilio)
	case consts.TransportSNS:
		m, err = NewSNSMessenger(conf.Transport.SNS)
	case consts.TransportLog:
		m = NewLogMessenger()
	default:
		err = fmt.Errorf("%w: unsupported provider %q", consts.ErrMissingTransport, conf.Transport.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewThrottledMessenger(m, conf.Transport.RatePerSecond, conf.Transport.Burst), nil
}

// ThrottledMessenger spaces sends out so that a large fan-out does not trip
// provider rate limits.
type ThrottledMessenger struct {
	next    Messenger
	limiter *rate.Limiter
}

// NewThrottledMessenger wraps next; a non-positive rate disables throttling.
func NewThrottledMessenger(next Messenger, perSecond float64, burst int) *ThrottledMessenger {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	return &ThrottledMessenger{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (t *ThrottledMessenger) Send(ctx context.Context, to, from, body string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	return t.next.Send(ctx, to, from, body)
}

func (t *ThrottledMessenger) Name() string {
	return t.next.Name()
}
