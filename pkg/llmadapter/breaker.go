package llmadapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/sony/gobreaker"
)

// BreakerClient wraps a Client with a circuit breaker so a sustained
// run of LLMUnavailable failures trips fast instead of piling up
// timeouts against a dead provider.
type BreakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps inner with a breaker that opens after 5
// consecutive failures and probes again after 30s.
func NewBreakerClient(inner Client) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-adapter",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("llm circuit breaker state change", "breaker", name, "from", from, "to", to)
		},
	})
	return &BreakerClient{inner: inner, cb: cb}
}

// ChatCompletion runs the call through the breaker, converting an
// open-breaker rejection into KindLLMUnavailable.
func (b *BreakerClient) ChatCompletion(ctx context.Context, req Request) (*Response, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.inner.ChatCompletion(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, callerrors.New(callerrors.KindLLMUnavailable, "llm circuit breaker open", err)
		}
		return nil, err
	}
	return res.(*Response), nil
}
