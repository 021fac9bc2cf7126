package fabric

import (
	"context"
	"log/slog"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/sony/gobreaker"
)

// BreakerAdapter wraps an Adapter with a circuit breaker so a
// sustained run of dispatch/SIP failures trips fast instead of piling
// up dial timeouts against a dead Call Fabric deployment. Distinct
// from llmadapter.BreakerClient's breaker instance, per adapter.
type BreakerAdapter struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerAdapter wraps inner with a breaker that opens after 5
// consecutive failures and probes again after 30s.
func NewBreakerAdapter(inner Adapter) *BreakerAdapter {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fabric-adapter",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("fabric circuit breaker state change", "breaker", name, "from", from, "to", to)
		},
	})
	return &BreakerAdapter{inner: inner, cb: cb}
}

// CreateAgentDispatch runs the dispatch call through the breaker,
// converting an open-breaker rejection into KindFabricUnavailable.
func (b *BreakerAdapter) CreateAgentDispatch(ctx context.Context, req AgentDispatchRequest) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.inner.CreateAgentDispatch(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", callerrors.New(callerrors.KindFabricUnavailable, "fabric circuit breaker open", err)
		}
		return "", err
	}
	return res.(string), nil
}

// CreateSIPParticipant runs the SIP dial through the breaker,
// converting an open-breaker rejection into KindFabricUnavailable.
func (b *BreakerAdapter) CreateSIPParticipant(ctx context.Context, req SIPCallRequest) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.inner.CreateSIPParticipant(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", callerrors.New(callerrors.KindFabricUnavailable, "fabric circuit breaker open", err)
		}
		return "", err
	}
	return res.(string), nil
}
