package callerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesWrappedCallError(t *testing.T) {
	base := New(KindStoreTransient, "connection refused", errors.New("dial tcp: refused"))
	wrapped := fmt.Errorf("dequeue_due failed: %w", base)

	assert.True(t, Is(wrapped, KindStoreTransient))
	assert.False(t, Is(wrapped, KindStoreCorrupt))
	assert.False(t, Is(errors.New("plain error"), KindStoreTransient))
}

func TestCallError_Error_IncludesCauseWhenPresent(t *testing.T) {
	withCause := New(KindSIPPermanent, "invalid number", errors.New("SIP 404"))
	assert.Contains(t, withCause.Error(), "invalid number")
	assert.Contains(t, withCause.Error(), "SIP 404")

	withoutCause := New(KindCancelled, "shutdown in progress", nil)
	assert.Equal(t, "cancelled: shutdown in progress", withoutCause.Error())
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindStoreTransient, true},
		{KindSIPRetryable, true},
		{KindFabricUnavailable, true},
		{KindStoreCorrupt, false},
		{KindSIPPermanent, false},
		{KindPolicyExhausted, false},
		{KindCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ce := New(tt.kind, "test", nil)
			assert.Equal(t, tt.want, ce.Retryable())
		})
	}
}
