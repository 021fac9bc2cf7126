package callexec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifySIPError_Table(t *testing.T) {
	cases := map[string]bool{
		"486": true,
		"487": true,
		"408": true,
		"503": true,
		"404": false,
		"410": false,
		"603": false,
		"999": true, // unknown defaults retryable
	}
	for code, want := range cases {
		assert.Equal(t, want, ClassifySIPError(code), "code %s", code)
	}
}

func TestRetryDelay_Schedule(t *testing.T) {
	assert.Equal(t, 5*time.Minute, RetryDelay(1))
	assert.Equal(t, 15*time.Minute, RetryDelay(2))
	assert.Equal(t, 30*time.Minute, RetryDelay(3))
	assert.Equal(t, 30*time.Minute, RetryDelay(4))
	assert.Equal(t, 30*time.Minute, RetryDelay(10))
}
