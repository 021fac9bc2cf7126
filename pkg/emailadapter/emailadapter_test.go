package emailadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_EmptyHostReturnsNilFailOpen(t *testing.T) {
	s := New(Config{})
	assert.Nil(t, s)
}

func TestSendSummary_NilReceiverNoOp(t *testing.T) {
	var s *Service
	err := s.SendSummary(context.Background(), Summary{To: "patient@example.com", Subject: "Recovery summary"})
	assert.NoError(t, err)
}

func TestBuildMIMEMessage_PrefersHTMLWhenPresent(t *testing.T) {
	msg := buildMIMEMessage("noreply@postop.example", Summary{
		To:        "patient@example.com",
		Subject:   "Your recovery instructions",
		BodyPlain: "plain text",
		BodyHTML:  "<p>html</p>",
	})
	assert.Contains(t, string(msg), "text/html")
	assert.Contains(t, string(msg), "<p>html</p>")
}
