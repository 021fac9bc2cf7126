// Package fabric is the outbound Call Fabric adapter: the realtime
// voice/SIP platform that dispatches an agent onto a room and bridges
// an outbound phone call to it, reached only through this interface so
// the concrete realtime platform stays a swappable implementation
// detail.
package fabric

import "context"

// AgentDispatchRequest asks the fabric to bind an agent worker to a room.
type AgentDispatchRequest struct {
	AgentName string
	RoomName  string
	Metadata  map[string]any // JSON-encoded by the concrete adapter
}

// SIPCallRequest asks the fabric to attach an outbound SIP participant.
type SIPCallRequest struct {
	RoomName            string
	TrunkID             string
	PhoneNumber         string // E.164
	ParticipantIdentity string
	WaitUntilAnswered   bool
}

// SIPError carries the SIP status the fabric reported, classified by
// the caller (pkg/callexec) into retryable vs. permanent.
type SIPError struct {
	Message        string
	SIPStatusCode  string
	SIPStatusText  string
}

func (e *SIPError) Error() string {
	if e.SIPStatusCode != "" {
		return e.Message + " (SIP " + e.SIPStatusCode + " " + e.SIPStatusText + ")"
	}
	return e.Message
}

// Adapter is the Call Fabric adapter contract.
type Adapter interface {
	CreateAgentDispatch(ctx context.Context, req AgentDispatchRequest) (dispatchID string, err error)
	CreateSIPParticipant(ctx context.Context, req SIPCallRequest) (participantID string, err error)
}
