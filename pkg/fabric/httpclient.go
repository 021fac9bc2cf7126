package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient is a thin REST binding to a Call Fabric control-plane
// HTTP API (CALL_FABRIC_URL). The real realtime platform's SDK is
// explicitly out of scope ; this is the minimal adapter a
// concrete deployment fills in.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient constructs a fabric Adapter bound to baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, http: &http.Client{Timeout: 30 * time.Second}}
}

type dispatchResponse struct {
	DispatchID string `json:"dispatch_id"`
}

// CreateAgentDispatch posts a dispatch request and returns the dispatch id.
func (c *HTTPClient) CreateAgentDispatch(ctx context.Context, req AgentDispatchRequest) (string, error) {
	var out dispatchResponse
	if err := c.postJSON(ctx, "/dispatch", req, &out); err != nil {
		return "", err
	}
	return out.DispatchID, nil
}

type sipResponse struct {
	ParticipantID string `json:"participant_id"`
	SIPStatusCode string `json:"sip_status_code"`
	SIPStatusText string `json:"sip_status"`
}

// CreateSIPParticipant posts a SIP dial request, blocking until the
// fabric reports answer or failure (WaitUntilAnswered).
func (c *HTTPClient) CreateSIPParticipant(ctx context.Context, req SIPCallRequest) (string, error) {
	var out sipResponse
	if err := c.postJSON(ctx, "/sip/participants", req, &out); err != nil {
		return "", err
	}
	if out.SIPStatusCode != "" && out.SIPStatusCode != "200" {
		return "", &SIPError{
			Message:       fmt.Sprintf("SIP dial failed for %s", req.PhoneNumber),
			SIPStatusCode: out.SIPStatusCode,
			SIPStatusText: out.SIPStatusText,
		}
	}
	return out.ParticipantID, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding fabric request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building fabric request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling call fabric: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("call fabric returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
