package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type PushRequest struct {
	DeliveryID string `json:"delivery_id"`
	UserID     int    `json:"user_id"`
	Type       string `json:"type"`
	Payload    string `json:"payload"`
}

// PushClient sends one push to the external provider. A non-2xx response is a
// send-time failure; the caller records it on the delivery log entry.
type PushClient struct {
	url    string
	client *HTTPClient
}

func NewPushClient(address string, client *HTTPClient) *PushClient {
	return &PushClient{
		url:    address,
		client: client,
	}
}

func (c *PushClient) Send(req PushRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	statusCode, _, err := c.client.Post(c.url+"/api/push", nil, body)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("push provider returned status %d", statusCode)
	}
	return nil
}
