package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrNoRoute is returned when an address cannot be resolved or no rate is
// configured for the city.
var ErrNoRoute = errors.New("no route or rate for request")

type Quote struct {
	Distance float64 `json:"distance"`
	Price    float64 `json:"price"`
}

// PricingClient asks the external pricing/geocoding service for a quote. The
// returned price is treated as opaque and immutable once an order is created.
type PricingClient struct {
	url    string
	client *HTTPClient
}

func NewPricingClient(address string, client *HTTPClient) *PricingClient {
	return &PricingClient{
		url:    address,
		client: client,
	}
}

func (c *PricingClient) GetQuote(city, pickupAddress, dropoffAddress string) (*Quote, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("from", pickupAddress)
	q.Set("to", dropoffAddress)

	statusCode, body, _, err := c.client.Get(c.url+"/api/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pricing request failed: %w", err)
	}

	switch statusCode {
	case http.StatusOK:
		var quote Quote
		if err := json.Unmarshal(body, &quote); err != nil {
			return nil, fmt.Errorf("failed to parse pricing response: %w", err)
		}
		return &quote, nil
	case http.StatusNotFound:
		return nil, ErrNoRoute
	default:
		return nil, fmt.Errorf("unexpected pricing status code: %d", statusCode)
	}
}
