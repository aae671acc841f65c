// Package messenger delivers private confirmation messages through the chat
// platform gateway.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrDeliveryForbidden means the recipient does not accept private
	// messages. The booking itself is never rolled back on delivery failure.
	ErrDeliveryForbidden = errors.New("recipient does not accept direct messages")
	ErrBadStatusCode     = errors.New("invalid status code from gateway")
)

// Itinerary carries the full confirmation details for one booking.
type Itinerary struct {
	FlightCode     string    `json:"flight_code"`
	Route          string    `json:"route"`
	Aircraft       string    `json:"aircraft"`
	BookingCode    string    `json:"booking_code"`
	RobloxUsername string    `json:"roblox_username"`
	CabinClass     string    `json:"cabin_class"`
	Timezone       string    `json:"timezone"`
	Departure      string    `json:"departure"`
	Boarding       string    `json:"boarding"`
	BookedAt       time.Time `json:"booked_at"`
}

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	httpClient HTTPClient
	baseURL    string
	token      string
}

type Option func(*Client)

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		token:      token,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// SendDM posts the itinerary to the recipient's private channel.
func (c *Client) SendDM(ctx context.Context, recipientID int64, itinerary Itinerary) error {
	payload, err := json.Marshal(itinerary)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/users/%d/messages", c.baseURL, recipientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bot "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrDeliveryForbidden
	case resp.StatusCode >= 300:
		return ErrBadStatusCode
	}
	return nil
}
