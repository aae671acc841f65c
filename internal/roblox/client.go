package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Mode controls what happens when the remote lookup cannot be completed.
// Advisory treats an unverifiable name as valid (the lookup can only ever
// accept names, never block a booking); Strict rejects it.
type Mode string

const (
	ModeAdvisory Mode = "advisory"
	ModeStrict   Mode = "strict"
)

var ErrBadStatusCode = errors.New("invalid status code from roblox")

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	httpClient HTTPClient
	baseURL    string
	mode       Mode
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithMode(mode Mode) Option {
	return func(c *Client) {
		c.mode = mode
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://users.roblox.com",
		mode:       ModeAdvisory,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

type lookupRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

type lookupResponse struct {
	Data []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

// ValidateUsername runs the deterministic local checks and, if they pass,
// one best-effort batch lookup against the Roblox users API.
func (c *Client) ValidateUsername(ctx context.Context, username string) bool {
	if !wellFormed(username) {
		return false
	}

	found, err := c.lookup(ctx, username)
	if err != nil {
		log.Printf("roblox username check failed: %v", err)
		return c.mode != ModeStrict
	}
	return found
}

func wellFormed(username string) bool {
	if len(username) < 3 || len(username) > 20 {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

func (c *Client) lookup(ctx context.Context, username string) (bool, error) {
	payload, err := json.Marshal(lookupRequest{
		Usernames:          []string{username},
		ExcludeBannedUsers: true,
	})
	if err != nil {
		return false, err
	}

	u := fmt.Sprintf("%s/v1/usernames/users", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBuffer(payload))
	if err != nil {
		return false, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return false, ErrBadStatusCode
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	var result lookupResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, err
	}
	return len(result.Data) > 0, nil
}
