package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"chemtutor/internal/session"
)

// Client talks to the tutor HTTP API and keeps the session id the server
// assigns on the first response.
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	sessionID string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Ask posts a question to /chat and returns the answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var ans struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat", map[string]string{"question": question}, &ans); err != nil {
		return "", err
	}
	return ans.Text, nil
}

// SetMode switches the session's interaction mode.
func (c *Client) SetMode(ctx context.Context, mode string) (session.Mode, error) {
	var view session.View
	if err := c.do(ctx, http.MethodPut, "/session/mode", map[string]string{"mode": mode}, &view); err != nil {
		return "", err
	}
	return view.Mode, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := c.SessionID(); id != "" {
		req.Header.Set(session.Header, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if id := resp.Header.Get(session.Header); id != "" {
		c.mu.Lock()
		c.sessionID = id
		c.mu.Unlock()
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.Unmarshal(envelope.Data, out)
}
