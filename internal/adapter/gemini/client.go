package gemini

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrMissingAPIKey = errors.New("gemini api key not configured")

// Client lazily opens one genai client and shares it between the embedder
// and the generator.
type Client struct {
	apiKey     string
	clientOpts []option.ClientOption

	mu     sync.RWMutex
	client *genai.Client
}

func NewClient(apiKey string, opts ...option.ClientOption) *Client {
	return &Client{apiKey: apiKey, clientOpts: opts}
}

func (c *Client) get(ctx context.Context) (*genai.Client, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c.mu.RLock()
	if c.client != nil {
		defer c.mu.RUnlock()
		return c.client, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double check
	if c.client != nil {
		return c.client, nil
	}

	opts := append([]option.ClientOption{}, c.clientOpts...)
	opts = append(opts, option.WithAPIKey(c.apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	if err != nil {
		slog.Warn("failed to close genai client", "error", err)
	}
	c.client = nil
	return err
}
