package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"chemtutor/internal/apperr"
)

var ErrEmptyResponse = errors.New("model returned no text")

// Image is an inline image part; Format is the subtype such as "png" or "jpeg".
type Image struct {
	Format string
	Data   []byte
}

// Request is one generateContent call.
type Request struct {
	System      string
	Prompt      string
	Temperature *float32
	Image       *Image
}

type Generator struct {
	client      *Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewGenerator(client *Client, model string, temperature float32, timeout time.Duration) *Generator {
	return &Generator{client: client, model: model, temperature: temperature, timeout: timeout}
}

// Generate returns the text of the first candidate, unmodified.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	client, err := g.client.get(ctx)
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := client.GenerativeModel(g.model)
	temp := g.temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	model.SetTemperature(temp)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.ImageData(req.Image.Format, req.Image.Data))
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		slog.ErrorContext(ctx, "generate content failed", "model", g.model, "error", err)
		return "", apperr.Upstream("generate content", err)
	}
	slog.DebugContext(ctx, "generated content", "model", g.model, "duration_ms", time.Since(start).Milliseconds())

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", apperr.Upstream("generate content", ErrEmptyResponse)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Temp is a helper for per-request temperature overrides.
func Temp(t float32) *float32 {
	return &t
}
