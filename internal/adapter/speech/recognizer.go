package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"

	"chemtutor/internal/apperr"
)

// Audio is a recorded utterance. Encoding uses Cloud Speech names
// (LINEAR16, FLAC, OGG_OPUS, WEBM_OPUS, MP3).
type Audio struct {
	Data            []byte
	Encoding        string
	SampleRateHertz int64
}

// Recognizer performs a single recognition attempt.
type Recognizer interface {
	Recognize(ctx context.Context, audio Audio) (string, error)
}

type CloudRecognizer struct {
	svc      *speechapi.Service
	language string
}

func NewCloudRecognizer(ctx context.Context, language string, opts ...option.ClientOption) (*CloudRecognizer, error) {
	svc, err := speechapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech service: %w", err)
	}
	return &CloudRecognizer{svc: svc, language: language}, nil
}

// Recognize returns the best transcript, or "" when nothing intelligible was heard.
func (r *CloudRecognizer) Recognize(ctx context.Context, audio Audio) (string, error) {
	cfg := &speechapi.RecognitionConfig{
		LanguageCode:    r.language,
		Encoding:        audio.Encoding,
		SampleRateHertz: audio.SampleRateHertz,
	}
	resp, err := r.svc.Speech.Recognize(&speechapi.RecognizeRequest{
		Config: cfg,
		Audio:  &speechapi.RecognitionAudio{Content: base64.StdEncoding.EncodeToString(audio.Data)},
	}).Context(ctx).Do()
	if err != nil {
		return "", apperr.Upstream("recognize", err)
	}

	var parts []string
	for _, res := range resp.Results {
		if len(res.Alternatives) > 0 && res.Alternatives[0].Transcript != "" {
			parts = append(parts, strings.TrimSpace(res.Alternatives[0].Transcript))
		}
	}
	return strings.Join(parts, " "), nil
}

// Transcriber retries timed-out attempts and never returns an error:
// the worst case is an empty transcript.
type Transcriber struct {
	rec            Recognizer
	maxRetries     int
	attemptTimeout time.Duration
}

func NewTranscriber(rec Recognizer, maxRetries int, attemptTimeout time.Duration) *Transcriber {
	return &Transcriber{rec: rec, maxRetries: maxRetries, attemptTimeout: attemptTimeout}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio Audio) string {
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		text, err := t.attempt(ctx, audio)
		if err == nil {
			if text == "" {
				slog.InfoContext(ctx, "speech not understood", "attempt", attempt+1)
			}
			return text
		}
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "transcription cancelled", "error", ctx.Err())
			return ""
		}
		if !isTimeout(err) {
			slog.WarnContext(ctx, "speech recognition error", "attempt", attempt+1, "error", err)
			return ""
		}
		slog.WarnContext(ctx, "speech recognition timed out", "attempt", attempt+1, "max_retries", t.maxRetries)
	}
	return ""
}

func (t *Transcriber) attempt(ctx context.Context, audio Audio) (string, error) {
	if t.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.attemptTimeout)
		defer cancel()
	}
	return t.rec.Recognize(ctx, audio)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// EncodingForContentType maps an upload's MIME type to a Cloud Speech encoding.
func EncodingForContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/l16":
		return "LINEAR16"
	case "audio/flac", "audio/x-flac":
		return "FLAC"
	case "audio/ogg":
		return "OGG_OPUS"
	case "audio/webm":
		return "WEBM_OPUS"
	case "audio/mpeg", "audio/mp3":
		return "MP3"
	default:
		return ""
	}
}
