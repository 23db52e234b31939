package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/option"
	tts "google.golang.org/api/texttospeech/v1"

	"chemtutor/internal/apperr"
)

// maxInputBytes stays under the 5000 byte request limit of the TTS API.
const maxInputBytes = 4500

type CloudSynthesizer struct {
	svc      *tts.Service
	language string
	timeout  time.Duration
}

func NewCloudSynthesizer(ctx context.Context, language string, opts ...option.ClientOption) (*CloudSynthesizer, error) {
	svc, err := tts.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech service: %w", err)
	}
	return &CloudSynthesizer{svc: svc, language: language}, nil
}

// WithTimeout bounds each Synthesize call.
func (s *CloudSynthesizer) WithTimeout(d time.Duration) *CloudSynthesizer {
	s.timeout = d
	return s
}

// Synthesize returns MP3 audio. Long text is spoken in segments whose frames
// are concatenated.
func (s *CloudSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	var out []byte
	for _, seg := range SplitForSpeech(text, maxInputBytes) {
		resp, err := s.svc.Text.Synthesize(&tts.SynthesizeSpeechRequest{
			Input:       &tts.SynthesisInput{Text: seg},
			Voice:       &tts.VoiceSelectionParams{LanguageCode: s.language},
			AudioConfig: &tts.AudioConfig{AudioEncoding: "MP3"},
		}).Context(ctx).Do()
		if err != nil {
			return nil, apperr.Upstream("synthesize", err)
		}
		audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
		if err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
		out = append(out, audio...)
	}
	return out, nil
}

// SplitForSpeech breaks text into segments of at most maxBytes, preferring
// whitespace boundaries and never splitting a rune.
func SplitForSpeech(text string, maxBytes int) []string {
	text = strings.TrimSpace(text)
	var segs []string
	for len(text) > maxBytes {
		cut := strings.LastIndexAny(text[:maxBytes+1], " \n\t")
		if cut <= 0 {
			cut = maxBytes
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		segs = append(segs, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		segs = append(segs, text)
	}
	return segs
}
