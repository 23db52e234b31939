package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"chemtutor/internal/adapter/speech"
	"chemtutor/internal/httpx"
	"chemtutor/internal/session"
)

const maxAudioBytes = 10 << 20

type Transcriber interface {
	Transcribe(ctx context.Context, audio speech.Audio) string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Transcript struct {
	Text string `json:"transcript"`
}

type Navigation struct {
	Transcript string       `json:"transcript"`
	Reply      string       `json:"reply"`
	Audio      string       `json:"audio,omitempty"`
	Session    session.View `json:"session"`
}

// Handler serves speech input. Tab replies are Sinhala and system replies
// English, so each gets its own voice.
type Handler struct {
	transcriber Transcriber
	sinhala     Synthesizer
	english     Synthesizer
}

func NewHandler(t Transcriber, sinhala, english Synthesizer) *Handler {
	return &Handler{transcriber: t, sinhala: sinhala, english: english}
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	audio, err := readAudio(w, r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
		return
	}
	httpx.WriteData(r.Context(), w, http.StatusOK, Transcript{Text: h.transcriber.Transcribe(r.Context(), audio)})
}

func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	audio, err := readAudio(w, r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
		return
	}
	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}

	text := h.transcriber.Transcribe(r.Context(), audio)
	cmd := session.ParseCommand(text)

	sess.Lock()
	speak := sess.Mode == session.ModeAccessibility
	reply := sess.Apply(cmd)
	view := sess.View()
	sess.Unlock()

	slog.InfoContext(r.Context(), "voice command", "transcript", text, "kind", cmd.Kind, "tab", view.Tab)

	nav := Navigation{Transcript: text, Reply: reply, Session: view}
	if speak {
		nav.Audio = h.speak(r.Context(), cmd, reply)
	}
	httpx.WriteData(r.Context(), w, http.StatusOK, nav)
}

func (h *Handler) speak(ctx context.Context, cmd session.Command, reply string) string {
	synth := h.english
	if cmd.Kind == session.CommandOpenTab {
		synth = h.sinhala
	}
	if synth == nil {
		return ""
	}
	audio, err := synth.Synthesize(ctx, reply)
	if err != nil {
		slog.WarnContext(ctx, "speech synthesis failed", "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

func readAudio(w http.ResponseWriter, r *http.Request) (speech.Audio, error) {
	encoding := speech.EncodingForContentType(r.Header.Get("Content-Type"))
	if encoding == "" {
		return speech.Audio{}, fmt.Errorf("unsupported audio type %q", r.Header.Get("Content-Type"))
	}
	var rate int64
	if v := r.URL.Query().Get("rate"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return speech.Audio{}, errors.New("rate must be a positive integer")
		}
		rate = n
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil {
		return speech.Audio{}, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return speech.Audio{}, errors.New("audio body is empty")
	}
	return speech.Audio{Data: data, Encoding: encoding, SampleRateHertz: rate}, nil
}
