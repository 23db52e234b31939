package labs

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"chemtutor/internal/adapter/gemini"
)

var ErrEmptyQuestion = errors.New("question is required")

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Reply struct {
	LabID  string `json:"labId"`
	Answer string `json:"answer"`
	Audio  string `json:"audio,omitempty"`
}

type Service struct {
	catalog     *Catalog
	generator   Generator
	synthesizer Synthesizer
}

func NewService(c *Catalog, g Generator, s Synthesizer) *Service {
	return &Service{catalog: c, generator: g, synthesizer: s}
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Ask answers a student's question with the lab assistant persona.
func (s *Service) Ask(ctx context.Context, labID, question string, speak bool) (*Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	lab, err := s.catalog.Lab(labID)
	if err != nil {
		return nil, err
	}

	text, err := s.generator.Generate(ctx, gemini.Request{
		System: lab.AssistantPrompt,
		Prompt: "Student's Question: " + question,
	})
	if err != nil {
		return nil, err
	}
	return s.reply(ctx, lab.ID, text, speak), nil
}

// Intro produces the short pre-lab lesson for a lab.
func (s *Service) Intro(ctx context.Context, labID string, speak bool) (*Reply, error) {
	lab, err := s.catalog.Lab(labID)
	if err != nil {
		return nil, err
	}
	text, err := s.generator.Generate(ctx, gemini.Request{Prompt: lab.IntroPrompt})
	if err != nil {
		return nil, err
	}
	return s.reply(ctx, lab.ID, text, speak), nil
}

func (s *Service) reply(ctx context.Context, labID, text string, speak bool) *Reply {
	r := &Reply{LabID: labID, Answer: text}
	if !speak || s.synthesizer == nil {
		return r
	}
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		slog.WarnContext(ctx, "speech synthesis failed", "lab", labID, "error", err)
		return r
	}
	r.Audio = base64.StdEncoding.EncodeToString(audio)
	return r
}
