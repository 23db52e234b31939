package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"chemtutor/internal/adapter/gemini"
	mcq "chemtutor/internal/quiz"
)

var ErrUnknownTopic = errors.New("unknown exam topic")

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

const questionPrompt = `You are a chemistry exam creator. Generate %d multiple-choice questions in Sinhala
focusing specifically on the topic: %s (subtopics: %s).

Format each question strictly on its own line as:
%s

Important rules:
1. Questions must be at G.C.E. Advanced Level difficulty
2. Include calculations where appropriate
3. Cover different aspects of %s
4. Use Sinhala throughout
5. Keep questions concise (max 2 sentences)
6. Option A must always be the correct answer`

const analysisPrompt = `You are a chemistry tutor analyzing exam performance on the topic %s.
The student scored %d/%d. They answered these questions incorrectly:
%s
Provide:
1. Overall performance assessment in Sinhala
2. List of specific weak areas (subtopics)
3. 3 actionable revision tips in Sinhala
4. Recommended study resources

Format:
Assessment: [text]
Weak Areas: [comma separated list]
Revision Tips:
1. [tip1]
2. [tip2]
3. [tip3]
Resources: [resource links]`

type Service struct {
	generator   Generator
	temperature float32

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(g Generator, temperature float32, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Service{generator: g, temperature: temperature, rng: rng}
}

// Generate writes an exam on topic without any uploaded context.
func (s *Service) Generate(ctx context.Context, topic string, n int) (*mcq.Attempt, error) {
	subs, ok := Topics[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	text, err := s.generator.Generate(ctx, gemini.Request{
		Prompt:      fmt.Sprintf(questionPrompt, n, topic, strings.Join(subs, ", "), mcq.Format, topic),
		Temperature: gemini.Temp(s.temperature),
	})
	if err != nil {
		return nil, err
	}

	items, err := mcq.Parse(text)
	if err != nil {
		return nil, err
	}
	if len(items) > n {
		items = items[:n]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return mcq.Present(items, topic, s.rng), nil
}

type Report struct {
	mcq.Result
	Percent  float64   `json:"percent"`
	Tier     string    `json:"tier"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Evaluate grades the attempt and, when anything was missed, asks for a
// weakness analysis.
func (s *Service) Evaluate(ctx context.Context, attempt *mcq.Attempt, answers []int) (*Report, error) {
	res, err := attempt.Grade(answers)
	if err != nil {
		return nil, err
	}

	rep := &Report{Result: res, Percent: res.Percent(), Tier: Tier(res.Percent())}
	if res.Score == res.Total {
		return rep, nil
	}

	var missed strings.Builder
	for i, fb := range res.Feedback {
		if !fb.IsCorrect {
			fmt.Fprintf(&missed, "%d. %s (correct: %s)\n", i+1, fb.Question, fb.CorrectAnswer)
		}
	}

	text, err := s.generator.Generate(ctx, gemini.Request{
		Prompt: fmt.Sprintf(analysisPrompt, attempt.Topic, res.Score, res.Total, missed.String()),
	})
	if err != nil {
		// The score stands on its own; the analysis is best effort.
		slog.WarnContext(ctx, "exam analysis failed", "topic", attempt.Topic, "error", err)
		return rep, nil
	}
	analysis := ParseAnalysis(text)
	rep.Analysis = &analysis
	return rep, nil
}
