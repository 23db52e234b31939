package screenshot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chemtutor/features/chat"
	"chemtutor/internal/adapter/gemini"
	"chemtutor/internal/session"
)

var ErrNoQuestion = errors.New("no question found in image")

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

// Answerer is the retrieval-backed answer path used outside teacher mode.
type Answerer interface {
	Answer(ctx context.Context, q chat.Query) (*chat.Answer, error)
}

const extractPrompt = `Extract the chemistry question from this image. Return ONLY the text of the question exactly as it appears.
If there are multiple questions, extract the main one. Preserve any chemical formulas, equations, or special notation.
Include ALL multiple choice options if present.`

const mcqPrompt = `You are a chemistry teacher explaining multiple choice questions to Sri Lankan students in Sinhala.

QUESTION: %s

OPTIONS:
%s
Follow these guidelines STRICTLY:
1. Respond in Sinhala ONLY
2. First, identify this as a multiple choice question
3. Break down the explanation into clear numbered steps:
   පියවර 1: ප්‍රශ්නය අවබෝධ කරගන්න - ප්‍රශ්නයේ අර්ථය සහ අවශ්‍ය කරුණු පැහැදිලි කරන්න
   පියවර 2: එක් එක් විකල්පය විශ්ලේෂණය කරන්න - සෑම විකල්පයක්ම වෙන වෙනම පරීක්ෂා කර නිවැරදි/වැරදි බව පැහැදිලි කරන්න
   පියවර 3: නිවැරදි පිළිතුර තෝරාගැනීම - නිවැරදි පිළිතුර සහ එය නිවැරදි වීමට හේතුව පැහැදිලි කරන්න
   පියවර 4: වැරදි පිළිතුරු ඇයි වැරදි ද යන්න පැහැදිලි කරන්න
4. Use simple language suitable for high school students
5. Include relevant chemical concepts and principles
6. Explain the reasoning behind eliminating wrong options
7. Highlight key chemistry concepts tested in this question
8. Conclude with a summary of the main concept learned

Response format:
පියවර 1: [Explanation]
පියවර 2: [Explanation]
පියවර 3: [Explanation]
පියවර 4: [Explanation]
සාරාංශය: [Summary of the main concept]`

const structuredPrompt = `You are a chemistry teacher explaining structured questions to Sri Lankan students in Sinhala.

QUESTION: %s

Follow these guidelines STRICTLY:
1. Respond in Sinhala ONLY
2. Break down the explanation into clear numbered steps based on the question structure
3. For calculation questions: show step-by-step working
4. For explanation questions: provide detailed reasoning
5. For mechanism questions: describe each step clearly
6. Use simple language suitable for high school students
7. Include relevant examples from the Sri Lankan curriculum
8. Highlight key concepts and formulas
9. Explain the reasoning behind each step
10. Conclude with a summary of the main concept

Response format:
පියවර 1: [Explanation/Calculation]
පියවර 2: [Explanation/Calculation]
...
සාරාංශය: [Summary]`

const generalPrompt = `You are a chemistry teacher specializing in explaining concepts to Sri Lankan students in Sinhala.
Provide a detailed, step-by-step explanation for the following chemistry question:
"%s"

Follow these guidelines STRICTLY:
1. Respond in Sinhala ONLY
2. Break down the explanation into clear numbered steps
3. Use simple language suitable for high school students
4. Include relevant examples from the Sri Lankan curriculum
5. Highlight key concepts and formulas
6. Explain the reasoning behind each step
7. Conclude with a summary of the main concept

Response format:
පියවර 1: [Explanation]
පියවර 2: [Explanation]
...
සාරාංශය: [Summary]`

type Solution struct {
	Question string       `json:"question"`
	Stem     string       `json:"stem"`
	Type     QuestionType `json:"type"`
	Options  []Option     `json:"options"`
	Answer   string       `json:"answer"`
	HTML     string       `json:"html,omitempty"`
	Audio    string       `json:"audio,omitempty"`
}

type Service struct {
	generator Generator
	answerer  Answerer
}

func NewService(g Generator, a Answerer) *Service {
	return &Service{generator: g, answerer: a}
}

// Extract reads the question text out of an image.
func (s *Service) Extract(ctx context.Context, img gemini.Image) (string, error) {
	text, err := s.generator.Generate(ctx, gemini.Request{Prompt: extractPrompt, Image: &img})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoQuestion
	}
	return text, nil
}

// Solve extracts, classifies and answers the question in img.
func (s *Service) Solve(ctx context.Context, img gemini.Image, teacher bool, q chat.Query) (*Solution, error) {
	text, err := s.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	sol := &Solution{Question: text, Stem: text, Type: Classify(text), Options: []Option{}}
	if sol.Type == TypeMCQ {
		sol.Stem = Stem(text)
		if opts := ExtractOptions(text); opts != nil {
			sol.Options = opts
		}
	}

	if teacher {
		sol.Answer, err = s.generator.Generate(ctx, gemini.Request{Prompt: teacherPrompt(sol)})
		if err != nil {
			return nil, err
		}
		sol.Answer = strings.TrimSpace(sol.Answer)
		return sol, nil
	}

	q.Question = text
	if q.Mode == session.ModeTeacher {
		q.Mode = session.ModeNormal
	}
	ans, err := s.answerer.Answer(ctx, q)
	if err != nil {
		return nil, err
	}
	sol.Answer, sol.HTML, sol.Audio = ans.Text, ans.HTML, ans.Audio
	return sol, nil
}

func teacherPrompt(sol *Solution) string {
	switch sol.Type {
	case TypeMCQ:
		var opts strings.Builder
		for _, o := range sol.Options {
			fmt.Fprintf(&opts, "%s. %s\n", o.Key, o.Text)
		}
		return fmt.Sprintf(mcqPrompt, sol.Question, opts.String())
	case TypeStructured:
		return fmt.Sprintf(structuredPrompt, sol.Question)
	default:
		return fmt.Sprintf(generalPrompt, sol.Question)
	}
}
