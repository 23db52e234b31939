// Package quiz holds the multiple-choice item contract shared by practice
// quizzes and mock exams: parsing model output, presenting shuffled options
// and grading submitted answers.
package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	ErrNoQuiz      = errors.New("no active quiz")
	ErrAnswerCount = errors.New("answer count does not match question count")
)

// Format is the line contract the model is asked to follow. A is always correct.
const Format = "Q:: [question] | A:: [correct] | B:: [wrong1] | C:: [wrong2] | D:: [wrong3]"

// Item is one generated question with its correct answer and three distractors.
type Item struct {
	Question    string    `json:"question"`
	Correct     string    `json:"correct"`
	Distractors [3]string `json:"distractors"`
}

// ParseError reports model output that did not follow Format.
type ParseError struct {
	Segment string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed quiz output (%s): %q", e.Reason, truncate(e.Segment, 80))
}

var markers = []string{"A::", "B::", "C::", "D::"}

// Parse extracts every well-formed item from raw. Malformed segments are
// skipped; a *ParseError is returned only when nothing usable remains.
func Parse(raw string) ([]Item, error) {
	var items []Item
	var firstErr *ParseError

	for _, seg := range strings.Split(raw, "Q::") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		item, err := ParseItem(seg)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		if firstErr == nil {
			firstErr = &ParseError{Segment: raw, Reason: "no items"}
		}
		return nil, firstErr
	}
	return items, nil
}

// ParseItem parses one "question | A:: .. | B:: .. | C:: .. | D:: .." segment,
// with or without its leading "Q::" marker.
func ParseItem(seg string) (Item, *ParseError) {
	seg = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(seg), "Q::"))
	parts := strings.Split(seg, "|")
	if len(parts) != 5 {
		return Item{}, &ParseError{Segment: seg, Reason: fmt.Sprintf("expected 5 fields, got %d", len(parts))}
	}

	question := strings.TrimSpace(parts[0])
	if question == "" {
		return Item{}, &ParseError{Segment: seg, Reason: "empty question"}
	}

	var answers [4]string
	for i, marker := range markers {
		field := strings.TrimSpace(parts[i+1])
		if !strings.HasPrefix(field, marker) {
			return Item{}, &ParseError{Segment: seg, Reason: "missing " + marker}
		}
		answers[i] = strings.TrimSpace(strings.TrimPrefix(field, marker))
		if answers[i] == "" {
			return Item{}, &ParseError{Segment: seg, Reason: "empty " + marker}
		}
	}

	return Item{
		Question:    question,
		Correct:     answers[0],
		Distractors: [3]string{answers[1], answers[2], answers[3]},
	}, nil
}

// String renders the item back in Format.
func (it Item) String() string {
	return fmt.Sprintf("Q:: %s | A:: %s | B:: %s | C:: %s | D:: %s",
		it.Question, it.Correct, it.Distractors[0], it.Distractors[1], it.Distractors[2])
}

// Question is an item as shown to the student. The correct position stays server-side.
type Question struct {
	Text    string    `json:"question"`
	Options [4]string `json:"options"`
	correct int
}

// Attempt is a presented quiz or exam awaiting answers.
type Attempt struct {
	Topic     string     `json:"topic,omitempty"`
	Questions []Question `json:"questions"`
}

// Present shuffles the item order and each item's options.
func Present(items []Item, topic string, r *rand.Rand) *Attempt {
	shuffled := make([]Item, len(items))
	copy(shuffled, items)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	a := &Attempt{Topic: topic, Questions: make([]Question, 0, len(shuffled))}
	for _, it := range shuffled {
		opts := [4]string{it.Correct, it.Distractors[0], it.Distractors[1], it.Distractors[2]}
		order := r.Perm(4)
		q := Question{Text: it.Question}
		for pos, src := range order {
			q.Options[pos] = opts[src]
			if src == 0 {
				q.correct = pos
			}
		}
		a.Questions = append(a.Questions, q)
	}
	return a
}

// Feedback describes one graded answer.
type Feedback struct {
	Question      string `json:"question"`
	Chosen        string `json:"chosen"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

type Result struct {
	Score    int        `json:"score"`
	Total    int        `json:"total"`
	Feedback []Feedback `json:"feedback"`
}

// Percent is the score as a fraction in [0, 1].
func (r Result) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.Total)
}

// Grade scores answers, given as option positions. Out-of-range positions count as wrong.
func (a *Attempt) Grade(answers []int) (Result, error) {
	if len(answers) != len(a.Questions) {
		return Result{}, fmt.Errorf("%w: got %d, want %d", ErrAnswerCount, len(answers), len(a.Questions))
	}

	res := Result{Total: len(a.Questions), Feedback: make([]Feedback, 0, len(a.Questions))}
	for i, q := range a.Questions {
		fb := Feedback{Question: q.Text, CorrectAnswer: q.Options[q.correct]}
		if ans := answers[i]; ans >= 0 && ans < len(q.Options) {
			fb.Chosen = q.Options[ans]
			fb.IsCorrect = ans == q.correct
		}
		if fb.IsCorrect {
			res.Score++
		}
		res.Feedback = append(res.Feedback, fb)
	}
	return res, nil
}

const (
	TierExcellent      = "excellent"
	TierGood           = "good"
	TierKeepPracticing = "keep_practicing"
)

// Tier rates a practice-quiz result.
func Tier(r Result) string {
	switch {
	case r.Total > 0 && r.Score == r.Total:
		return TierExcellent
	case r.Score*2 >= r.Total:
		return TierGood
	default:
		return TierKeepPracticing
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
