package quiz_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemtutor/internal/quiz"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCount int
		wantErr   bool
	}{
		{
			name:      "Single Item",
			raw:       "Q:: What is H2O? | A:: Water | B:: Salt | C:: Sugar | D:: Sand",
			wantCount: 1,
		},
		{
			name: "Multiple Items With Noise",
			raw: "Here are your questions:\n" +
				"Q:: ජලයේ සූත්‍රය කුමක්ද? | A:: H2O | B:: CO2 | C:: NaCl | D:: O2\n" +
				"Q:: Noble gas? | A:: Neon | B:: Sodium | C:: Iron | D:: Carbon\n",
			wantCount: 2,
		},
		{
			name:      "Skips Malformed Item",
			raw:       "Q:: Broken | A:: only one\nQ:: Valid? | A:: yes | B:: no | C:: maybe | D:: never",
			wantCount: 1,
		},
		{
			name:    "Missing Marker",
			raw:     "Q:: Q1 | A:: a | B:: b | X:: c | D:: d",
			wantErr: true,
		},
		{
			name:    "Empty Answer",
			raw:     "Q:: Q1 | A:: | B:: b | C:: c | D:: d",
			wantErr: true,
		},
		{
			name:    "Free Text",
			raw:     "I cannot generate questions for this text.",
			wantErr: true,
		},
		{
			name:    "Empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := quiz.Parse(tt.raw)
			if tt.wantErr {
				var pe *quiz.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Nil(t, items)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.wantCount)
		})
	}
}

func TestParseItem_Fields(t *testing.T) {
	item, err := quiz.ParseItem("Q:: What is H2O? | A:: Water | B:: Salt | C:: Sugar | D:: Sand")
	require.Nil(t, err)

	assert.Equal(t, "What is H2O?", item.Question)
	assert.Equal(t, "Water", item.Correct)
	assert.Equal(t, [3]string{"Salt", "Sugar", "Sand"}, item.Distractors)
	assert.Equal(t, "Q:: What is H2O? | A:: Water | B:: Salt | C:: Sugar | D:: Sand", item.String())
}

func sampleItems() []quiz.Item {
	return []quiz.Item{
		{Question: "q1", Correct: "c1", Distractors: [3]string{"w1a", "w1b", "w1c"}},
		{Question: "q2", Correct: "c2", Distractors: [3]string{"w2a", "w2b", "w2c"}},
		{Question: "q3", Correct: "c3", Distractors: [3]string{"w3a", "w3b", "w3c"}},
	}
}

func correctPositions(a *quiz.Attempt) []int {
	answers := make([]int, len(a.Questions))
	for i, q := range a.Questions {
		for pos, opt := range q.Options {
			if len(opt) == 2 && opt[0] == 'c' {
				answers[i] = pos
			}
		}
	}
	return answers
}

func TestPresentAndGrade(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	attempt := quiz.Present(sampleItems(), "", r)
	require.Len(t, attempt.Questions, 3)

	for _, q := range attempt.Questions {
		assert.ElementsMatch(t, []string{"c" + q.Text[1:], "w" + q.Text[1:] + "a", "w" + q.Text[1:] + "b", "w" + q.Text[1:] + "c"}, q.Options[:])
	}

	answers := correctPositions(attempt)
	res, err := attempt.Grade(answers)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Score)
	assert.Equal(t, quiz.TierExcellent, quiz.Tier(res))

	answers[0] = (answers[0] + 1) % 4
	res, err = attempt.Grade(answers)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.False(t, res.Feedback[0].IsCorrect)
	assert.Equal(t, quiz.TierGood, quiz.Tier(res))
}

func TestGrade_Errors(t *testing.T) {
	attempt := quiz.Present(sampleItems(), "", rand.New(rand.NewPCG(3, 4)))

	_, err := attempt.Grade([]int{0})
	assert.ErrorIs(t, err, quiz.ErrAnswerCount)

	res, err := attempt.Grade([]int{-1, 9, -1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "", res.Feedback[1].Chosen)
	assert.Equal(t, quiz.TierKeepPracticing, quiz.Tier(res))
}

func TestTier(t *testing.T) {
	tests := []struct {
		score, total int
		want         string
	}{
		{5, 5, quiz.TierExcellent},
		{3, 5, quiz.TierGood},
		{2, 4, quiz.TierGood},
		{1, 5, quiz.TierKeepPracticing},
		{0, 0, quiz.TierGood},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quiz.Tier(quiz.Result{Score: tt.score, Total: tt.total}))
	}
}
