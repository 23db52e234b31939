package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicList(t *testing.T) {
	topics := TopicList()

	assert.Len(t, topics, 3)
	assert.Equal(t, "Atomic Structure", topics[0].Name)
	assert.Equal(t, "Kinetic Theory", topics[2].Name)
	for _, tp := range topics {
		assert.Len(t, tp.Subtopics, 5)
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{1, TierExcellent},
		{0.8, TierExcellent},
		{0.79, TierGood},
		{0.6, TierGood},
		{0.4, TierNeedsImprovement},
		{0, TierNeedsImprovement},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tier(tt.percent), "percent %v", tt.percent)
	}
}

func TestParseAnalysis(t *testing.T) {
	text := `Assessment: ඔබ හොඳින් කළා, නමුත් තවත් පුහුණුව අවශ්‍යයි.
Weak Areas: Quantum numbers, Isotopes
Revision Tips:
1. ක්වොන්ටම් අංක නැවත කියවන්න.
2. සමස්ථානික ගැටලු විසඳන්න.
3. පසුගිය ප්‍රශ්න පත්‍ර කරන්න.
Resources: https://www.khanacademy.org/science/chemistry`

	a := ParseAnalysis(text)

	assert.Equal(t, "ඔබ හොඳින් කළා, නමුත් තවත් පුහුණුව අවශ්‍යයි.", a.Assessment)
	assert.Equal(t, []string{"Quantum numbers", "Isotopes"}, a.WeakAreas)
	assert.Len(t, a.Tips, 3)
	assert.Equal(t, "1. ක්වොන්ටම් අංක නැවත කියවන්න.", a.Tips[0])
	assert.Equal(t, "https://www.khanacademy.org/science/chemistry", a.Resources)
}

func TestParseAnalysis_MissingSections(t *testing.T) {
	a := ParseAnalysis("Assessment: fine")

	assert.Equal(t, "fine", a.Assessment)
	assert.Empty(t, a.WeakAreas)
	assert.Empty(t, a.Tips)
	assert.Empty(t, a.Resources)
}
