package exam

import (
	"sort"
	"strings"
)

// Topics maps each exam topic to the subtopics it covers.
var Topics = map[string][]string{
	"Atomic Structure": {
		"Atomic models",
		"Electron configuration",
		"Quantum numbers",
		"Periodic trends",
		"Isotopes",
	},
	"Chemical Bonding": {
		"Ionic bonding",
		"Covalent bonding",
		"Metallic bonding",
		"Intermolecular forces",
		"Lewis structures",
	},
	"Kinetic Theory": {
		"Gas laws",
		"Kinetic molecular theory",
		"Diffusion and effusion",
		"Real vs ideal gases",
		"Maxwell-Boltzmann distribution",
	},
}

type Topic struct {
	Name      string   `json:"name"`
	Subtopics []string `json:"subtopics"`
}

// TopicList returns Topics sorted by name.
func TopicList() []Topic {
	out := make([]Topic, 0, len(Topics))
	for name, subs := range Topics {
		out = append(out, Topic{Name: name, Subtopics: subs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

const (
	TierExcellent        = "excellent"
	TierGood             = "good"
	TierNeedsImprovement = "needs_improvement"
)

func Tier(percent float64) string {
	switch {
	case percent >= 0.8:
		return TierExcellent
	case percent >= 0.6:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}

// Analysis is the parsed weakness report.
type Analysis struct {
	Assessment string   `json:"assessment"`
	WeakAreas  []string `json:"weakAreas"`
	Tips       []string `json:"revisionTips"`
	Resources  string   `json:"resources"`
}

const (
	labelAssessment = "Assessment:"
	labelWeakAreas  = "Weak Areas:"
	labelTips       = "Revision Tips:"
	labelResources  = "Resources:"
)

// ParseAnalysis reads the labelled sections. Missing sections stay empty.
func ParseAnalysis(text string) Analysis {
	var a Analysis
	a.Assessment = section(text, labelAssessment, labelWeakAreas)

	for _, w := range strings.Split(section(text, labelWeakAreas, labelTips), ",") {
		if w = strings.TrimSpace(w); w != "" {
			a.WeakAreas = append(a.WeakAreas, w)
		}
	}

	for _, line := range strings.Split(section(text, labelTips, labelResources), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && line[0] >= '0' && line[0] <= '9' {
			a.Tips = append(a.Tips, line)
		}
	}

	a.Resources = section(text, labelResources, "")
	return a
}

// section returns the trimmed text between start and end (or the end of text).
func section(text, start, end string) string {
	i := strings.Index(text, start)
	if i < 0 {
		return ""
	}
	rest := text[i+len(start):]
	if end != "" {
		if j := strings.Index(rest, end); j >= 0 {
			rest = rest[:j]
		}
	}
	return strings.Trim(strings.TrimSpace(rest), "*")
}
