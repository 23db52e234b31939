package screenshot

import (
	"regexp"
	"strings"
)

type QuestionType string

const (
	TypeMCQ        QuestionType = "MCQ"
	TypeStructured QuestionType = "STRUCTURED"
	TypeGeneral    QuestionType = "GENERAL"
)

type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Option marker styles, tried in order.
var optionStyles = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\s)([A-D])[.)]\s*`),
	regexp.MustCompile(`(?:^|\s)\(([a-dA-D])\)\s*`),
	regexp.MustCompile(`([①②③④])\s*`),
}

var (
	optionsKeyword = regexp.MustCompile(`(?i)options?:`)
	circled        = regexp.MustCompile(`[①②③④]`)

	structuredPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)explain\s+.*step`),
		regexp.MustCompile(`(?i)calculate\s+.*show\s+.*working`),
		regexp.MustCompile(`(?i)describe\s+.*process`),
		regexp.MustCompile(`(?i)how\s+.*work`),
		regexp.MustCompile(`(?i)what\s+.*steps`),
	}
)

// Classify labels question text as MCQ, STRUCTURED or GENERAL.
func Classify(text string) QuestionType {
	if len(ExtractOptions(text)) >= 2 || optionsKeyword.MatchString(text) || circled.MatchString(text) {
		return TypeMCQ
	}
	for _, p := range structuredPatterns {
		if p.MatchString(text) {
			return TypeStructured
		}
	}
	return TypeGeneral
}

// ExtractOptions returns the options of the first marker style that yields at
// least two of them. Letter keys are upper-cased.
func ExtractOptions(text string) []Option {
	for _, style := range optionStyles {
		if opts := extractWith(style, text); len(opts) >= 2 {
			return opts
		}
	}
	return nil
}

// Stem returns the question text before the first option marker.
func Stem(text string) string {
	for _, style := range optionStyles {
		locs := style.FindAllStringIndex(text, -1)
		if len(locs) >= 2 {
			return strings.TrimSpace(text[:locs[0][0]])
		}
	}
	return strings.TrimSpace(text)
}

func extractWith(style *regexp.Regexp, text string) []Option {
	locs := style.FindAllStringSubmatchIndex(text, -1)
	if len(locs) < 2 {
		return nil
	}

	opts := make([]Option, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := text[loc[1]:end]
		if nl := strings.Index(value, "\n\n"); nl >= 0 {
			value = value[:nl]
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		opts = append(opts, Option{Key: strings.ToUpper(text[loc[2]:loc[3]]), Text: value})
	}
	return opts
}
