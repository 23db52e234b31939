package labs

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrLabNotFound = errors.New("lab not found")

type Activity struct {
	Title           string   `yaml:"title" json:"title"`
	URL             string   `yaml:"url" json:"url"`
	GuidedQuestions []string `yaml:"guided_questions,omitempty" json:"guidedQuestions,omitempty"`
	Goal            string   `yaml:"goal,omitempty" json:"goal,omitempty"`
}

type Lab struct {
	ID              string   `yaml:"id" json:"id"`
	Title           string   `yaml:"title" json:"title"`
	Objectives      []string `yaml:"objectives" json:"objectives"`
	IntroPrompt     string   `yaml:"intro_prompt" json:"-"`
	Concept         Activity `yaml:"concept" json:"concept"`
	Practical       Activity `yaml:"practical" json:"practical"`
	AssistantPrompt string   `yaml:"assistant_prompt" json:"-"`
	QuizTopic       string   `yaml:"quiz_topic" json:"quizTopic"`
}

type Simulation struct {
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description" json:"description"`
}

type Catalog struct {
	Labs        []Lab        `yaml:"labs" json:"labs"`
	Simulations []Simulation `yaml:"simulations" json:"simulations"`
}

// LoadCatalog reads the YAML catalog at path, or the bundled one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path) // #nosec G304 -- path comes from config
		if err != nil {
			return nil, fmt.Errorf("read lab catalog: %w", err)
		}
		data = b
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse lab catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Labs))
	for i, l := range c.Labs {
		if l.ID == "" {
			return fmt.Errorf("lab %d: missing id", i)
		}
		if seen[l.ID] {
			return fmt.Errorf("lab %q: duplicate id", l.ID)
		}
		if l.AssistantPrompt == "" {
			return fmt.Errorf("lab %q: missing assistant_prompt", l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

func (c *Catalog) Lab(id string) (Lab, error) {
	for _, l := range c.Labs {
		if l.ID == id {
			return l, nil
		}
	}
	return Lab{}, fmt.Errorf("%w: %q", ErrLabNotFound, id)
}
