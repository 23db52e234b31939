package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"chemtutor/internal/adapter/gemini"
	"chemtutor/internal/index"
	"chemtutor/internal/molecule"
	"chemtutor/internal/session"
)

type Retriever interface {
	Search(ctx context.Context, query string) ([]index.Match, error)
}

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Describer turns a SMILES string into a spoken-style description.
type Describer interface {
	Describe(ctx context.Context, smiles string) (string, error)
}

type Query struct {
	Mode     session.Mode
	History  []session.Turn
	Question string
}

type Molecule struct {
	SMILES      string `json:"smiles"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

type Answer struct {
	Text     string        `json:"text"`
	HTML     string        `json:"html,omitempty"`
	Audio    string        `json:"audio,omitempty"`
	Sources  []index.Match `json:"sources"`
	Molecule *Molecule     `json:"molecule,omitempty"`
}

type Composer struct {
	retriever     Retriever
	generator     Generator
	synthesizer   Synthesizer
	describer     Describer
	depictionBase string
	md            goldmark.Markdown
}

func NewComposer(r Retriever, g Generator, s Synthesizer, d Describer, depictionBase string) *Composer {
	return &Composer{
		retriever:     r,
		generator:     g,
		synthesizer:   s,
		describer:     d,
		depictionBase: depictionBase,
		md:            goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Answer retrieves context, asks the model once and attaches the output
// channel for q.Mode. The model text is returned as is.
func (c *Composer) Answer(ctx context.Context, q Query) (*Answer, error) {
	matches, err := c.retriever.Search(ctx, q.Question)
	if err != nil {
		// Teacher explanations do not depend on uploaded material.
		if !(q.Mode == session.ModeTeacher && errors.Is(err, index.ErrIndexNotFound)) {
			return nil, err
		}
		matches = nil
	}
	if matches == nil {
		matches = []index.Match{}
	}

	text, err := c.generator.Generate(ctx, gemini.Request{
		System: systemPrompt(q.Mode),
		Prompt: buildPrompt(q.History, matches, q.Question),
	})
	if err != nil {
		return nil, err
	}

	ans := &Answer{Text: text, Sources: matches}
	display := molecule.StripTag(text)

	if molecule.Mentions(text) {
		ans.Molecule = c.molecule(ctx, q.Mode, text)
	}

	if q.Mode == session.ModeAccessibility {
		spoken := display
		if ans.Molecule != nil && ans.Molecule.Description != "" {
			spoken += "\n\n" + ans.Molecule.Description
		}
		ans.Audio = c.speak(ctx, spoken)
	} else {
		ans.HTML = c.render(ctx, display)
	}
	return ans, nil
}

// molecule follows the tagged structure, if any. Failures never reach the caller.
func (c *Composer) molecule(ctx context.Context, mode session.Mode, text string) *Molecule {
	smiles, err := molecule.ExtractTagged(text)
	if err != nil {
		slog.InfoContext(ctx, "no usable molecule in answer", "error", err)
		return nil
	}

	m := &Molecule{SMILES: smiles}
	if mode != session.ModeAccessibility {
		m.ImageURL = molecule.DepictionURL(c.depictionBase, smiles)
		return m
	}

	if c.describer == nil {
		return m
	}
	desc, err := c.describer.Describe(ctx, smiles)
	if err != nil {
		slog.WarnContext(ctx, "molecule description failed", "smiles", smiles, "error", err)
		return m
	}
	m.Description = desc
	return m
}

// speak returns base64 MP3, or "" when synthesis is unavailable.
func (c *Composer) speak(ctx context.Context, text string) string {
	if c.synthesizer == nil {
		return ""
	}
	audio, err := c.synthesizer.Synthesize(ctx, text)
	if err != nil {
		slog.WarnContext(ctx, "speech synthesis failed", "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

func (c *Composer) render(ctx context.Context, text string) string {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(text), &buf); err != nil {
		slog.WarnContext(ctx, "markdown render failed", "error", err)
		return ""
	}
	return buf.String()
}
