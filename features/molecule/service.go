package molecule

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chemtutor/internal/adapter/gemini"
	mol "chemtutor/internal/molecule"
)

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

const namePrompt = `You are a chemistry expert. Convert this chemical name to SMILES notation.
Follow these rules STRICTLY:
1. Respond with exactly one line of the form "SMILES: <smiles>"
2. No explanations
3. Use standard SMILES syntax
4. For Sinhala names: FIRST translate to English, THEN convert to SMILES

Input: %s`

const describePrompt = `You are a chemistry assistant for blind students.
Describe the molecular structure of the compound with SMILES: %s
in a way that a blind person could visualize it. Include:
- The type of molecule (organic, inorganic, etc.)
- Key functional groups
- Shape and geometry
- Notable atoms and their arrangements
- Any special characteristics

Respond in Sinhala.`

type Result struct {
	Name        string `json:"name"`
	SMILES      string `json:"smiles"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
	Audio       string `json:"audio,omitempty"`
}

type Service struct {
	generator     Generator
	synthesizer   Synthesizer
	depictionBase string
}

func NewService(g Generator, s Synthesizer, depictionBase string) *Service {
	return &Service{generator: g, synthesizer: s, depictionBase: depictionBase}
}

// Resolve asks the model for the SMILES of a compound name in English or Sinhala.
func (s *Service) Resolve(ctx context.Context, name string) (string, error) {
	text, err := s.generator.Generate(ctx, gemini.Request{
		Prompt:      fmt.Sprintf(namePrompt, name),
		Temperature: gemini.Temp(0),
	})
	if err != nil {
		return "", err
	}

	smiles, err := mol.ExtractTagged(text)
	if errors.Is(err, mol.ErrNoMolecule) {
		// Some replies drop the tag and return the bare token.
		if fields := strings.Fields(text); len(fields) == 1 {
			smiles, err = fields[0], mol.Validate(fields[0])
		}
	}
	if errors.Is(err, mol.ErrNoMolecule) {
		return "", fmt.Errorf("%w: no structure for %q", mol.ErrInvalidSMILES, name)
	}
	if err != nil {
		return "", err
	}
	return smiles, nil
}

// Describe returns a Sinhala verbal description of the structure.
func (s *Service) Describe(ctx context.Context, smiles string) (string, error) {
	text, err := s.generator.Generate(ctx, gemini.Request{Prompt: fmt.Sprintf(describePrompt, smiles)})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Lookup resolves name, describes it and optionally speaks the description.
func (s *Service) Lookup(ctx context.Context, name string, speak bool) (*Result, error) {
	smiles, err := s.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	desc, err := s.Describe(ctx, smiles)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Name:        name,
		SMILES:      smiles,
		ImageURL:    mol.DepictionURL(s.depictionBase, smiles),
		Description: desc,
	}

	if speak && s.synthesizer != nil {
		audio, err := s.synthesizer.Synthesize(ctx, desc)
		if err != nil {
			slog.WarnContext(ctx, "speech synthesis failed", "error", err)
		} else {
			res.Audio = base64.StdEncoding.EncodeToString(audio)
		}
	}
	return res, nil
}
