// Package molecule validates SMILES strings and pulls them out of model replies.
package molecule

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrInvalidSMILES = errors.New("invalid SMILES")
	ErrNoMolecule    = errors.New("no SMILES tag in text")
)

// Tag prefixes the trailer line carrying a structure, e.g. "SMILES: c1ccccc1".
const Tag = "SMILES:"

// Mentions reports whether text talks about a structure and may carry a tag.
func Mentions(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "structure") || strings.Contains(lower, "smiles") || strings.Contains(text, "ව්‍යුහය")
}

// ExtractTagged returns the last validated "SMILES: <token>" line in text.
func ExtractTagged(text string) (string, error) {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.Trim(strings.TrimSpace(lines[i]), "*_`> ")
		if len(line) < len(Tag) || !strings.EqualFold(line[:len(Tag)], Tag) {
			continue
		}
		token := strings.Trim(line[len(Tag):], "*_` \t")
		if fields := strings.Fields(token); len(fields) > 0 {
			token = fields[0]
		}
		if err := Validate(token); err != nil {
			return "", err
		}
		return token, nil
	}
	return "", ErrNoMolecule
}

// StripTag removes tag lines so the answer reads naturally.
func StripTag(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		trimmed := strings.Trim(strings.TrimSpace(l), "*_`> ")
		if len(trimmed) >= len(Tag) && strings.EqualFold(trimmed[:len(Tag)], Tag) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// DepictionURL points at a service that renders smiles as an image.
func DepictionURL(base, smiles string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(smiles) + "/image"
}

var bracketAtom = regexp.MustCompile(`^\d*([A-Z][a-z]?|se|as|[bcnops]|\*)(@@?|@(TH|AL|SP|TB|OH)\d{1,2})?(H\d?)?([+-]+|[+-]\d{1,2})?(:\d+)?$`)

var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
	"b": true, "c": true, "n": true, "o": true, "p": true, "s": true,
	"*": true,
}

// Validate checks SMILES syntax: atoms, bonds, balanced branches and paired
// ring closures. It does not check valence or aromaticity.
func Validate(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSMILES)
	}

	var (
		depth       int
		afterAtom   bool // an atom (or closed branch) precedes the cursor
		pendingBond bool
		branchOpen  []bool // whether each open branch has an atom yet
		rings       = map[int]bool{}
	)

	fail := func(pos int, why string) error {
		return fmt.Errorf("%w: %s at %d in %q", ErrInvalidSMILES, why, pos, s)
	}
	atom := func() {
		afterAtom = true
		pendingBond = false
		if depth > 0 {
			branchOpen[depth-1] = true
		}
	}
	ring := func(pos, n int) error {
		if !afterAtom {
			return fail(pos, "ring closure without atom")
		}
		rings[n] = !rings[n]
		pendingBond = false
		return nil
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return fail(i, "unclosed bracket atom")
			}
			if !bracketAtom.MatchString(s[i+1 : i+end]) {
				return fail(i, "bad bracket atom")
			}
			atom()
			i += end + 1
		case i+1 < len(s) && organicSubset[s[i:i+2]]:
			atom()
			i += 2
		case organicSubset[string(c)]:
			atom()
			i++
		case strings.IndexByte("-=#$:/\\", c) >= 0:
			if !afterAtom || pendingBond {
				return fail(i, "misplaced bond")
			}
			pendingBond = true
			i++
		case c == '.':
			if !afterAtom || pendingBond {
				return fail(i, "misplaced dot")
			}
			afterAtom = false
			i++
		case c >= '0' && c <= '9':
			if err := ring(i, int(c-'0')); err != nil {
				return err
			}
			i++
		case c == '%':
			if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
				return fail(i, "bad ring number")
			}
			if err := ring(i, int(s[i+1]-'0')*10+int(s[i+2]-'0')); err != nil {
				return err
			}
			i += 3
		case c == '(':
			if !afterAtom || pendingBond {
				return fail(i, "misplaced branch")
			}
			depth++
			branchOpen = append(branchOpen, false)
			i++
		case c == ')':
			if depth == 0 {
				return fail(i, "unbalanced branch")
			}
			if pendingBond || !branchOpen[depth-1] {
				return fail(i, "empty branch")
			}
			depth--
			branchOpen = branchOpen[:depth]
			afterAtom = true
			i++
		default:
			return fail(i, fmt.Sprintf("unexpected %q", c))
		}
	}

	if depth != 0 {
		return fmt.Errorf("%w: unclosed branch in %q", ErrInvalidSMILES, s)
	}
	if pendingBond {
		return fmt.Errorf("%w: dangling bond in %q", ErrInvalidSMILES, s)
	}
	if !afterAtom {
		return fmt.Errorf("%w: no trailing atom in %q", ErrInvalidSMILES, s)
	}
	for n, open := range rings {
		if open {
			return fmt.Errorf("%w: ring %d not closed in %q", ErrInvalidSMILES, n, s)
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
