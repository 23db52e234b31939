package periodic

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed elements.json
var defaultElements []byte

// CategoryColors is the display color per group block.
var CategoryColors = map[string]string{
	"alkali metal":          "#FF6666",
	"alkaline earth metal":  "#FFDEAD",
	"transition metal":      "#FFB6C1",
	"post-transition metal": "#CCCCCC",
	"metalloid":             "#99CC99",
	"nonmetal":              "#A0FFA0",
	"halogen":               "#FFFF99",
	"noble gas":             "#C0FFFF",
	"lanthanoid":            "#FFBFFF",
	"actinoid":              "#FF99CC",
	"unknown":               "#FFFFFF",
}

// Value holds a field that data sets encode either as a number or a string.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = Value(n.String())
	return nil
}

type Element struct {
	AtomicNumber            int    `json:"atomicNumber"`
	Symbol                  string `json:"symbol"`
	Name                    string `json:"name"`
	AtomicMass              Value  `json:"atomicMass"`
	ElectronicConfiguration string `json:"electronicConfiguration"`
	Electronegativity       Value  `json:"electronegativity"`
	GroupBlock              string `json:"groupBlock"`
	Color                   string `json:"color"`
}

// Describe reads an element aloud in one paragraph.
func (e Element) Describe() string {
	desc := fmt.Sprintf("%s (%s), atomic number %d. It's a %s with atomic mass %s. Electron configuration: %s.",
		e.Name, e.Symbol, e.AtomicNumber, e.GroupBlock, e.AtomicMass, e.ElectronicConfiguration)
	if e.Electronegativity != "" {
		desc += fmt.Sprintf(" Electronegativity: %s.", e.Electronegativity)
	}
	return desc
}

type Table struct {
	elements []Element
	bySymbol map[string]Element
}

// Load reads path, falling back to the bundled table when path is empty or missing.
func Load(path string) (*Table, error) {
	data := defaultElements
	if path != "" {
		b, err := os.ReadFile(path) // #nosec G304 -- path comes from config
		switch {
		case err == nil:
			data = b
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read elements: %w", err)
		}
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var elements []Element
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("parse elements: %w", err)
	}

	t := &Table{bySymbol: make(map[string]Element, len(elements))}
	for _, e := range elements {
		e.GroupBlock = strings.ToLower(strings.TrimSpace(e.GroupBlock))
		if _, ok := CategoryColors[e.GroupBlock]; !ok {
			e.GroupBlock = "unknown"
		}
		e.Color = CategoryColors[e.GroupBlock]
		t.elements = append(t.elements, e)
		t.bySymbol[strings.ToLower(e.Symbol)] = e
	}
	sort.Slice(t.elements, func(i, j int) bool { return t.elements[i].AtomicNumber < t.elements[j].AtomicNumber })
	return t, nil
}

func (t *Table) Len() int { return len(t.elements) }

func (t *Table) Get(symbol string) (Element, bool) {
	e, ok := t.bySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	return e, ok
}

type Filter struct {
	Search     string
	Categories []string
	Min, Max   int
}

// Filter keeps elements matching every set criterion. Zero values match all.
func (t *Table) Filter(f Filter) []Element {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	cats := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cats[c] = true
		}
	}

	out := []Element{}
	for _, e := range t.elements {
		if len(cats) > 0 && !cats[e.GroupBlock] {
			continue
		}
		if f.Min > 0 && e.AtomicNumber < f.Min {
			continue
		}
		if f.Max > 0 && e.AtomicNumber > f.Max {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) && !strings.Contains(strings.ToLower(e.Symbol), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}
