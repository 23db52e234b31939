package text

import (
	"errors"
	"fmt"
)

var ErrInvalidWindow = errors.New("invalid chunk window")

// Splitter cuts text into fixed-size windows of Unicode code points.
// Consecutive windows share exactly Overlap code points.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) (*Splitter, error) {
	if size < 1 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidWindow, size, overlap)
	}
	return &Splitter{Size: size, Overlap: overlap}, nil
}

// Split returns the windows in document order. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.Size - s.Overlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + s.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
