package chunker

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned when the maximum chunk length is not positive.
var ErrInvalidSize = errors.New("chunk size must be positive")

// Chunk is one contiguous slice of the extracted text.
type Chunk struct {
	Index int
	Text  string
}

// Config controls chunking behavior.
type Config struct {
	MaxLen int // Maximum chunk length in characters (code points).
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxLen: 2000}
}

// Split cuts text into consecutive chunks of at most maxLen characters.
// Every chunk but the last is exactly maxLen long, and concatenating the
// chunks in index order gives back text. Empty text yields no chunks.
func Split(text string, maxLen int) ([]Chunk, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, maxLen)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	chunks := make([]Chunk, 0, (len(runes)+maxLen-1)/maxLen)
	for start := 0; start < len(runes); start += maxLen {
		end := min(start+maxLen, len(runes))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
	}
	return chunks, nil
}

// SplitWith is Split using the length from cfg.
func SplitWith(text string, cfg Config) ([]Chunk, error) {
	return Split(text, cfg.MaxLen)
}

// Texts returns the chunk texts in index order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
