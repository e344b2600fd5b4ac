// Package tokenizer converts between text and the integer token ids a
// scoring model consumes.
package tokenizer

import "fmt"

// Tokenizer defines the minimal interface used by the scoring layer.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
	// VocabSize is the number of distinct token ids, so valid ids lie in
	// [0, VocabSize).
	VocabSize() int
	// EndOfText returns the id of the end-of-text marker, if the vocabulary
	// has one.
	EndOfText() (int, bool)
}

// Kind names a tokenizer implementation selectable from configuration.
type Kind string

const (
	KindGPT2  Kind = "gpt2"
	KindBytes Kind = "bytes"
)

// New returns the tokenizer registered under kind.
func New(kind Kind) (Tokenizer, error) {
	switch kind {
	case KindGPT2, "":
		return NewBPE(EncodingGPT2)
	case KindBytes:
		return NewBytes(), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q (want %s or %s)", kind, KindGPT2, KindBytes)
	}
}
