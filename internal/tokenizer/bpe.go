package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// EncodingGPT2 is the byte-level BPE used by GPT-2 (tiktoken's r50k_base).
const EncodingGPT2 = "r50k_base"

const endOfTextMarker = "<|endoftext|>"

type bpeEncoding struct {
	vocab     int
	endOfText int
}

// Vocabulary sizes are not exposed by tiktoken, so the known encodings are
// listed here.
var bpeEncodings = map[string]bpeEncoding{
	"r50k_base": {vocab: 50257, endOfText: 50256},
	"p50k_base": {vocab: 50281, endOfText: 50256},
}

func init() {
	// Ranks are embedded; never touch the network.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// BPETokenizer wraps a tiktoken encoding. Encoding is concatenation-stable
// only when the split falls on a token boundary.
type BPETokenizer struct {
	tk  *tiktoken.Tiktoken
	enc bpeEncoding
}

// NewBPE returns a tokenizer for the named tiktoken encoding.
func NewBPE(encoding string) (*BPETokenizer, error) {
	enc, ok := bpeEncodings[encoding]
	if !ok {
		return nil, fmt.Errorf("unsupported bpe encoding %q", encoding)
	}
	tk, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding %q: %w", encoding, err)
	}
	return &BPETokenizer{tk: tk, enc: enc}, nil
}

// Encode tokenizes text. Special markers such as <|endoftext|> map to their
// reserved ids rather than being rejected.
func (t *BPETokenizer) Encode(text string) ([]int, error) {
	if text == "" {
		return nil, nil
	}
	return t.tk.Encode(text, []string{"all"}, nil), nil
}

func (t *BPETokenizer) Decode(ids []int) (string, error) {
	for _, id := range ids {
		if id < 0 || id >= t.enc.vocab {
			return "", fmt.Errorf("token id %d out of range [0,%d)", id, t.enc.vocab)
		}
	}
	if len(ids) == 1 && ids[0] == t.enc.endOfText {
		return endOfTextMarker, nil
	}
	return t.tk.Decode(ids), nil
}

func (t *BPETokenizer) VocabSize() int { return t.enc.vocab }

func (t *BPETokenizer) EndOfText() (int, bool) { return t.enc.endOfText, true }
