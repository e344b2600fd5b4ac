package tokenizer

import "fmt"

// byteEndOfText is the one id past the byte range, reserved for the marker.
const byteEndOfText = 256

// ByteTokenizer maps every byte of the UTF-8 input to its own id. Encoding is
// concatenation-stable: Encode(a+b) == Encode(a) ++ Encode(b).
type ByteTokenizer struct{}

func NewBytes() ByteTokenizer { return ByteTokenizer{} }

func (ByteTokenizer) Encode(text string) ([]int, error) {
	if text == "" {
		return nil, nil
	}
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return ids, nil
}

func (ByteTokenizer) Decode(ids []int) (string, error) {
	buf := make([]byte, 0, len(ids))
	for _, id := range ids {
		switch {
		case id >= 0 && id < byteEndOfText:
			buf = append(buf, byte(id))
		case id == byteEndOfText:
			buf = append(buf, endOfTextMarker...)
		default:
			return "", fmt.Errorf("token id %d out of range [0,%d]", id, byteEndOfText)
		}
	}
	return string(buf), nil
}

func (ByteTokenizer) VocabSize() int { return byteEndOfText + 1 }

func (ByteTokenizer) EndOfText() (int, bool) { return byteEndOfText, true }
