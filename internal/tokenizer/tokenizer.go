// Package tokenizer is the cl100k-compatible BPE oracle every compressor
// consults for before/after token counts. It shares a single
// lazily-constructed encoder per process, matching the vocabulary used to
// size outgoing LLM requests.
package tokenizer

import (
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	errS error
)

func encoder() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, errS = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, errS
}

// Count returns the number of cl100k BPE tokens in text. Invalid UTF-8 is
// never rejected and there is no error path: if the encoder cannot be
// constructed, Count falls back to a byte-wise estimate.
func Count(text string) uint64 {
	if text == "" {
		return 0
	}
	e, err := encoder()
	if err != nil || e == nil {
		return bytewiseEstimate(text)
	}
	return uint64(len(e.Encode(text, nil, nil)))
}

// bytewiseEstimate counts runes as a last-resort fallback so malformed
// input still produces a usable, deterministic count.
func bytewiseEstimate(text string) uint64 {
	n := uint64(0)
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		if size <= 0 {
			size = 1
		}
		i += size
		n++
	}
	return n
}
