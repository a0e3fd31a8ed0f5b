// File: internal/services/embedding/hashing_encoder.go
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "for": true, "from": true, "has": true, "have": true, "i": true, "in": true,
	"is": true, "it": true, "my": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "with": true, "am": true, "me": true, "also": true, "some": true,
}

// HashingEncoder is an offline bag-of-words encoder: each token is hashed
// into one of Dimension buckets with a signed weight, then the vector is
// L2-normalized. Texts sharing vocabulary land close in cosine space.
type HashingEncoder struct {
	dim int
}

func NewHashingEncoder(dim int) *HashingEncoder {
	if dim <= 0 {
		dim = DefaultConfig().Dimension
	}
	return &HashingEncoder{dim: dim}
}

func (e *HashingEncoder) ModelID() string {
	return fmt.Sprintf("hashing-%d", e.dim)
}

func (e *HashingEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewError(ErrTypeInput, "encode", "text is empty", nil)
	}
	return e.vector(text), nil
}

func (e *HashingEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *HashingEncoder) vector(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range e.tokens(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		sign := float32(1)
		if sum&(1<<63) != 0 {
			sign = -1
		}
		vec[sum%uint64(e.dim)] += sign
	}
	return l2Normalize(vec)
}

func (e *HashingEncoder) tokens(text string) []string {
	folded := cases.Fold().String(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

func (e *HashingEncoder) Close() error {
	return nil
}
