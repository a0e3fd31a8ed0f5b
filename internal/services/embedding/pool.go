// File: internal/services/embedding/pool.go
package embedding

import "math"

// meanPool averages token embeddings over positions where mask == 1.
// hidden is flat [batchSize*seqLen*dim]; mask is flat [batchSize*seqLen].
func meanPool(hidden []float32, mask []int64, batchSize, seqLen, dim int64) []float32 {
	out := make([]float32, batchSize*dim)

	for b := int64(0); b < batchSize; b++ {
		maskOff := b * seqLen
		hiddenOff := b * seqLen * dim
		outOff := b * dim

		var count float32
		for s := int64(0); s < seqLen; s++ {
			if mask[maskOff+s] != 1 {
				continue
			}
			count++
			tokOff := hiddenOff + s*dim
			for d := int64(0); d < dim; d++ {
				out[outOff+d] += hidden[tokOff+d]
			}
		}
		if count == 0 {
			continue
		}
		for d := int64(0); d < dim; d++ {
			out[outOff+d] /= count
		}
	}
	return out
}

// l2Normalize scales v to unit length in place. Zero vectors are returned as is.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
