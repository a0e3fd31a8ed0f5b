// File: internal/services/embedding/onnx_encoder.go
package embedding

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards the process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXEncoder runs a sentence-transformer (all-MiniLM-L6-v2 by default)
// locally: tokenize, run the encoder, mean-pool over the attention mask,
// then L2-normalize.
type ONNXEncoder struct {
	session    *ort.DynamicAdvancedSession
	tok        *tokenizer.Tokenizer
	inputNames []string
	embedDim   int64
	maxSeqLen  int
	modelID    string

	// serializes Run calls on the shared session
	mu sync.Mutex
}

func NewONNXEncoder(config *Config) (*ONNXEncoder, error) {
	if config.ModelPath == "" || config.TokenizerPath == "" {
		return nil, NewError(ErrTypeInput, "onnx_init", "model and tokenizer paths are required", nil)
	}

	libPath := config.RuntimeLibPath
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(config.ModelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, NewError(ErrTypeRuntime, "onnx_init", "failed to initialize runtime", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return nil, NewError(ErrTypeRuntime, "onnx_init", "failed to read model info", err)
	}
	inputNames, err := bertInputs(inputs)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 || len(outputs[0].Dimensions) != 3 {
		return nil, NewError(ErrTypeRuntime, "onnx_init", "expected a [batch, seq, dim] output tensor", nil)
	}
	embedDim := outputs[0].Dimensions[2]

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, NewError(ErrTypeRuntime, "onnx_init", "failed to create session options", err)
	}
	defer opts.Destroy()
	if config.IntraOpThreads > 0 {
		opts.SetIntraOpNumThreads(config.IntraOpThreads)
	}
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(config.ModelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, NewError(ErrTypeRuntime, "onnx_init", "failed to create session", err)
	}

	tok, err := pretrained.FromFile(config.TokenizerPath)
	if err != nil {
		session.Destroy()
		return nil, NewError(ErrTypeRuntime, "onnx_init", "failed to load tokenizer", err)
	}

	return &ONNXEncoder{
		session:    session,
		tok:        tok,
		inputNames: inputNames,
		embedDim:   embedDim,
		maxSeqLen:  config.MaxSeqLen,
		modelID:    filepath.Base(filepath.Dir(config.ModelPath)),
	}, nil
}

// bertInputs returns the model's BERT-style input names in feed order.
// token_type_ids is optional; some exports drop it.
func bertInputs(inputs []ort.InputOutputInfo) ([]string, error) {
	present := make(map[string]bool, len(inputs))
	for _, inp := range inputs {
		present[inp.Name] = true
	}
	for _, name := range []string{"input_ids", "attention_mask"} {
		if !present[name] {
			return nil, NewError(ErrTypeRuntime, "onnx_init", fmt.Sprintf("model missing required input %q", name), nil)
		}
	}
	names := []string{"input_ids", "attention_mask"}
	if present["token_type_ids"] {
		names = append(names, "token_type_ids")
	}
	return names, nil
}

func (e *ONNXEncoder) ModelID() string {
	return e.modelID
}

func (e *ONNXEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewError(ErrTypeInput, "encode", "text is empty", nil)
	}
	out, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *ONNXEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, NewError(ErrTypeRuntime, "encode_batch", "context done", err)
	}

	batch, err := e.tokenize(texts)
	if err != nil {
		return nil, err
	}

	hidden, err := e.infer(batch)
	if err != nil {
		return nil, err
	}

	pooled := meanPool(hidden, batch.attentionMask, batch.batchSize, batch.seqLen, e.embedDim)
	results := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		vec := make([]float32, e.embedDim)
		copy(vec, pooled[i*e.embedDim:(i+1)*e.embedDim])
		results[i] = l2Normalize(vec)
	}
	return results, nil
}

type tokenBatch struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// tokenize encodes texts and pads them to the longest sequence in the batch.
// Sequences longer than maxSeqLen keep their leading tokens and the final
// separator token.
func (e *ONNXEncoder) tokenize(texts []string) (*tokenBatch, error) {
	encoded := make([][]int, len(texts))
	types := make([][]int, len(texts))
	seqLen := 0
	for i, text := range texts {
		enc, err := e.tok.EncodeSingle(text, true)
		if err != nil {
			return nil, NewError(ErrTypeInput, "tokenize", "failed to tokenize text", err)
		}
		ids, typeIDs := enc.Ids, enc.TypeIds
		if len(ids) > e.maxSeqLen {
			last := ids[len(ids)-1]
			ids = append(ids[:e.maxSeqLen-1:e.maxSeqLen-1], last)
			if len(typeIDs) > e.maxSeqLen {
				typeIDs = typeIDs[:e.maxSeqLen]
			}
		}
		encoded[i], types[i] = ids, typeIDs
		if len(ids) > seqLen {
			seqLen = len(ids)
		}
	}

	n := len(texts) * seqLen
	b := &tokenBatch{
		inputIDs:      make([]int64, n),
		attentionMask: make([]int64, n),
		tokenTypeIDs:  make([]int64, n),
		batchSize:     int64(len(texts)),
		seqLen:        int64(seqLen),
	}
	for i, ids := range encoded {
		off := i * seqLen
		for j, id := range ids {
			b.inputIDs[off+j] = int64(id)
			b.attentionMask[off+j] = 1
			if j < len(types[i]) {
				b.tokenTypeIDs[off+j] = int64(types[i][j])
			}
		}
	}
	return b, nil
}

func (e *ONNXEncoder) infer(b *tokenBatch) ([]float32, error) {
	shape := ort.NewShape(b.batchSize, b.seqLen)

	feeds := map[string][]int64{
		"input_ids":      b.inputIDs,
		"attention_mask": b.attentionMask,
		"token_type_ids": b.tokenTypeIDs,
	}
	inputs := make([]ort.Value, 0, len(e.inputNames))
	for _, name := range e.inputNames {
		t, err := ort.NewTensor(shape, feeds[name])
		if err != nil {
			return nil, NewError(ErrTypeRuntime, "infer", "failed to create "+name+" tensor", err)
		}
		defer t.Destroy()
		inputs = append(inputs, t)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(b.batchSize, b.seqLen, e.embedDim))
	if err != nil {
		return nil, NewError(ErrTypeRuntime, "infer", "failed to create output tensor", err)
	}
	defer out.Destroy()

	e.mu.Lock()
	err = e.session.Run(inputs, []ort.Value{out})
	e.mu.Unlock()
	if err != nil {
		return nil, NewError(ErrTypeRuntime, "infer", "inference failed", err)
	}

	src := out.GetData()
	hidden := make([]float32, len(src))
	copy(hidden, src)
	return hidden, nil
}

func (e *ONNXEncoder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}
