// File: internal/services/department/finalizer.go
package department

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iyunix/go-triage/internal/observability"
)

// Finalizer reduces several proposals for one disease to a single department.
type Finalizer interface {
	Finalize(ctx context.Context, disease string, proposals []string) (string, error)
}

// LLMFinalizer asks the model to pick one department from the proposals.
// A failed call is an error; it never falls back to a raw proposal.
type LLMFinalizer struct {
	completer Completer
	config    *Config
	metrics   *observability.Metrics
	logger    Logger
}

func NewLLMFinalizer(completer Completer, config *Config, metrics *observability.Metrics, logger Logger) *LLMFinalizer {
	return &LLMFinalizer{completer: completer, config: config, metrics: metrics, logger: logger}
}

func (f *LLMFinalizer) Finalize(ctx context.Context, disease string, proposals []string) (string, error) {
	if len(proposals) == 0 {
		return "", NewValidationError(disease, "no proposals to finalize")
	}

	start := time.Now()
	raw, err := ask(ctx, f.completer, f.config, f.metrics, "finalize", finalizePrompt(disease, proposals))
	if err != nil {
		f.logger.Warn("department finalization failed", "disease", disease, "duration_ms", elapsedMs(start), "error", err)
		return "", NewFinalizationError(disease, "model call failed", err)
	}

	answer := cleanAnswer(raw)
	if answer == "" {
		return "", NewFinalizationError(disease, "model returned an empty answer", errors.New("empty answer"))
	}
	if !inCandidates(answer, proposals) {
		f.logger.Warn("finalized department is not among the proposals", "disease", disease, "department", answer, "proposals", strings.Join(proposals, ", "))
	}
	return answer, nil
}

// VoteFinalizer picks the most frequent proposal after normalization. Ties
// go to the candidate seen first; the first original spelling is returned.
type VoteFinalizer struct{}

func NewVoteFinalizer() *VoteFinalizer {
	return &VoteFinalizer{}
}

func (VoteFinalizer) Finalize(ctx context.Context, disease string, proposals []string) (string, error) {
	type tally struct {
		spelling string
		count    int
		first    int
	}
	votes := make(map[string]*tally)
	for i, p := range proposals {
		key := normalize(p)
		if key == "" {
			continue
		}
		if t, ok := votes[key]; ok {
			t.count++
			continue
		}
		votes[key] = &tally{spelling: cleanAnswer(p), count: 1, first: i}
	}
	if len(votes) == 0 {
		return "", NewValidationError(disease, "no proposals to finalize")
	}

	var best *tally
	for _, t := range votes {
		if best == nil || t.count > best.count || (t.count == best.count && t.first < best.first) {
			best = t
		}
	}
	return best.spelling, nil
}

func inCandidates(answer string, proposals []string) bool {
	key := normalize(answer)
	for _, p := range proposals {
		cand := normalize(p)
		if cand == "" {
			continue
		}
		if cand == key || strings.Contains(key, cand) || strings.Contains(cand, key) {
			return true
		}
	}
	return false
}
