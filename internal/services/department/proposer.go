// File: internal/services/department/proposer.go
package department

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iyunix/go-triage/internal/observability"
)

// Proposer produces one department suggestion for a disease.
type Proposer interface {
	Propose(ctx context.Context, disease string) (string, error)
}

// LLMProposer asks a chat model which department treats a disease.
type LLMProposer struct {
	completer Completer
	config    *Config
	metrics   *observability.Metrics
	logger    Logger
}

func NewLLMProposer(completer Completer, config *Config, metrics *observability.Metrics, logger Logger) *LLMProposer {
	return &LLMProposer{completer: completer, config: config, metrics: metrics, logger: logger}
}

// Propose never returns an empty department without an error.
func (p *LLMProposer) Propose(ctx context.Context, disease string) (string, error) {
	if strings.TrimSpace(disease) == "" {
		return "", NewValidationError(disease, "disease is empty")
	}

	start := time.Now()
	raw, err := ask(ctx, p.completer, p.config, p.metrics, "propose", proposalPrompt(disease))
	if err != nil {
		p.logger.Warn("department proposal failed", "disease", disease, "duration_ms", elapsedMs(start), "error", err)
		return "", NewProposalError(disease, "model call failed", err)
	}

	answer := cleanAnswer(raw)
	if answer == "" {
		return "", NewProposalError(disease, "model returned an empty answer", errors.New("empty answer"))
	}
	p.logger.Debug("department proposed", "disease", disease, "department", answer, "duration_ms", elapsedMs(start))
	return answer, nil
}

// StaticProposer answers from the built-in disease table without a model.
type StaticProposer struct {
	table *StaticTable
}

func NewStaticProposer(table *StaticTable) *StaticProposer {
	if table == nil {
		table = NewStaticTable()
	}
	return &StaticProposer{table: table}
}

func (p *StaticProposer) Propose(ctx context.Context, disease string) (string, error) {
	if strings.TrimSpace(disease) == "" {
		return "", NewValidationError(disease, "disease is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", NewProposalError(disease, "context done", err)
	}
	return p.table.Department(disease), nil
}
