// File: internal/services/department/resolver.go
package department

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iyunix/go-triage/internal/domain"
)

// Resolver runs proposal sampling and finalization for a list of diseases.
// Each disease succeeds or fails on its own: failed samples shrink the
// candidate set, and a disease fails only when no sample succeeded, when
// finalization failed, or when its deadline expired.
type Resolver struct {
	proposer  Proposer
	finalizer Finalizer
	config    *Config
	logger    Logger
}

func NewResolver(proposer Proposer, finalizer Finalizer, config *Config, logger Logger) *Resolver {
	if config == nil {
		config = DefaultConfig()
	}
	return &Resolver{proposer: proposer, finalizer: finalizer, config: config, logger: logger}
}

// Resolve returns one resolution per input disease, in input order.
func (r *Resolver) Resolve(ctx context.Context, diseases []string) []domain.DepartmentResolution {
	out := make([]domain.DepartmentResolution, len(diseases))

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)
	for i, disease := range diseases {
		g.Go(func() error {
			out[i] = r.ResolveOne(ctx, disease)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ResolveOne samples proposals concurrently and finalizes them under the
// per-disease deadline.
func (r *Resolver) ResolveOne(ctx context.Context, disease string) domain.DepartmentResolution {
	res := domain.DepartmentResolution{Disease: disease}
	if strings.TrimSpace(disease) == "" {
		res.Err = NewValidationError(disease, "disease is empty")
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.DiseaseTimeout)
	defer cancel()
	start := time.Now()

	samples := make([]domain.DepartmentProposal, r.config.Samples)
	errs := make([]error, r.config.Samples)
	var g errgroup.Group
	for i := range samples {
		g.Go(func() error {
			text, err := r.proposer.Propose(ctx, disease)
			samples[i] = domain.DepartmentProposal{Disease: disease, RawText: text}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	for i, s := range samples {
		if errs[i] == nil {
			res.Proposals = append(res.Proposals, s.RawText)
		}
	}
	if len(res.Proposals) == 0 {
		res.Err = timeoutOr(ctx, disease, NewProposalError(disease, "all proposals failed", errors.Join(errs...)))
		r.logger.Error("department resolution failed", "disease", disease, "stage", "propose", "error", res.Err)
		return res
	}
	if failed := r.config.Samples - len(res.Proposals); failed > 0 {
		r.logger.Warn("some proposals failed", "disease", disease, "failed", failed, "kept", len(res.Proposals))
	}

	dept, err := r.finalizer.Finalize(ctx, disease, res.Proposals)
	if err != nil {
		res.Err = timeoutOr(ctx, disease, err)
		r.logger.Error("department resolution failed", "disease", disease, "stage", "finalize", "error", res.Err)
		return res
	}
	res.Department = dept
	r.logger.Info("department resolved", "disease", disease, "department", dept,
		"samples", len(res.Proposals), "duration_ms", elapsedMs(start))
	return res
}

// AllFailed reports whether no resolution produced a department.
func AllFailed(resolutions []domain.DepartmentResolution) bool {
	for _, r := range resolutions {
		if r.OK() {
			return false
		}
	}
	return len(resolutions) > 0
}
