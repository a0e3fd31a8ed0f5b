// File: internal/services/triage_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iyunix/go-triage/internal/domain"
	"github.com/iyunix/go-triage/internal/services/department"
)

// ErrNoDiseases is returned when a department request names no disease.
var ErrNoDiseases = errors.New("at least one disease is required")

// DiseaseDetector ranks candidate diseases for a symptom description.
type DiseaseDetector interface {
	Detect(ctx context.Context, queryText string, topK int) ([]domain.DiseaseScore, error)
}

// DepartmentResolver maps diseases to departments, one outcome per disease.
type DepartmentResolver interface {
	Resolve(ctx context.Context, diseases []string) []domain.DepartmentResolution
}

// HealthChecker is implemented by remote model providers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CorpusCounter reports how many records the index holds.
type CorpusCounter interface {
	Count(ctx context.Context) (int, error)
}

// Backends names the configured adapters for status output.
type Backends struct {
	Encoder string `json:"encoder"`
	Index   string `json:"index"`
	LLM     string `json:"llm"`
	Model   string `json:"model,omitempty"`
}

// TriageStatus is the service health snapshot.
type TriageStatus struct {
	CorpusSize int      `json:"corpus_size"`
	Backends   Backends `json:"backends"`
	LLMHealthy bool     `json:"llm_healthy"`
	Message    string   `json:"message,omitempty"`
}

type TriageConfig struct {
	DefaultTopK    int
	RequestTimeout time.Duration
}

// TriageService chains disease detection and department resolution.
type TriageService struct {
	detector DiseaseDetector
	resolver DepartmentResolver
	corpus   CorpusCounter
	health   HealthChecker
	backends Backends
	config   TriageConfig
	logger   Logger
}

func NewTriageService(detector DiseaseDetector, resolver DepartmentResolver, corpus CorpusCounter, health HealthChecker, backends Backends, config TriageConfig, logger Logger) *TriageService {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 120 * time.Second
	}
	return &TriageService{
		detector: detector,
		resolver: resolver,
		corpus:   corpus,
		health:   health,
		backends: backends,
		config:   config,
		logger:   logger,
	}
}

// DetectDiseases runs the detector under the request timeout.
func (s *TriageService) DetectDiseases(ctx context.Context, query string, topK int) ([]domain.DiseaseScore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	if topK <= 0 {
		topK = s.config.DefaultTopK
	}
	return s.detector.Detect(ctx, query, topK)
}

// ResolveDepartments resolves every disease; per-disease failures are carried
// in the returned resolutions rather than as an error. The result has one
// entry per input, in input order; a blank entry resolves to a validation
// error in its own slot.
func (s *TriageService) ResolveDepartments(ctx context.Context, diseases []string) ([]domain.DepartmentResolution, error) {
	cleaned := make([]string, len(diseases))
	named := 0
	for i, d := range diseases {
		cleaned[i] = strings.TrimSpace(d)
		if cleaned[i] != "" {
			named++
		}
	}
	if named == 0 {
		return nil, ErrNoDiseases
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	resolutions := s.resolver.Resolve(ctx, cleaned)
	failed := 0
	for _, r := range resolutions {
		if !r.OK() {
			failed++
		}
	}
	s.logger.Info("departments resolved", "diseases", len(cleaned), "failed", failed, "duration", time.Since(start))
	return resolutions, nil
}

// Diagnose detects diseases for symptoms and resolves their departments.
// With no detected disease the diagnosis carries General Practice as its
// default department.
func (s *TriageService) Diagnose(ctx context.Context, symptoms string) (*domain.Diagnosis, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	diseases, err := s.detector.Detect(ctx, symptoms, s.config.DefaultTopK)
	if err != nil {
		return nil, err
	}

	diagnosis := &domain.Diagnosis{Symptoms: symptoms, Diseases: diseases}
	if len(diseases) == 0 {
		diagnosis.DefaultDepartment = department.GeneralPractice
		s.logger.Info("no disease detected, using default department", "department", diagnosis.DefaultDepartment)
		return diagnosis, nil
	}

	names := make([]string, len(diseases))
	for i, d := range diseases {
		names[i] = d.Disease
	}
	diagnosis.Resolutions = s.resolver.Resolve(ctx, names)
	return diagnosis, nil
}

// Status reports corpus size, backend names and model reachability.
func (s *TriageService) Status(ctx context.Context) TriageStatus {
	status := TriageStatus{Backends: s.backends, LLMHealthy: true}

	n, err := s.corpus.Count(ctx)
	if err != nil {
		status.Message = fmt.Sprintf("index unavailable: %v", err)
	}
	status.CorpusSize = n

	if s.health != nil {
		if err := s.health.HealthCheck(ctx); err != nil {
			status.LLMHealthy = false
			if status.Message != "" {
				status.Message += "; "
			}
			status.Message += fmt.Sprintf("model unavailable: %v", err)
		}
	}
	return status
}

// Healthy reports whether the status has no failures.
func (s TriageStatus) Healthy() bool {
	return s.Message == ""
}
