package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-triage/internal/domain"
)

type mockDetector struct{ mock.Mock }

func (m *mockDetector) Detect(ctx context.Context, query string, topK int) ([]domain.DiseaseScore, error) {
	args := m.Called(ctx, query, topK)
	scores, _ := args.Get(0).([]domain.DiseaseScore)
	return scores, args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, diseases []string) []domain.DepartmentResolution {
	args := m.Called(ctx, diseases)
	res, _ := args.Get(0).([]domain.DepartmentResolution)
	return res
}

type fixedCounter struct {
	n   int
	err error
}

func (f fixedCounter) Count(context.Context) (int, error) { return f.n, f.err }

type fixedHealth struct{ err error }

func (f fixedHealth) HealthCheck(context.Context) error { return f.err }

func newTestTriage(det *mockDetector, res *mockResolver) *TriageService {
	return NewTriageService(det, res, fixedCounter{n: 3}, nil, Backends{Encoder: "hashing-8", Index: "sqlite", LLM: "static"},
		TriageConfig{DefaultTopK: 5, RequestTimeout: time.Second}, &NoOpLogger{})
}

func TestTriageService_DetectUsesDefaultTopK(t *testing.T) {
	det := new(mockDetector)
	det.On("Detect", mock.Anything, "headache", 5).Return([]domain.DiseaseScore{{Disease: "Migraine", Confidence: 80}}, nil)

	got, err := newTestTriage(det, new(mockResolver)).DetectDiseases(context.Background(), "headache", 0)
	require.NoError(t, err)
	assert.Equal(t, "Migraine", got[0].Disease)
	det.AssertExpectations(t)
}

func TestTriageService_ResolveDepartmentsValidates(t *testing.T) {
	svc := newTestTriage(new(mockDetector), new(mockResolver))
	_, err := svc.ResolveDepartments(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, ErrNoDiseases)
}

func TestTriageService_ResolveDepartmentsKeepsInputSlots(t *testing.T) {
	res := new(mockResolver)
	res.On("Resolve", mock.Anything, []string{"Migraine", "", "Flu"}).Return([]domain.DepartmentResolution{
		{Disease: "Migraine", Department: "Neurology"},
		{Disease: "", Err: errors.New("disease is empty")},
		{Disease: "Flu", Err: errors.New("timeout")},
	})

	got, err := newTestTriage(new(mockDetector), res).ResolveDepartments(context.Background(), []string{" Migraine ", "", "Flu"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].OK())
	assert.Equal(t, "", got[1].Disease)
	assert.False(t, got[1].OK())
	assert.Equal(t, "Flu", got[2].Disease)
	res.AssertExpectations(t)
}

func TestTriageService_DiagnoseChainsStages(t *testing.T) {
	det := new(mockDetector)
	det.On("Detect", mock.Anything, "headache", 5).Return([]domain.DiseaseScore{
		{Disease: "Migraine", Confidence: 80},
		{Disease: "Tension headache", Confidence: 60},
	}, nil)
	res := new(mockResolver)
	res.On("Resolve", mock.Anything, []string{"Migraine", "Tension headache"}).Return([]domain.DepartmentResolution{
		{Disease: "Migraine", Department: "Neurology"},
		{Disease: "Tension headache", Department: "Neurology"},
	})

	got, err := newTestTriage(det, res).Diagnose(context.Background(), "headache")
	require.NoError(t, err)
	assert.Equal(t, "headache", got.Symptoms)
	assert.Len(t, got.Diseases, 2)
	assert.Equal(t, []string{"Neurology"}, got.Departments())
}

func TestTriageService_DiagnoseNoDisease(t *testing.T) {
	det := new(mockDetector)
	det.On("Detect", mock.Anything, "???", 5).Return(nil, nil)
	res := new(mockResolver)

	got, err := newTestTriage(det, res).Diagnose(context.Background(), "???")
	require.NoError(t, err)
	assert.Empty(t, got.Diseases)
	assert.Equal(t, []string{"General Practice"}, got.Departments())
	res.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestTriageService_DiagnosePropagatesDetectionError(t *testing.T) {
	det := new(mockDetector)
	det.On("Detect", mock.Anything, "fever", 5).Return(nil, errors.New("index down"))

	_, err := newTestTriage(det, new(mockResolver)).Diagnose(context.Background(), "fever")
	assert.ErrorContains(t, err, "index down")
}

func TestTriageService_Status(t *testing.T) {
	svc := NewTriageService(new(mockDetector), new(mockResolver), fixedCounter{n: 1000}, fixedHealth{},
		Backends{Encoder: "onnx", Index: "sqlite", LLM: "ollama"}, TriageConfig{}, &NoOpLogger{})
	status := svc.Status(context.Background())
	assert.Equal(t, 1000, status.CorpusSize)
	assert.True(t, status.LLMHealthy)
	assert.True(t, status.Healthy())

	svc = NewTriageService(new(mockDetector), new(mockResolver), fixedCounter{err: errors.New("locked")}, fixedHealth{err: errors.New("401")},
		Backends{}, TriageConfig{}, &NoOpLogger{})
	status = svc.Status(context.Background())
	assert.False(t, status.LLMHealthy)
	assert.False(t, status.Healthy())
	assert.Contains(t, status.Message, "locked")
	assert.Contains(t, status.Message, "401")
}
