// File: internal/handlers/triage_handler.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/iyunix/go-triage/internal/domain"
	"github.com/iyunix/go-triage/internal/services"
	"github.com/iyunix/go-triage/internal/services/department"
	"github.com/iyunix/go-triage/internal/services/detection"
)

const maxBodyBytes = 1 << 20

// TriageService is what the HTTP layer needs from the pipeline.
type TriageService interface {
	DetectDiseases(ctx context.Context, query string, topK int) ([]domain.DiseaseScore, error)
	ResolveDepartments(ctx context.Context, diseases []string) ([]domain.DepartmentResolution, error)
	Diagnose(ctx context.Context, symptoms string) (*domain.Diagnosis, error)
	Status(ctx context.Context) services.TriageStatus
}

type TriageHandler struct {
	Service TriageService
	Logger  services.Logger
}

func NewTriageHandler(svc TriageService, logger services.Logger) *TriageHandler {
	return &TriageHandler{Service: svc, Logger: logger}
}

type departmentResult struct {
	Disease    string   `json:"disease"`
	Department string   `json:"department"`
	Proposals  []string `json:"proposals"`
	Error      string   `json:"error,omitempty"`
}

type departmentsResponse struct {
	Departments []string           `json:"departments"`
	Results     []departmentResult `json:"results"`
}

type symptomCheckResponse struct {
	Symptoms               string               `json:"symptoms"`
	PossibleDiseases       []map[string]float64 `json:"possible_diseases"`
	RecommendedDepartments []string             `json:"recommended_departments"`
	Results                []departmentResult   `json:"results"`
}

// Root handles GET /.
func (h *TriageHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the symptom triage API"})
}

// Health handles GET /health.
func (h *TriageHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AIHealth handles GET /ai-health.
func (h *TriageHandler) AIHealth(w http.ResponseWriter, r *http.Request) {
	status := h.Service.Status(r.Context())
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// DetectDisease handles POST /detect_disease?query=...&top_k=n. A JSON body
// {"query": "..."} is accepted when the query parameter is absent.
func (h *TriageHandler) DetectDisease(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" && r.Body != nil {
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		query = body.Query
	}
	if strings.TrimSpace(query) == "" {
		writeError(w, "query is required", http.StatusBadRequest)
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, "top_k must be a positive integer", http.StatusBadRequest)
			return
		}
		topK = n
	}

	diseases, err := h.Service.DetectDiseases(r.Context(), query, topK)
	if err != nil {
		h.fail(w, "disease detection failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"diseases": diseaseMaps(diseases)})
}

// DetectDept handles POST /detect_dept with a JSON body and
// GET /detect_dept?disease=a&disease=b.
func (h *TriageHandler) DetectDept(w http.ResponseWriter, r *http.Request) {
	var diseases []string
	if r.Method == http.MethodGet {
		diseases = r.URL.Query()["disease"]
	} else {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		diseases, err = parseDiseaseList(raw)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	resolutions, err := h.Service.ResolveDepartments(r.Context(), diseases)
	if err != nil {
		h.fail(w, "department resolution failed", err)
		return
	}

	resp := departmentsResponse{
		Departments: make([]string, len(resolutions)),
		Results:     departmentResults(resolutions),
	}
	for i, res := range resolutions {
		resp.Departments[i] = res.Department
	}
	writeJSON(w, resolutionStatus(resolutions), resp)
}

// SymptomCheck handles POST /diagnosis/symptom-check.
func (h *TriageHandler) SymptomCheck(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symptoms string `json:"symptoms"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Symptoms) == "" {
		writeError(w, "symptoms is required", http.StatusBadRequest)
		return
	}

	diagnosis, err := h.Service.Diagnose(r.Context(), body.Symptoms)
	if err != nil {
		h.fail(w, "diagnosis failed", err)
		return
	}

	resp := symptomCheckResponse{
		Symptoms:               diagnosis.Symptoms,
		PossibleDiseases:       diseaseMaps(diagnosis.Diseases),
		RecommendedDepartments: diagnosis.Departments(),
		Results:                departmentResults(diagnosis.Resolutions),
	}
	if resp.RecommendedDepartments == nil {
		resp.RecommendedDepartments = []string{}
	}
	writeJSON(w, resolutionStatus(diagnosis.Resolutions), resp)
}

func (h *TriageHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(msg, "status", status, "error", err)
	} else {
		h.Logger.Warn(msg, "status", status, "error", err)
	}
	writeError(w, fmt.Sprintf("%s: %s", msg, publicMessage(err)), status)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var detErr *detection.Error
	if errors.As(err, &detErr) {
		switch detErr.Type {
		case detection.ErrTypeValidation:
			return http.StatusBadRequest
		case detection.ErrTypeEncoding:
			return http.StatusBadGateway
		case detection.ErrTypeIndex:
			return http.StatusServiceUnavailable
		}
	}
	if errors.Is(err, services.ErrNoDiseases) {
		return http.StatusBadRequest
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func publicMessage(err error) string {
	var detErr *detection.Error
	if errors.As(err, &detErr) {
		return detErr.Message
	}
	if errors.Is(err, services.ErrNoDiseases) {
		return err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	return "internal error"
}

// resolutionStatus is 502 only when every disease failed.
func resolutionStatus(resolutions []domain.DepartmentResolution) int {
	if department.AllFailed(resolutions) {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func diseaseMaps(scores []domain.DiseaseScore) []map[string]float64 {
	out := make([]map[string]float64, len(scores))
	for i, s := range scores {
		out[i] = map[string]float64{s.Disease: s.Confidence}
	}
	return out
}

func departmentResults(resolutions []domain.DepartmentResolution) []departmentResult {
	out := make([]departmentResult, len(resolutions))
	for i, res := range resolutions {
		out[i] = departmentResult{
			Disease:    res.Disease,
			Department: res.Department,
			Proposals:  res.Proposals,
		}
		if out[i].Proposals == nil {
			out[i].Proposals = []string{}
		}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	return out
}

// parseDiseaseList accepts ["a", ...], [{"a": 87.1}, ...] or
// {"diseases": <either list>}.
func parseDiseaseList(raw []byte) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("request body is empty")
	}

	if raw[0] == '{' {
		var wrapper struct {
			Diseases json.RawMessage `json:"diseases"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper.Diseases) == 0 {
			return nil, errors.New(`body must contain a "diseases" list`)
		}
		raw = bytes.TrimSpace(wrapper.Diseases)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, errors.New(`"diseases" must be a list`)
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.New("body must be a list of diseases")
	}

	names := make([]string, 0, len(items))
	for i, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			names = append(names, name)
			continue
		}
		var scored map[string]float64
		if err := json.Unmarshal(item, &scored); err != nil || len(scored) != 1 {
			return nil, fmt.Errorf("item %d must be a disease name or a single {name: confidence} pair", i)
		}
		for k := range scored {
			names = append(names, k)
		}
	}
	return names, nil
}
