// File: internal/domain/diagnosis.go
package domain

// DiseaseScore is a candidate disease with a confidence in [0,100].
type DiseaseScore struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// DepartmentProposal is the raw answer of one sampled model call.
type DepartmentProposal struct {
	Disease string
	RawText string
}

// FinalizedDepartment is the consensus department for one disease.
type FinalizedDepartment struct {
	Disease    string `json:"disease"`
	Department string `json:"department"`
}

// DepartmentResolution is the per-disease outcome of proposal + finalization.
// Err is set when the disease could not be resolved; Department is empty then.
type DepartmentResolution struct {
	Disease    string
	Department string
	Proposals  []string
	Err        error
}

// Finalized reports the resolution as a FinalizedDepartment.
func (r DepartmentResolution) Finalized() FinalizedDepartment {
	return FinalizedDepartment{Disease: r.Disease, Department: r.Department}
}

// OK reports whether a department was produced.
func (r DepartmentResolution) OK() bool {
	return r.Err == nil && r.Department != ""
}

// Diagnosis bundles a symptom query with its detected diseases and departments.
// DefaultDepartment is set when no disease was detected.
type Diagnosis struct {
	Symptoms          string
	Diseases          []DiseaseScore
	Resolutions       []DepartmentResolution
	DefaultDepartment string
}

// Departments lists the distinct resolved departments in disease order,
// or the default department when nothing was resolved.
func (d *Diagnosis) Departments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Resolutions {
		if r.OK() && !seen[r.Department] {
			seen[r.Department] = true
			out = append(out, r.Department)
		}
	}
	if len(out) == 0 && d.DefaultDepartment != "" {
		out = append(out, d.DefaultDepartment)
	}
	return out
}

// CorpusRow is one labeled (symptom text, disease) pair from the dataset.
type CorpusRow struct {
	ID            string
	QueryText     string
	ResponseLabel string
}
