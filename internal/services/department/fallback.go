// File: internal/services/department/fallback.go
package department

import (
	"strings"
	"unicode/utf8"
)

// GeneralPractice is the department used when nothing more specific applies.
const GeneralPractice = "General Practice"

type tableEntry struct {
	disease    string
	department string
}

// StaticTable maps common diseases to departments without a model call.
// Lookups try an exact match, then a substring match in either direction,
// then fall back to General Practice.
type StaticTable struct {
	entries []tableEntry
	exact   map[string]string
}

// minPartialLen keeps one- and two-letter inputs from matching everything.
const minPartialLen = 3

var defaultEntries = []tableEntry{
	{"depression", "Psychiatry"},
	{"anxiety", "Psychiatry"},
	{"panic disorder", "Psychiatry"},
	{"bipolar disorder", "Psychiatry"},
	{"schizophrenia", "Psychiatry"},
	{"ptsd", "Psychiatry"},
	{"ocd", "Psychiatry"},

	{"migraine", "Neurology"},
	{"epilepsy", "Neurology"},
	{"parkinson's disease", "Neurology"},
	{"alzheimer's disease", "Neurology"},
	{"stroke", "Neurology"},
	{"multiple sclerosis", "Neurology"},
	{"neuropathy", "Neurology"},

	{"heart attack", "Cardiology"},
	{"hypertension", "Cardiology"},
	{"arrhythmia", "Cardiology"},
	{"heart failure", "Cardiology"},
	{"coronary artery disease", "Cardiology"},
	{"angina", "Cardiology"},

	{"asthma", "Respiratory Medicine"},
	{"copd", "Respiratory Medicine"},
	{"pneumonia", "Respiratory Medicine"},
	{"bronchitis", "Respiratory Medicine"},
	{"tuberculosis", "Respiratory Medicine"},

	{"gastritis", "Gastroenterology"},
	{"ulcer", "Gastroenterology"},
	{"ibs", "Gastroenterology"},
	{"crohn's disease", "Gastroenterology"},
	{"hepatitis", "Gastroenterology"},
	{"cirrhosis", "Gastroenterology"},

	{"diabetes", "Endocrinology"},
	{"thyroid disorder", "Endocrinology"},
	{"hyperthyroidism", "Endocrinology"},
	{"hypothyroidism", "Endocrinology"},

	{"fracture", "Orthopaedics"},
	{"arthritis", "Orthopaedics"},
	{"osteoporosis", "Orthopaedics"},
	{"back pain", "Orthopaedics"},

	{"eczema", "Dermatology"},
	{"psoriasis", "Dermatology"},
	{"acne", "Dermatology"},
	{"skin infection", "Dermatology"},

	{"fever", GeneralPractice},
	{"cold", GeneralPractice},
	{"flu", GeneralPractice},
	{"cough", GeneralPractice},
}

func NewStaticTable() *StaticTable {
	t := &StaticTable{exact: make(map[string]string, len(defaultEntries))}
	for _, e := range defaultEntries {
		key := normalize(e.disease)
		t.entries = append(t.entries, tableEntry{disease: key, department: e.department})
		t.exact[key] = e.department
	}
	return t
}

// Lookup returns the department for disease and whether the table knew it.
func (t *StaticTable) Lookup(disease string) (string, bool) {
	key := normalize(disease)
	if key == "" {
		return GeneralPractice, false
	}
	if dept, ok := t.exact[key]; ok {
		return dept, true
	}
	if utf8.RuneCountInString(key) >= minPartialLen {
		for _, e := range t.entries {
			if strings.Contains(key, e.disease) || strings.Contains(e.disease, key) {
				return e.department, true
			}
		}
	}
	return GeneralPractice, false
}

// Department is Lookup without the found flag.
func (t *StaticTable) Department(disease string) string {
	dept, _ := t.Lookup(disease)
	return dept
}

// Departments lists the distinct departments in table order.
func (t *StaticTable) Departments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.entries {
		if !seen[e.department] {
			seen[e.department] = true
			out = append(out, e.department)
		}
	}
	return out
}
