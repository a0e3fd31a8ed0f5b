// File: internal/services/department/normalize.go
package department

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var departmentSuffixes = []string{" department", " dept"}

// normalize folds a department or disease label for comparison: NFKC,
// case-folded, whitespace collapsed, trailing "department"/"dept" removed.
func normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, ".")
	for _, suffix := range departmentSuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return strings.TrimSpace(s)
}
