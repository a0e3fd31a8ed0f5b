// File: internal/services/department/prompts.go
package department

import (
	"fmt"
	"strings"
)

func proposalPrompt(disease string) string {
	return fmt.Sprintf("If the disease is: %s. Which department should I visit (just write the department name only)?", disease)
}

func finalizePrompt(disease string, proposals []string) string {
	return fmt.Sprintf(
		"The following is a list of medical departments: %s. Please finalize and return the most appropriate department for the given disease %s. Just write the department name only.",
		strings.Join(proposals, ", "), disease)
}

// cleanAnswer trims whitespace, markdown emphasis, quotes and trailing
// periods from a model answer, in any nesting, until nothing changes.
func cleanAnswer(s string) string {
	for {
		next := strings.TrimSpace(s)
		next = strings.Trim(next, "*_`\"'")
		next = strings.TrimSuffix(next, ".")
		if next == s {
			return s
		}
		s = next
	}
}
