package assessment

import (
	"strings"

	"dialogue/internal/domain/identity"
)

// sameName compares display names the way the directory reports them:
// case-insensitive, surrounding whitespace ignored, empty never matches.
func sameName(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && b != "" && strings.EqualFold(a, b)
}

func IsOwner(rec Record, ident identity.Snapshot) bool {
	return sameName(ident.Name, rec.EmployeeName)
}

func IsManager(rec Record, ident identity.Snapshot) bool {
	return sameName(ident.Name, rec.ManagerName)
}

func IsProgramManager(rec Record, ident identity.Snapshot) bool {
	return sameName(ident.Name, rec.ProgramManagerName)
}
