package assessment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("assessment not found")
	ErrConflict = errors.New("assessment was modified concurrently")
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		fields = append(fields, issue.Field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// PermissionError reports which role the caller would have needed.
type PermissionError struct {
	Need string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("only the %s may perform this action", e.Need)
}

// InvalidTransitionError reports an action attempted outside its workflow guard.
type InvalidTransitionError struct {
	Status Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an assessment in status %q", e.Action, e.Status)
}

// DuplicateError reports that the employee already has a record this cycle.
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return "a self assessment already exists for this employee"
}
