package assessment

// Action is a workflow operation attempted against a record.
type Action string

const (
	ActionCreate            Action = "create"
	ActionEdit              Action = "edit"
	ActionDelete            Action = "delete"
	ActionFinalize          Action = "finalize"
	ActionEditManagerFields Action = "edit_manager_fields"
	ActionSubmit            Action = "submit"
	ActionApprove           Action = "approve"
)

// statusRank orders the lifecycle. Transitions may only move to a higher rank.
var statusRank = map[Status]int{
	StatusNotCreated: 0,
	StatusCreated:    1,
	StatusFinalized:  2,
	StatusSubmitted:  3,
	StatusApproved:   4,
}

// requiredStatus maps each guarded action to the single status it is legal in.
// ActionCreate is absent: it is guarded by record absence, not record status.
var requiredStatus = map[Action]Status{
	ActionEdit:              StatusCreated,
	ActionDelete:            StatusCreated,
	ActionFinalize:          StatusCreated,
	ActionEditManagerFields: StatusFinalized,
	ActionSubmit:            StatusFinalized,
	ActionApprove:           StatusSubmitted,
}

// CheckTransition returns an InvalidTransitionError when action is not legal
// for the given status.
func CheckTransition(status Status, action Action) error {
	want, ok := requiredStatus[action]
	if !ok || status != want {
		return &InvalidTransitionError{Status: status, Action: action}
	}
	return nil
}

// NextStatus returns the status a record moves to when action succeeds, or the
// current status for actions that do not advance the workflow.
func NextStatus(current Status, action Action) Status {
	switch action {
	case ActionFinalize:
		return StatusFinalized
	case ActionSubmit:
		return StatusSubmitted
	case ActionApprove:
		return StatusApproved
	default:
		return current
	}
}

// Forward reports whether moving from one status to another keeps the
// lifecycle monotonic.
func Forward(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}
