package assessment

type Status string

const (
	// StatusNotCreated is virtual: it is never persisted and is derived from
	// the absence of a record for an employee.
	StatusNotCreated Status = "not_created_yet"
	StatusCreated    Status = "created"
	StatusFinalized  Status = "finalized_with_manager"
	StatusSubmitted  Status = "submitted_to_program_manager"
	StatusApproved   Status = "approved_by_program_manager"
)

var ObjectiveChoices = []string{
	"Exceeded objective",
	"Achieved objective",
	"Under-achieved objective",
	"Objective is obsolete or was changed",
}

var AbilityChoices = []string{
	"Exceeds expectations",
	"Meets expectations",
	"Mostly in line",
	"Below expectations",
	"N/A",
}

// StatusFacets is everything the UI needs to render one workflow status.
type StatusFacets struct {
	Label   string `json:"label"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

var statusFacets = map[Status]StatusFacets{
	StatusNotCreated: {
		Label:   "not created yet",
		Tooltip: "The team member has not created a self assessment yet.",
		Class:   "status-not-created",
	},
	StatusCreated: {
		Label:   "created",
		Tooltip: "The self assessment is created and waiting for manager finalization.",
		Class:   "status-created",
	},
	StatusFinalized: {
		Label:   "finalized with manager",
		Tooltip: "The manager finalized the assessment and can now submit it to the program manager.",
		Class:   "status-finalized",
	},
	StatusSubmitted: {
		Label:   "submitted to program manager",
		Tooltip: "The finalized assessment was submitted to the program manager and is locked for editing.",
		Class:   "status-submitted",
	},
	StatusApproved: {
		Label:   "approved by program manager",
		Tooltip: "The program manager approved the submitted assessment. Workflow is complete.",
		Class:   "status-approved",
	},
}

func (s Status) Known() bool {
	_, ok := statusFacets[s]
	return ok
}

// Facets returns the display facets for a status. Unknown values fall back to
// the created facets, mirroring how legacy rows without a status are read.
func (s Status) Facets() StatusFacets {
	if facets, ok := statusFacets[s]; ok {
		return facets
	}
	return statusFacets[StatusCreated]
}
