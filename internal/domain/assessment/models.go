package assessment

import "time"

// EmployeeFields are authored by the record owner and frozen once the record
// leaves the Created status.
type EmployeeFields struct {
	ObjectiveRating           string `json:"objectiveRating"`
	ObjectiveComment          string `json:"objectiveComment"`
	TechnicalRating           string `json:"technicalRating"`
	ProjectRating             string `json:"projectRating"`
	MethodologyRating         string `json:"methodologyRating"`
	AbilitiesComment          string `json:"abilitiesComment"`
	EfficiencyCollaboration   string `json:"efficiencyCollaboration"`
	EfficiencyOwnership       string `json:"efficiencyOwnership"`
	EfficiencyResourcefulness string `json:"efficiencyResourcefulness"`
	EfficiencyComment         string `json:"efficiencyComment"`
	ConductMutualTrust        string `json:"conductMutualTrust"`
	ConductProactivity        string `json:"conductProactivity"`
	ConductLeadership         string `json:"conductLeadership"`
	ConductComment            string `json:"conductComment"`
	GeneralComments           string `json:"generalComments"`
	FeedbackReceived          string `json:"feedbackReceived"`
}

// ManagerFields are authored by the direct manager between finalize and submit.
type ManagerFields struct {
	ManagerObjectiveComment  string `json:"managerObjectiveComment"`
	ManagerAbilitiesComment  string `json:"managerAbilitiesComment"`
	ManagerEfficiencyComment string `json:"managerEfficiencyComment"`
	NextCycleGoals           string `json:"nextCycleGoals"`
	ManagerGeneralComments   string `json:"managerGeneralComments"`
}

// Record is one assessment for one employee in the current review cycle.
type Record struct {
	ID                 string `json:"id"`
	EmployeeName       string `json:"employeeName"`
	EmployeeEmail      string `json:"employeeEmail"`
	ManagerName        string `json:"managerName"`
	ProgramManagerName string `json:"programManagerName"`
	EmployeeFields
	ManagerFields
	Status    Status    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
