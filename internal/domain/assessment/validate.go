package assessment

import "strings"

type validator struct {
	issues []ValidationIssue
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.issues = append(v.issues, ValidationIssue{Field: field, Reason: "must not be empty"})
	}
}

func (v *validator) choice(field, value string, choices []string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	for _, candidate := range choices {
		if value == candidate {
			return
		}
	}
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: "is not one of the allowed options"})
}

func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}

// TrimEmployeeFields strips surrounding whitespace from every employee field.
func TrimEmployeeFields(f EmployeeFields) EmployeeFields {
	f.ObjectiveRating = strings.TrimSpace(f.ObjectiveRating)
	f.ObjectiveComment = strings.TrimSpace(f.ObjectiveComment)
	f.TechnicalRating = strings.TrimSpace(f.TechnicalRating)
	f.ProjectRating = strings.TrimSpace(f.ProjectRating)
	f.MethodologyRating = strings.TrimSpace(f.MethodologyRating)
	f.AbilitiesComment = strings.TrimSpace(f.AbilitiesComment)
	f.EfficiencyCollaboration = strings.TrimSpace(f.EfficiencyCollaboration)
	f.EfficiencyOwnership = strings.TrimSpace(f.EfficiencyOwnership)
	f.EfficiencyResourcefulness = strings.TrimSpace(f.EfficiencyResourcefulness)
	f.EfficiencyComment = strings.TrimSpace(f.EfficiencyComment)
	f.ConductMutualTrust = strings.TrimSpace(f.ConductMutualTrust)
	f.ConductProactivity = strings.TrimSpace(f.ConductProactivity)
	f.ConductLeadership = strings.TrimSpace(f.ConductLeadership)
	f.ConductComment = strings.TrimSpace(f.ConductComment)
	f.GeneralComments = strings.TrimSpace(f.GeneralComments)
	f.FeedbackReceived = strings.TrimSpace(f.FeedbackReceived)
	return f
}

// TrimManagerFields strips surrounding whitespace from every manager field.
func TrimManagerFields(f ManagerFields) ManagerFields {
	f.ManagerObjectiveComment = strings.TrimSpace(f.ManagerObjectiveComment)
	f.ManagerAbilitiesComment = strings.TrimSpace(f.ManagerAbilitiesComment)
	f.ManagerEfficiencyComment = strings.TrimSpace(f.ManagerEfficiencyComment)
	f.NextCycleGoals = strings.TrimSpace(f.NextCycleGoals)
	f.ManagerGeneralComments = strings.TrimSpace(f.ManagerGeneralComments)
	return f
}

// ValidateEmployeeFields checks the full employee field set: every field
// required, every rating a member of its domain. All issues are collected so
// the caller sees the complete rejection at once.
func ValidateEmployeeFields(f EmployeeFields) error {
	v := &validator{}
	v.required("objectiveRating", f.ObjectiveRating)
	v.required("objectiveComment", f.ObjectiveComment)
	v.required("technicalRating", f.TechnicalRating)
	v.required("projectRating", f.ProjectRating)
	v.required("methodologyRating", f.MethodologyRating)
	v.required("abilitiesComment", f.AbilitiesComment)
	v.required("efficiencyCollaboration", f.EfficiencyCollaboration)
	v.required("efficiencyOwnership", f.EfficiencyOwnership)
	v.required("efficiencyResourcefulness", f.EfficiencyResourcefulness)
	v.required("efficiencyComment", f.EfficiencyComment)
	v.required("conductMutualTrust", f.ConductMutualTrust)
	v.required("conductProactivity", f.ConductProactivity)
	v.required("conductLeadership", f.ConductLeadership)
	v.required("conductComment", f.ConductComment)
	v.required("generalComments", f.GeneralComments)
	v.required("feedbackReceived", f.FeedbackReceived)

	v.choice("objectiveRating", f.ObjectiveRating, ObjectiveChoices)
	v.choice("technicalRating", f.TechnicalRating, AbilityChoices)
	v.choice("projectRating", f.ProjectRating, AbilityChoices)
	v.choice("methodologyRating", f.MethodologyRating, AbilityChoices)
	v.choice("efficiencyCollaboration", f.EfficiencyCollaboration, AbilityChoices)
	v.choice("efficiencyOwnership", f.EfficiencyOwnership, AbilityChoices)
	v.choice("efficiencyResourcefulness", f.EfficiencyResourcefulness, AbilityChoices)
	v.choice("conductMutualTrust", f.ConductMutualTrust, AbilityChoices)
	v.choice("conductProactivity", f.ConductProactivity, AbilityChoices)
	v.choice("conductLeadership", f.ConductLeadership, AbilityChoices)
	return v.err()
}

// ValidateManagerFields checks only the manager-authored field set.
func ValidateManagerFields(f ManagerFields) error {
	v := &validator{}
	v.required("managerObjectiveComment", f.ManagerObjectiveComment)
	v.required("managerAbilitiesComment", f.ManagerAbilitiesComment)
	v.required("managerEfficiencyComment", f.ManagerEfficiencyComment)
	v.required("nextCycleGoals", f.NextCycleGoals)
	v.required("managerGeneralComments", f.ManagerGeneralComments)
	return v.err()
}
