package notifications

const (
	TypeAssessmentFinalized = "assessment_finalized"
	TypeAssessmentSubmitted = "assessment_submitted"
	TypeAssessmentApproved  = "assessment_approved"
)
