package handler

// applyRequest carries the student-supplied fields of a new application.
type applyRequest struct {
	CourseID     string   `json:"course_id"`
	Grades       string   `json:"grades,omitempty"`
	FinancialAid bool     `json:"financial_aid,omitempty"`
	Documents    []string `json:"documents,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

type updateDocumentsRequest struct {
	Grades       *string  `json:"grades,omitempty"`
	FinancialAid *bool    `json:"financial_aid,omitempty"`
	Documents    []string `json:"documents,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

type assignAgentRequest struct {
	AgentID string `json:"agent_id"`
}

type acceptRequest struct {
	OfferLetterURL string `json:"offer_letter_url,omitempty"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}
