package handler

import (
	"time"

	"connect2uni/internal/application"
)

type applicationResponse struct {
	ID                string     `json:"id"`
	Student           string     `json:"student_id"`
	University        string     `json:"university_id"`
	Course            string     `json:"course_id"`
	Agency            string     `json:"agency_id"`
	Status            string     `json:"status"`
	AssignedAgents    []string   `json:"assigned_agents,omitempty"`
	AssignedSolicitor *string    `json:"assigned_solicitor,omitempty"`
	Grades            string     `json:"grades,omitempty"`
	FinancialAid      bool       `json:"financial_aid"`
	Documents         []string   `json:"documents,omitempty"`
	ExtraDocuments    []string   `json:"extra_documents,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	SubmissionDate    time.Time  `json:"submission_date"`
	ReviewDate        *time.Time `json:"review_date,omitempty"`
}

func toApplicationResponse(app *application.Application) applicationResponse {
	resp := applicationResponse{
		ID:             app.ID.String(),
		Student:        app.Student.String(),
		University:     app.University.String(),
		Course:         app.Course.String(),
		Agency:         app.Agency.String(),
		Status:         string(app.Status),
		Grades:         app.Grades,
		FinancialAid:   app.FinancialAid,
		Documents:      app.Documents,
		ExtraDocuments: app.ExtraDocuments,
		Reason:         app.Reason,
		Notes:          app.Notes,
		SubmissionDate: app.SubmissionDate,
		ReviewDate:     app.ReviewDate,
	}
	for _, agent := range app.AssignedAgents {
		resp.AssignedAgents = append(resp.AssignedAgents, agent.String())
	}
	if app.AssignedSolicitor != nil {
		s := app.AssignedSolicitor.String()
		resp.AssignedSolicitor = &s
	}
	return resp
}

func toApplicationResponses(apps []*application.Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	return out
}

type placementResponse struct {
	ApplicationID string `json:"application_id"`
	Stage         string `json:"stage"`
	StudentID     string `json:"student_id"`
}

func toPlacementResponses(placements []*application.Placement) []placementResponse {
	out := make([]placementResponse, 0, len(placements))
	for _, p := range placements {
		out = append(out, placementResponse{
			ApplicationID: p.ApplicationID.String(),
			Stage:         string(p.Stage),
			StudentID:     p.StudentID.String(),
		})
	}
	return out
}
