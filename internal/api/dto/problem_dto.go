package dto

import (
	"time"

	"github.com/spec-kit/roadguard/internal/domain"
)

// CreateProblemRequest payload.
type CreateProblemRequest struct {
	Type        string `json:"type"`
	Address     string `json:"address" validate:"required,max=500"`
	Description string `json:"description" validate:"max=5000"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ProblemResponse view.
type ProblemResponse struct {
	ID              string               `json:"id"`
	Type            domain.ProblemType   `json:"type"`
	Address         string               `json:"address"`
	Description     string               `json:"description"`
	Status          domain.ProblemStatus `json:"status"`
	ReporterID      string               `json:"reporter_id"`
	IsFromInspector bool                 `json:"is_from_inspector"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ProblemListResponse is one page of problems.
type ProblemListResponse struct {
	Items []ProblemResponse `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Pages int               `json:"pages"`
}

// MessageResponse carries a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewProblemResponse maps a problem.
func NewProblemResponse(problem *domain.Problem) ProblemResponse {
	return ProblemResponse{
		ID:              problem.ID,
		Type:            problem.Type,
		Address:         problem.Address,
		Description:     problem.Description,
		Status:          problem.Status,
		ReporterID:      problem.ReporterID,
		IsFromInspector: problem.IsFromInspector,
		CreatedAt:       problem.CreatedAt,
		UpdatedAt:       problem.UpdatedAt,
	}
}
