package dto

import (
	"github.com/google/uuid"

	"etaca_backend/internal/models"
)

type CreateGoalRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description"`
	TargetAmount *float64 `json:"target_amount,omitempty" validate:"omitempty,gt=0"`
	Slug         string   `json:"slug" validate:"required,min=3,max=60"`
	ImageURL     *string  `json:"image_url,omitempty"`
}

type UpdateGoalRequest struct {
	Title        *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string  `json:"description,omitempty"`
	TargetAmount *float64 `json:"target_amount,omitempty" validate:"omitempty,gt=0"`
	ImageURL     *string  `json:"image_url,omitempty"`
}

type GoalResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	TargetAmount    *float64  `json:"target_amount,omitempty"`
	CollectedAmount float64   `json:"collected_amount"`
	Slug            string    `json:"slug"`
	ImageURL        *string   `json:"image_url,omitempty"`
	IsActive        bool      `json:"is_active"`
}

func NewGoalResponse(g *models.DonationGoal) GoalResponse {
	return GoalResponse{
		ID:              g.ID,
		Title:           g.Title,
		Description:     g.Description,
		TargetAmount:    g.TargetAmount,
		CollectedAmount: g.CollectedAmount,
		Slug:            g.Slug,
		ImageURL:        g.ImageURL,
		IsActive:        g.IsActive,
	}
}
