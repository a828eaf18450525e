package dto

import (
	"github.com/google/uuid"

	"etaca_backend/internal/models"
)

type RegisterOrganizationRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   *string `json:"description,omitempty"`
	Nip           string  `json:"nip" validate:"required,min=10,max=10"`
	Krs           *string `json:"krs,omitempty"`
	BankAccount   string  `json:"bank_account" validate:"required,max=34"`
	Email         string  `json:"email" validate:"required,email"`
	Slug          string  `json:"slug" validate:"required,min=3,max=60"`
	OwnerEmail    string  `json:"owner_email" validate:"required,email"`
	OwnerPassword string  `json:"owner_password" validate:"required,min=8"`
}

type UpdatePaymentConfigRequest struct {
	FiservStoreID string `json:"fiserv_store_id" validate:"required"`
	FiservSecret  string `json:"fiserv_secret" validate:"required"`
}

type OrganizationPublicResponse struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Description    *string        `json:"description,omitempty"`
	Slug           string         `json:"slug"`
	ThemePrimary   *string        `json:"theme_primary,omitempty"`
	HeroImageURL   *string        `json:"hero_image_url,omitempty"`
	TotalCollected float64        `json:"total_collected"`
	Goals          []GoalResponse `json:"goals"`
}

func NewOrganizationPublicResponse(org *models.Organization) OrganizationPublicResponse {
	goals := make([]GoalResponse, 0, len(org.Goals))
	for i := range org.Goals {
		goals = append(goals, NewGoalResponse(&org.Goals[i]))
	}
	return OrganizationPublicResponse{
		ID:             org.ID,
		Name:           org.Name,
		Description:    org.Description,
		Slug:           org.Slug,
		ThemePrimary:   org.ThemePrimary,
		HeroImageURL:   org.HeroImageURL,
		TotalCollected: org.TotalCollected,
		Goals:          goals,
	}
}
