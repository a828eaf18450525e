package dto

import (
	"time"

	"github.com/google/uuid"

	"etaca_backend/internal/models"
)

type InitiateDonationRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id" binding:"required" validate:"required"`
	GoalID         *uuid.UUID `json:"goal_id,omitempty"`
	Amount         float64    `json:"amount" validate:"required,gt=0"`
	DonorEmail     string     `json:"donor_email" validate:"required,email,max=100"`
	DonorName      *string    `json:"donor_name,omitempty" validate:"omitempty,max=100"`
	Consent        bool       `json:"consent"`
	UtmSource      *string    `json:"utm_source,omitempty"`
	UtmMedium      *string    `json:"utm_medium,omitempty"`
	UtmCampaign    *string    `json:"utm_campaign,omitempty"`
}

type DonationInitiatedResponse struct {
	DonationID  uuid.UUID `json:"donation_id"`
	ExternalRef string    `json:"external_ref"`
	// FormHTML — автосабмит-форма, которая уводит донора на HPP шлюза.
	FormHTML string `json:"form_html"`
}

type DonationResponse struct {
	ID          uuid.UUID             `json:"id"`
	ExternalRef string                `json:"external_ref"`
	Amount      float64               `json:"amount"`
	Currency    string                `json:"currency"`
	DonorEmail  string                `json:"donor_email"`
	DonorName   *string               `json:"donor_name,omitempty"`
	Status      models.DonationStatus `json:"status"`
	PaidAt      *time.Time            `json:"paid_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type DonationListResponse struct {
	Donations []DonationResponse `json:"donations"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

func NewDonationResponse(d *models.Donation) DonationResponse {
	return DonationResponse{
		ID:          d.ID,
		ExternalRef: d.ExternalRef,
		Amount:      d.Amount,
		Currency:    d.Currency,
		DonorEmail:  d.DonorEmail,
		DonorName:   d.DonorName,
		Status:      d.Status,
		PaidAt:      d.PaidAt,
		CreatedAt:   d.CreatedAt,
	}
}
