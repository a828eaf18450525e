package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DonationGoal struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:ux_goals_org_slug,priority:1" json:"organization_id"`
	Title          string    `gorm:"not null" json:"title"`
	Description    string    `json:"description"`
	TargetAmount   *float64  `json:"target_amount,omitempty"`
	Slug           string    `gorm:"not null;uniqueIndex:ux_goals_org_slug,priority:2" json:"slug"`
	ImageURL       *string   `json:"image_url,omitempty"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`

	// Кэш: sum(amount) по пожертвованиям цели в статусе paid.
	// Инвариант поддерживается аккумулятором, дрейф проверяет воркер.
	CollectedAmount float64 `gorm:"default:0" json:"collected_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (g *DonationGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
