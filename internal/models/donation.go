package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Donation struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	GoalID         *uuid.UUID `gorm:"type:uuid;index" json:"goal_id,omitempty"`

	// ExternalRef — идентификатор транзакции, который мы передаем шлюзу (oid).
	// Уникален среди всех пожертвований, по нему сопоставляются callback'и.
	ExternalRef string `gorm:"uniqueIndex;not null" json:"external_ref"`

	Amount     float64        `gorm:"not null" json:"amount"`
	Currency   string         `gorm:"type:varchar(3);default:'PLN'" json:"currency"`
	DonorEmail string         `gorm:"not null" json:"donor_email"`
	DonorName  *string        `json:"donor_name,omitempty"`
	Status     DonationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// PaidAt проставляется единственным успешным переходом Pending -> Paid.
	PaidAt *time.Time `json:"paid_at,omitempty"`

	// NotifiedAt — outbox-отметка отправки письма донору (ровно один раз
	// на переход в Paid; незанятые строки добирает recovery-воркер).
	NotifiedAt *time.Time `json:"-"`

	Consent     bool    `gorm:"default:false" json:"consent"`
	UtmSource   *string `json:"utm_source,omitempty"`
	UtmMedium   *string `json:"utm_medium,omitempty"`
	UtmCampaign *string `json:"utm_campaign,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Goal         *DonationGoal `gorm:"foreignKey:GoalID" json:"-"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
