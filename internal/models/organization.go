package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string             `gorm:"not null" json:"name"`
	Description  *string            `json:"description,omitempty"`
	Nip          string             `gorm:"uniqueIndex;not null" json:"nip"`
	Krs          *string            `json:"krs,omitempty"`
	BankAccount  string             `gorm:"not null" json:"bank_account"`
	Email        string             `gorm:"not null" json:"email"`
	Status       OrganizationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Slug         string             `gorm:"uniqueIndex;not null" json:"slug"`
	ThemePrimary *string            `json:"theme_primary,omitempty"`
	HeroImageURL *string            `json:"hero_image_url,omitempty"`

	// Платёжная конфигурация Fiserv: идентификатор магазина и общий секрет.
	// Секрет никогда не сериализуется наружу.
	FiservStoreID *string `gorm:"index" json:"-"`
	FiservSecret  *string `json:"-"`

	// Кэш суммы всех оплаченных пожертвований организации.
	// Обновляется только в транзакции перехода Pending -> Paid.
	TotalCollected float64 `gorm:"default:0" json:"total_collected"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Goals     []DonationGoal `gorm:"foreignKey:OrganizationID" json:"goals,omitempty"`
	Donations []Donation     `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// PaymentConfigured проверяет, что организация готова принимать платежи.
func (o *Organization) PaymentConfigured() bool {
	return o.FiservStoreID != nil && *o.FiservStoreID != "" &&
		o.FiservSecret != nil && *o.FiservSecret != ""
}
