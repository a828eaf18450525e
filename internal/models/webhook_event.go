package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookEvent — append-only журнал входящих callback'ов шлюза.
// Строки никогда не удаляются и не перезаписываются; единственная
// мутация — отметка processed/processing_error после реконсиляции.
type WebhookEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalRef string    `gorm:"index;not null;uniqueIndex:ux_webhook_events_ref_hash,priority:1" json:"external_ref"`
	Provider    string    `gorm:"type:varchar(20);not null;default:'fiserv'" json:"provider"`

	// PayloadHash — base64(SHA-256) канонического JSON всех полей доставки.
	// Пара (external_ref, payload_hash) — ключ дедупликации.
	PayloadHash string `gorm:"not null;uniqueIndex:ux_webhook_events_ref_hash,priority:2" json:"payload_hash"`

	// RawPayload хранит все поля доставки дословно, включая неизвестные.
	RawPayload datatypes.JSON `gorm:"not null" json:"raw_payload"`

	ReceivedAt      time.Time `gorm:"autoCreateTime" json:"received_at"`
	Processed       bool      `gorm:"default:false;index" json:"processed"`
	ProcessingError *string   `json:"processing_error,omitempty"`
}

func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
