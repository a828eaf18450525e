package repositories

import (
	"errors"
	"time"

	"etaca_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrWebhookEventNotFound = errors.New("webhook event not found")

// WebhookEventRepository — доступ к append-only журналу доставок.
// Create и MarkProcessed — единственные записи; удаления нет вовсе.
type WebhookEventRepository interface {
	Create(db *gorm.DB, event *models.WebhookEvent) error
	FindByRef(db *gorm.DB, externalRef string) ([]models.WebhookEvent, error)
	FindByRefAndHash(db *gorm.DB, externalRef, payloadHash string) (*models.WebhookEvent, error)
	// MarkProcessed выставляет processed=true (с заметкой об ошибке, если
	// доставка отклонена). Событие после этого не переобрабатывается.
	MarkProcessed(db *gorm.DB, id uuid.UUID, processingError *string) error
	// FindUnprocessed возвращает события без терминального исхода —
	// след падения между записью и реконсиляцией, вход recovery-свипа.
	FindUnprocessed(db *gorm.DB, receivedBefore time.Time, limit int) ([]models.WebhookEvent, error)
}

type WebhookEventRepositoryImpl struct{}

func NewWebhookEventRepository() WebhookEventRepository {
	return &WebhookEventRepositoryImpl{}
}

func (r *WebhookEventRepositoryImpl) Create(db *gorm.DB, event *models.WebhookEvent) error {
	return db.Create(event).Error
}

func (r *WebhookEventRepositoryImpl) FindByRef(db *gorm.DB, externalRef string) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := db.Where("external_ref = ?", externalRef).Order("received_at ASC").Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *WebhookEventRepositoryImpl) FindByRefAndHash(db *gorm.DB, externalRef, payloadHash string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := db.First(&event, "external_ref = ? AND payload_hash = ?", externalRef, payloadHash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *WebhookEventRepositoryImpl) MarkProcessed(db *gorm.DB, id uuid.UUID, processingError *string) error {
	result := db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processed":        true,
		"processing_error": processingError,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWebhookEventNotFound
	}
	return nil
}

func (r *WebhookEventRepositoryImpl) FindUnprocessed(db *gorm.DB, receivedBefore time.Time, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := db.Where("processed = ? AND received_at < ?", false, receivedBefore).
		Order("received_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
