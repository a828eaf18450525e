package payment

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"

	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"gorm.io/gorm"
)

// Classification — результат дедупликации одной доставки.
type Classification string

const (
	ClassificationFirstSeen            Classification = "first_seen"
	ClassificationDuplicateIdentical   Classification = "duplicate_identical"
	ClassificationDuplicateConflicting Classification = "duplicate_conflicting"
)

// Deduplicator долговечно фиксирует каждую доставку ДО любых побочных
// эффектов. Ключ — (external_ref, payload_hash): повтор с тем же хэшем —
// идемпотентный ретрай шлюза, повтор с другим хэшем — конфликт (возможный
// tamper или аномалия шлюза), который никогда не принимается молча.
type Deduplicator interface {
	Record(db *gorm.DB, externalRef string, fields map[string]string) (Classification, *models.WebhookEvent, error)
}

type deduplicator struct {
	events   repositories.WebhookEventRepository
	provider string
}

func NewDeduplicator(events repositories.WebhookEventRepository) Deduplicator {
	return &deduplicator{events: events, provider: "fiserv"}
}

func (d *deduplicator) Record(db *gorm.DB, externalRef string, fields map[string]string) (Classification, *models.WebhookEvent, error) {
	rawPayload, payloadHash, err := CanonicalPayload(fields)
	if err != nil {
		return "", nil, err
	}

	prior, err := d.events.FindByRef(db, externalRef)
	if err != nil {
		return "", nil, err
	}

	for i := range prior {
		if prior[i].PayloadHash == payloadHash {
			return ClassificationDuplicateIdentical, &prior[i], nil
		}
	}

	event := &models.WebhookEvent{
		ExternalRef: externalRef,
		Provider:    d.provider,
		PayloadHash: payloadHash,
		RawPayload:  rawPayload,
	}
	if err := d.events.Create(db, event); err != nil {
		// Гонка двух одинаковых доставок: уникальный индекс пропустил
		// только первую, вторая — идемпотичный дубликат.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := d.events.FindByRefAndHash(db, externalRef, payloadHash)
			if ferr != nil {
				return "", nil, ferr
			}
			return ClassificationDuplicateIdentical, existing, nil
		}
		return "", nil, err
	}

	if len(prior) > 0 {
		return ClassificationDuplicateConflicting, event, nil
	}
	return ClassificationFirstSeen, event, nil
}

// CanonicalPayload сериализует все поля доставки (включая неизвестные)
// в канонический JSON с отсортированными ключами и считает его
// base64(SHA-256) хэш.
func CanonicalPayload(fields map[string]string) ([]byte, string, error) {
	// json.Marshal для map даёт детерминированный порядок ключей.
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(raw)
	return raw, base64.StdEncoding.EncodeToString(sum[:]), nil
}
