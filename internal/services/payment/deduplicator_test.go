package payment

import (
	"testing"

	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"
	"etaca_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicator_FirstSeen(t *testing.T) {
	db := helpers.OpenTestDB(t)
	dedup := NewDeduplicator(repositories.NewWebhookEventRepository())

	fields := map[string]string{"oid": "DON-1-11111", "status": "APPROVED"}
	class, event, err := dedup.Record(db, "DON-1-11111", fields)
	require.NoError(t, err)
	assert.Equal(t, ClassificationFirstSeen, class)
	require.NotNil(t, event)
	assert.False(t, event.Processed)
	assert.Equal(t, "fiserv", event.Provider)

	// Событие реально в журнале, payload сохранен дословно.
	var stored models.WebhookEvent
	require.NoError(t, db.First(&stored, "external_ref = ?", "DON-1-11111").Error)
	assert.JSONEq(t, `{"oid":"DON-1-11111","status":"APPROVED"}`, string(stored.RawPayload))
}

func TestDeduplicator_IdenticalDuplicate(t *testing.T) {
	db := helpers.OpenTestDB(t)
	dedup := NewDeduplicator(repositories.NewWebhookEventRepository())

	fields := map[string]string{"oid": "DON-1-11111", "status": "APPROVED"}
	_, first, err := dedup.Record(db, "DON-1-11111", fields)
	require.NoError(t, err)

	class, second, err := dedup.Record(db, "DON-1-11111", fields)
	require.NoError(t, err)
	assert.Equal(t, ClassificationDuplicateIdentical, class)
	assert.Equal(t, first.ID, second.ID)

	// Вторая строка не появилась.
	var count int64
	db.Model(&models.WebhookEvent{}).Where("external_ref = ?", "DON-1-11111").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestDeduplicator_ConflictingDuplicate(t *testing.T) {
	db := helpers.OpenTestDB(t)
	dedup := NewDeduplicator(repositories.NewWebhookEventRepository())

	_, _, err := dedup.Record(db, "DON-1-11111", map[string]string{"oid": "DON-1-11111", "status": "APPROVED"})
	require.NoError(t, err)

	// Тот же oid, другой payload.
	class, event, err := dedup.Record(db, "DON-1-11111", map[string]string{"oid": "DON-1-11111", "status": "DECLINED"})
	require.NoError(t, err)
	assert.Equal(t, ClassificationDuplicateConflicting, class)
	require.NotNil(t, event)

	// Обе доставки остались в журнале.
	var count int64
	db.Model(&models.WebhookEvent{}).Where("external_ref = ?", "DON-1-11111").Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestCanonicalPayload_Deterministic(t *testing.T) {
	a := map[string]string{"oid": "x", "status": "APPROVED", "zz": "1"}
	b := map[string]string{"zz": "1", "status": "APPROVED", "oid": "x"}

	_, hashA, err := CanonicalPayload(a)
	require.NoError(t, err)
	_, hashB, err := CanonicalPayload(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)

	b["status"] = "DECLINED"
	_, hashC, err := CanonicalPayload(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashC)
}
