package workers_test

import (
	"context"
	"testing"
	"time"

	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"
	"etaca_backend/internal/services/payment"
	"etaca_backend/internal/workers"
	"etaca_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingNotifier struct {
	sent int
}

func (n *countingNotifier) DonationPaid(db *gorm.DB, donation *models.Donation) error {
	n.sent++
	return nil
}

type workerFixture struct {
	db       *gorm.DB
	worker   *workers.WebhookWorker
	notifier *countingNotifier
	org      *models.Organization
	goal     *models.DonationGoal
}

func newWorkerFixture(t *testing.T) *workerFixture {
	db := helpers.OpenTestDB(t)
	org := helpers.CreateActiveOrganization(t, db, "store-1", "secret-1")
	goal := helpers.CreateGoal(t, db, org.ID)

	orgRepo := repositories.NewOrganizationRepository()
	goalRepo := repositories.NewDonationGoalRepository()
	donationRepo := repositories.NewDonationRepository()
	eventRepo := repositories.NewWebhookEventRepository()
	notifier := &countingNotifier{}

	accumulator := payment.NewAccumulator(orgRepo, goalRepo, donationRepo)
	reconciler := payment.NewReconciler(
		donationRepo,
		eventRepo,
		payment.NewFiservVerifier(orgRepo),
		payment.NewDeduplicator(eventRepo),
		payment.NewStateMachine(donationRepo),
		accumulator,
		notifier,
	)
	worker := workers.NewWebhookWorker(db, eventRepo, donationRepo, goalRepo, reconciler, accumulator, notifier)

	return &workerFixture{db: db, worker: worker, notifier: notifier, org: org, goal: goal}
}

// Событие, записанное до падения процесса, добирается свипом: переход
// применяется, сумма зачисляется, событие получает отметку.
func TestSweepOnce_RecoversCrashedEvent(t *testing.T) {
	f := newWorkerFixture(t)
	donation := helpers.CreatePendingDonation(t, f.db, f.org.ID, &f.goal.ID, 60)

	fields := map[string]string{
		"oid":       donation.ExternalRef,
		"status":    "APPROVED",
		"storename": *f.org.FiservStoreID,
	}
	fields["hash"] = payment.SignNotification(fields, *f.org.FiservSecret)

	dedup := payment.NewDeduplicator(repositories.NewWebhookEventRepository())
	_, event, err := dedup.Record(f.db, donation.ExternalRef, fields)
	require.NoError(t, err)

	// Событие должно отлежаться дольше порога свипа.
	old := time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, f.db.Model(&models.WebhookEvent{}).Where("id = ?", event.ID).
		Update("received_at", old).Error)

	f.worker.SweepOnce(context.Background())

	var updated models.Donation
	require.NoError(t, f.db.First(&updated, "id = ?", donation.ID).Error)
	assert.Equal(t, models.DonationStatusPaid, updated.Status)

	var storedEvent models.WebhookEvent
	require.NoError(t, f.db.First(&storedEvent, "id = ?", event.ID).Error)
	assert.True(t, storedEvent.Processed)

	var org models.Organization
	require.NoError(t, f.db.First(&org, "id = ?", f.org.ID).Error)
	assert.InDelta(t, 60, org.TotalCollected, 0.001)
	assert.Equal(t, 1, f.notifier.sent)

	// Повторный свип ничего не добавляет.
	f.worker.SweepOnce(context.Background())
	require.NoError(t, f.db.First(&org, "id = ?", f.org.ID).Error)
	assert.InDelta(t, 60, org.TotalCollected, 0.001)
	assert.Equal(t, 1, f.notifier.sent)
}

// Конфликтное событие, оставшееся необработанным после падения, свип
// помечает для разбора, а не применяет как первую доставку.
func TestSweepOnce_FlagsConflictingEvent(t *testing.T) {
	f := newWorkerFixture(t)
	donation := helpers.CreatePendingDonation(t, f.db, f.org.ID, nil, 60)

	dedup := payment.NewDeduplicator(repositories.NewWebhookEventRepository())

	first := map[string]string{"oid": donation.ExternalRef, "status": "DECLINED"}
	_, _, err := dedup.Record(f.db, donation.ExternalRef, first)
	require.NoError(t, err)

	second := map[string]string{
		"oid":       donation.ExternalRef,
		"status":    "APPROVED",
		"storename": *f.org.FiservStoreID,
	}
	second["hash"] = payment.SignNotification(second, *f.org.FiservSecret)
	class, conflict, err := dedup.Record(f.db, donation.ExternalRef, second)
	require.NoError(t, err)
	require.Equal(t, payment.ClassificationDuplicateConflicting, class)

	old := time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, f.db.Model(&models.WebhookEvent{}).
		Where("external_ref = ?", donation.ExternalRef).
		Update("received_at", old).Error)
	require.NoError(t, f.db.Model(&models.WebhookEvent{}).Where("id = ?", conflict.ID).
		Update("received_at", old.Add(time.Second)).Error)

	f.worker.SweepOnce(context.Background())

	var updated models.Donation
	require.NoError(t, f.db.First(&updated, "id = ?", donation.ID).Error)
	assert.Equal(t, models.DonationStatusPending, updated.Status)
	assert.Equal(t, 0, f.notifier.sent)

	var stored models.WebhookEvent
	require.NoError(t, f.db.First(&stored, "id = ?", conflict.ID).Error)
	assert.True(t, stored.Processed)
	require.NotNil(t, stored.ProcessingError)
	assert.Contains(t, *stored.ProcessingError, "conflicting payload")
}

// Свежие события свип не трогает: они еще могут обрабатываться запросом.
func TestSweepOnce_SkipsFreshEvents(t *testing.T) {
	f := newWorkerFixture(t)
	donation := helpers.CreatePendingDonation(t, f.db, f.org.ID, nil, 60)

	fields := map[string]string{"oid": donation.ExternalRef, "status": "APPROVED"}
	dedup := payment.NewDeduplicator(repositories.NewWebhookEventRepository())
	_, _, err := dedup.Record(f.db, donation.ExternalRef, fields)
	require.NoError(t, err)

	f.worker.SweepOnce(context.Background())

	var updated models.Donation
	require.NoError(t, f.db.First(&updated, "id = ?", donation.ID).Error)
	assert.Equal(t, models.DonationStatusPending, updated.Status)
}

func TestRetryNotificationsOnce(t *testing.T) {
	f := newWorkerFixture(t)
	donation := helpers.CreatePendingDonation(t, f.db, f.org.ID, nil, 60)

	// Оплачено давно, но письмо не ушло (claim свободен).
	old := time.Now().UTC().Add(-1 * time.Hour)
	require.NoError(t, f.db.Model(&models.Donation{}).Where("id = ?", donation.ID).
		Updates(map[string]interface{}{"status": models.DonationStatusPaid, "paid_at": old}).Error)

	f.worker.RetryNotificationsOnce()
	assert.Equal(t, 1, f.notifier.sent)

	var updated models.Donation
	require.NoError(t, f.db.First(&updated, "id = ?", donation.ID).Error)
	require.NotNil(t, updated.NotifiedAt)

	// Второй проход не шлет дубликат.
	f.worker.RetryNotificationsOnce()
	assert.Equal(t, 1, f.notifier.sent)
}

func TestCheckDriftOnce_RepairsCache(t *testing.T) {
	f := newWorkerFixture(t)

	d := helpers.CreatePendingDonation(t, f.db, f.org.ID, &f.goal.ID, 40)
	require.NoError(t, f.db.Model(&models.Donation{}).Where("id = ?", d.ID).
		Update("status", models.DonationStatusPaid).Error)

	// Кэш испорчен вручную.
	require.NoError(t, f.db.Model(&models.DonationGoal{}).Where("id = ?", f.goal.ID).
		Update("collected_amount", 123456).Error)

	f.worker.CheckDriftOnce()

	var goal models.DonationGoal
	require.NoError(t, f.db.First(&goal, "id = ?", f.goal.ID).Error)
	assert.InDelta(t, 40, goal.CollectedAmount, 0.001)
}
