package workers

import (
	"context"
	"math"
	"time"

	"etaca_backend/internal/logger"
	"etaca_backend/internal/repositories"
	"etaca_backend/internal/services/payment"

	"gorm.io/gorm"
)

const (
	sweepInterval = 1 * time.Minute
	// unprocessedAge — сколько событие должно пролежать без исхода,
	// прежде чем свип посчитает его следом падения, а не запросом в полёте.
	unprocessedAge = 2 * time.Minute
	sweepBatchSize = 100

	notifyRetryInterval = 5 * time.Minute
	notifyRetryAge      = 10 * time.Minute
	notifyBatchSize     = 50

	driftCheckInterval = 24 * time.Hour
	// driftEpsilon — допуск сравнения float-сумм.
	driftEpsilon = 0.005
)

// WebhookWorker — фоновые задачи реконсиляции: добор незавершённых
// событий после падения, повтор неотправленных уведомлений и ежедневная
// сверка кэша собранных сумм с леджером.
type WebhookWorker struct {
	db          *gorm.DB
	events      repositories.WebhookEventRepository
	donations   repositories.DonationRepository
	goals       repositories.DonationGoalRepository
	reconciler  payment.Reconciler
	accumulator payment.Accumulator
	notifier    payment.Notifier
}

func NewWebhookWorker(
	db *gorm.DB,
	events repositories.WebhookEventRepository,
	donations repositories.DonationRepository,
	goals repositories.DonationGoalRepository,
	reconciler payment.Reconciler,
	accumulator payment.Accumulator,
	notifier payment.Notifier,
) *WebhookWorker {
	return &WebhookWorker{
		db:          db,
		events:      events,
		donations:   donations,
		goals:       goals,
		reconciler:  reconciler,
		accumulator: accumulator,
		notifier:    notifier,
	}
}

// Start запускает фоновые циклы до отмены контекста.
func (w *WebhookWorker) Start(ctx context.Context) {
	go w.runRecoverySweep(ctx)
	go w.runNotificationRetry(ctx)
	go w.runDriftCheck(ctx)
}

func (w *WebhookWorker) runRecoverySweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("webhook recovery sweep stopped")
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce добирает записанные, но не обработанные события.
func (w *WebhookWorker) SweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-unprocessedAge)
	events, err := w.events.FindUnprocessed(w.db, cutoff, sweepBatchSize)
	if err != nil {
		logger.Error("recovery sweep: failed to load unprocessed events", "error", err)
		return
	}

	for i := range events {
		event := &events[i]
		outcome, err := w.reconciler.Recover(ctx, w.db, event)
		if err != nil {
			logger.Error("recovery sweep: event reprocessing failed",
				"event_id", event.ID, "external_ref", event.ExternalRef, "error", err)
			continue
		}
		logger.Info("recovery sweep: event reprocessed",
			"event_id", event.ID, "external_ref", event.ExternalRef,
			"result", outcome.Result, "reason", outcome.Reason)
	}
}

func (w *WebhookWorker) runNotificationRetry(ctx context.Context) {
	ticker := time.NewTicker(notifyRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification retry loop stopped")
			return
		case <-ticker.C:
			w.RetryNotificationsOnce()
		}
	}
}

// RetryNotificationsOnce добирает оплаченные пожертвования без отметки
// об отправке письма. Право на отправку занимается тем же условным
// апдейтом, что и на горячем пути, так что двойной отправки не будет.
func (w *WebhookWorker) RetryNotificationsOnce() {
	if w.notifier == nil {
		return
	}
	cutoff := time.Now().UTC().Add(-notifyRetryAge)
	donations, err := w.donations.FindPaidUnnotified(w.db, cutoff, notifyBatchSize)
	if err != nil {
		logger.Error("notification retry: failed to load donations", "error", err)
		return
	}

	for i := range donations {
		donation := &donations[i]
		claimed, err := w.donations.ClaimNotification(w.db, donation.ID)
		if err != nil || !claimed {
			continue
		}
		if err := w.notifier.DonationPaid(w.db, donation); err != nil {
			logger.Error("notification retry: send failed", "donation_id", donation.ID, "error", err)
			if rerr := w.donations.ReleaseNotification(w.db, donation.ID); rerr != nil {
				logger.Error("notification retry: failed to release claim", "donation_id", donation.ID, "error", rerr)
			}
		}
	}
}

func (w *WebhookWorker) runDriftCheck(ctx context.Context) {
	ticker := time.NewTicker(driftCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("goal drift check stopped")
			return
		case <-ticker.C:
			w.CheckDriftOnce()
		}
	}
}

// CheckDriftOnce сверяет кэш каждой активной цели с леджером и чинит
// расхождения. Дрейф сигнализирует о баге в аккумуляции, поэтому логи
// на уровне error.
func (w *WebhookWorker) CheckDriftOnce() {
	goals, err := w.goals.FindActive(w.db)
	if err != nil {
		logger.Error("drift check: failed to load goals", "error", err)
		return
	}

	for i := range goals {
		goal := &goals[i]
		cached, actual, err := w.accumulator.Recompute(w.db, goal.ID)
		if err != nil {
			logger.Error("drift check: recompute failed", "goal_id", goal.ID, "error", err)
			continue
		}
		if math.Abs(cached-actual) <= driftEpsilon {
			continue
		}
		logger.Error("drift check: goal cache diverged from ledger, repairing",
			"goal_id", goal.ID, "cached", cached, "actual", actual)
		if err := w.accumulator.Repair(w.db, goal.ID, actual); err != nil {
			logger.Error("drift check: repair failed", "goal_id", goal.ID, "error", err)
		}
	}
}
