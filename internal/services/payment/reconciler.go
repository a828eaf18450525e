package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"etaca_backend/internal/logger"
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"gorm.io/gorm"
)

// Result — класс исхода реконсиляции одной доставки.
type Result string

const (
	ResultApplied  Result = "applied"
	ResultIgnored  Result = "ignored"
	ResultRejected Result = "rejected"
)

// Reason уточняет исход. Ignored-причины — штатная идемпотентность,
// Rejected-причины — отклонённый вход; ни то, ни другое не является
// инфраструктурной ошибкой.
type Reason string

const (
	ReasonMalformedPayload   Reason = "malformed_payload"
	ReasonUnknownExternalRef Reason = "unknown_external_ref"
	ReasonSignatureMismatch  Reason = "signature_mismatch"
	ReasonUnknownTenant      Reason = "unknown_tenant"
	ReasonConflictingPayload Reason = "conflicting_payload"
	ReasonAlreadyProcessed   Reason = "already_processed"
	ReasonTerminalState      Reason = "terminal_state"
	ReasonUnsupportedStatus  Reason = "unsupported_status"
)

type Outcome struct {
	Result Result `json:"result"`
	Reason Reason `json:"reason,omitempty"`
}

func Applied() Outcome           { return Outcome{Result: ResultApplied} }
func Ignored(r Reason) Outcome   { return Outcome{Result: ResultIgnored, Reason: r} }
func Rejected(r Reason) Outcome  { return Outcome{Result: ResultRejected, Reason: r} }

// Acknowledged сообщает, была ли доставка долговечно записана — такие
// доставки шлюз должен получить success-ответом, чтобы прекратить ретраи.
func (o Outcome) Acknowledged() bool {
	return o.Reason != ReasonMalformedPayload
}

// Notifier — граница отправки уведомления донору. Вызывается не более
// одного раза на успешный переход Pending -> Paid.
type Notifier interface {
	DonationPaid(db *gorm.DB, donation *models.Donation) error
}

// Reconciler — единственная точка входа, которой позволено мутировать
// состояние пожертвования. Оркестрирует дедупликацию, верификацию,
// переход статуса, аккумулятор и уведомление для одной доставки.
type Reconciler interface {
	Reconcile(ctx context.Context, db *gorm.DB, fields map[string]string) (Outcome, error)
	// Recover переобрабатывает сохранённое, но не обработанное событие
	// (след падения между записью и реконсиляцией).
	Recover(ctx context.Context, db *gorm.DB, event *models.WebhookEvent) (Outcome, error)
}

type reconciler struct {
	donations    repositories.DonationRepository
	events       repositories.WebhookEventRepository
	verifier     Verifier
	deduplicator Deduplicator
	machine      StateMachine
	accumulator  Accumulator
	notifier     Notifier
	timeout      time.Duration
}

func NewReconciler(
	donations repositories.DonationRepository,
	events repositories.WebhookEventRepository,
	verifier Verifier,
	deduplicator Deduplicator,
	machine StateMachine,
	accumulator Accumulator,
	notifier Notifier,
) Reconciler {
	return &reconciler{
		donations:    donations,
		events:       events,
		verifier:     verifier,
		deduplicator: deduplicator,
		machine:      machine,
		accumulator:  accumulator,
		notifier:     notifier,
		timeout:      10 * time.Second,
	}
}

func (r *reconciler) Reconcile(ctx context.Context, db *gorm.DB, fields map[string]string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	db = db.WithContext(ctx)

	// Шаг 1: без oid доставку не на что ключевать — не персистим ничего.
	externalRef := strings.TrimSpace(fields["oid"])
	if externalRef == "" {
		logger.CtxWarn(ctx, "webhook rejected: payload has no external reference")
		return Rejected(ReasonMalformedPayload), nil
	}

	// Шаг 2: callback никогда не создаёт пожертвование. Неизвестный oid
	// всё равно фиксируем в журнале (см. §6 контракта ответа шлюзу).
	donation, err := r.donations.FindByExternalRef(db, externalRef)
	if err != nil {
		if !errors.Is(err, repositories.ErrDonationNotFound) {
			return Outcome{}, err
		}
		class, event, derr := r.deduplicator.Record(db, externalRef, fields)
		if derr != nil {
			return Outcome{}, derr
		}
		if class != ClassificationDuplicateIdentical {
			note := "unknown external reference"
			if class == ClassificationDuplicateConflicting {
				note = "conflicting payload for unknown external reference"
			}
			if merr := r.events.MarkProcessed(db, event.ID, &note); merr != nil {
				return Outcome{}, merr
			}
		}
		logger.CtxWarn(ctx, "webhook rejected: no donation for external reference", "external_ref", externalRef)
		return Rejected(ReasonUnknownExternalRef), nil
	}

	// Шаг 3: долговечная запись до любых побочных эффектов.
	class, event, err := r.deduplicator.Record(db, externalRef, fields)
	if err != nil {
		return Outcome{}, err
	}
	switch class {
	case ClassificationDuplicateIdentical:
		logger.CtxInfo(ctx, "webhook ignored: identical delivery already recorded", "external_ref", externalRef)
		return Ignored(ReasonAlreadyProcessed), nil
	case ClassificationDuplicateConflicting:
		// Тот же oid, другой payload: tamper, гонка или аномалия шлюза.
		// Записано, помечено для ручного разбора, пожертвование не тронуто.
		note := "conflicting payload for already recorded external reference"
		if merr := r.events.MarkProcessed(db, event.ID, &note); merr != nil {
			return Outcome{}, merr
		}
		logger.CtxWarn(ctx, "webhook rejected: conflicting duplicate flagged for review",
			"external_ref", externalRef, "event_id", event.ID)
		return Rejected(ReasonConflictingPayload), nil
	}

	return r.process(ctx, db, donation, event, fields)
}

func (r *reconciler) Recover(ctx context.Context, db *gorm.DB, event *models.WebhookEvent) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	db = db.WithContext(ctx)

	var fields map[string]string
	if err := json.Unmarshal(event.RawPayload, &fields); err != nil {
		note := "stored payload is not a valid field map"
		if merr := r.events.MarkProcessed(db, event.ID, &note); merr != nil {
			return Outcome{}, merr
		}
		return Rejected(ReasonMalformedPayload), nil
	}

	// Событие, записанное как конфликт до падения, при восстановлении
	// не становится first-seen: если по этому oid есть более раннее
	// событие с другим payload, доставка остаётся конфликтной.
	prior, err := r.events.FindByRef(db, event.ExternalRef)
	if err != nil {
		return Outcome{}, err
	}
	for i := range prior {
		p := &prior[i]
		if p.ID == event.ID || p.PayloadHash == event.PayloadHash {
			continue
		}
		if p.ReceivedAt.After(event.ReceivedAt) {
			continue
		}
		note := "conflicting payload for already recorded external reference"
		if merr := r.events.MarkProcessed(db, event.ID, &note); merr != nil {
			return Outcome{}, merr
		}
		logger.CtxWarn(ctx, "webhook rejected: conflicting duplicate flagged for review",
			"external_ref", event.ExternalRef, "event_id", event.ID)
		return Rejected(ReasonConflictingPayload), nil
	}

	donation, err := r.donations.FindByExternalRef(db, event.ExternalRef)
	if err != nil {
		if !errors.Is(err, repositories.ErrDonationNotFound) {
			return Outcome{}, err
		}
		note := "unknown external reference"
		if merr := r.events.MarkProcessed(db, event.ID, &note); merr != nil {
			return Outcome{}, merr
		}
		return Rejected(ReasonUnknownExternalRef), nil
	}

	return r.process(ctx, db, donation, event, fields)
}

// process выполняет шаги 4-6 для уже записанного события.
func (r *reconciler) process(ctx context.Context, db *gorm.DB, donation *models.Donation, event *models.WebhookEvent, fields map[string]string) (Outcome, error) {
	// Шаг 4: аутентификация.
	verification, err := r.verifier.Verify(db, fields)
	if err != nil {
		return Outcome{}, err
	}
	if verification != VerificationAuthentic {
		reason := ReasonSignatureMismatch
		if verification == VerificationUnknownTenant {
			reason = ReasonUnknownTenant
		}
		note := string(reason)
		if merr := r.events.MarkProcessed(db, event.ID, &note); merr != nil {
			return Outcome{}, merr
		}
		logger.CtxWarn(ctx, "webhook rejected: authentication failed",
			"external_ref", donation.ExternalRef, "reason", reason)
		return Rejected(reason), nil
	}

	// Шаг 5: маппинг исхода шлюза на целевой статус.
	target, ok := TargetStatus(fields["status"])
	if !ok {
		note := "unsupported status code: " + fields["status"]
		if merr := r.events.MarkProcessed(db, event.ID, &note); merr != nil {
			return Outcome{}, merr
		}
		logger.CtxWarn(ctx, "webhook ignored: unsupported status code",
			"external_ref", donation.ExternalRef, "status", fields["status"])
		return Ignored(ReasonUnsupportedStatus), nil
	}

	// Переход и кредит кэша — одна атомарная граница. Условный апдейт
	// внутри машины состояний даёт взаимное исключение по external_ref:
	// из конкурентных доставок переход применит ровно одна.
	var transition TransitionResult
	err = db.Transaction(func(tx *gorm.DB) error {
		var terr error
		transition, terr = r.machine.Apply(tx, donation.ID, target)
		if terr != nil {
			return terr
		}
		if transition == TransitionApplied && target == models.DonationStatusPaid {
			return r.accumulator.Credit(tx, donation)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	// Шаг 6: терминальный исход получен — событие обработано.
	if merr := r.events.MarkProcessed(db, event.ID, nil); merr != nil {
		return Outcome{}, merr
	}

	if transition == TransitionIgnored {
		logger.CtxInfo(ctx, "webhook ignored: donation already in terminal state",
			"external_ref", donation.ExternalRef, "target", target)
		return Ignored(ReasonTerminalState), nil
	}

	logger.CtxInfo(ctx, "donation transitioned",
		"external_ref", donation.ExternalRef, "target", target, "amount", donation.Amount)

	if target == models.DonationStatusPaid {
		r.dispatchNotification(ctx, db, donation)
	}
	return Applied(), nil
}

// dispatchNotification отправляет письмо донору ровно один раз на переход
// в Paid: право на отправку занимается условным апдейтом notified_at,
// при неудаче отметка снимается и попытку повторит recovery-воркер.
func (r *reconciler) dispatchNotification(ctx context.Context, db *gorm.DB, donation *models.Donation) {
	if r.notifier == nil {
		return
	}
	claimed, err := r.donations.ClaimNotification(db, donation.ID)
	if err != nil {
		logger.CtxWithError(ctx, "failed to claim donor notification", err, "donation_id", donation.ID)
		return
	}
	if !claimed {
		return
	}
	if err := r.notifier.DonationPaid(db, donation); err != nil {
		logger.CtxWithError(ctx, "donor notification failed, releasing claim", err, "donation_id", donation.ID)
		if rerr := r.donations.ReleaseNotification(db, donation.ID); rerr != nil {
			logger.CtxWithError(ctx, "failed to release notification claim", rerr, "donation_id", donation.ID)
		}
	}
}

// TargetStatus сопоставляет код исхода шлюза целевому статусу пожертвования.
func TargetStatus(code string) (models.DonationStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "APPROVED", "SUCCESS":
		return models.DonationStatusPaid, true
	case "DECLINED", "FAILED":
		return models.DonationStatusFailed, true
	case "CANCELLED":
		return models.DonationStatusCancelled, true
	default:
		return "", false
	}
}
