package payment

import (
	"fmt"
	"time"

	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionResult — исход попытки перехода статуса.
type TransitionResult string

const (
	TransitionApplied TransitionResult = "applied"
	TransitionIgnored TransitionResult = "ignored"
)

// StateMachine применяет переходы жизненного цикла пожертвования:
// pending -> paid | failed | cancelled, все целевые статусы терминальные.
// Повторная попытка перехода из терминального состояния — не ошибка,
// а Ignored: именно это делает повторные доставки шлюза безопасными.
type StateMachine interface {
	Apply(db *gorm.DB, donationID uuid.UUID, target models.DonationStatus) (TransitionResult, error)
}

type stateMachine struct {
	donations repositories.DonationRepository
}

func NewStateMachine(donations repositories.DonationRepository) StateMachine {
	return &stateMachine{donations: donations}
}

func (m *stateMachine) Apply(db *gorm.DB, donationID uuid.UUID, target models.DonationStatus) (TransitionResult, error) {
	if !target.Terminal() {
		return "", fmt.Errorf("state machine: target status %q is not a valid transition target", target)
	}

	var paidAt *time.Time
	if target == models.DonationStatusPaid {
		now := time.Now().UTC()
		paidAt = &now
	}

	applied, err := m.donations.TransitionFromPending(db, donationID, target, paidAt)
	if err != nil {
		return "", err
	}
	if !applied {
		return TransitionIgnored, nil
	}
	return TransitionApplied, nil
}
