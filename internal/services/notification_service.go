package services

import (
	"fmt"

	"etaca_backend/internal/email"
	"etaca_backend/internal/logger"
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"

	"gorm.io/gorm"
)

// NotificationService шлёт донору письмо-благодарность после оплаты.
// Удовлетворяет интерфейсу payment.Notifier.
type NotificationService struct {
	provider email.Provider
	orgs     repositories.OrganizationRepository
}

func NewNotificationService(provider email.Provider, orgs repositories.OrganizationRepository) *NotificationService {
	return &NotificationService{provider: provider, orgs: orgs}
}

func (s *NotificationService) DonationPaid(db *gorm.DB, donation *models.Donation) error {
	if donation.DonorEmail == "" {
		return nil
	}

	orgName := s.organizationName(db, donation)

	donorName := "Donor"
	if donation.DonorName != nil && *donation.DonorName != "" {
		donorName = *donation.DonorName
	}

	msg := &email.Email{
		To:      []string{donation.DonorEmail},
		Subject: fmt.Sprintf("Thank you for supporting %s", orgName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour donation of %.2f %s to %s has been received.\nReference: %s\n\nThank you!",
			donorName, donation.Amount, donation.Currency, orgName, donation.ExternalRef,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your donation of <b>%.2f %s</b> to <b>%s</b> has been received.</p><p>Reference: %s</p><p>Thank you!</p>",
			donorName, donation.Amount, donation.Currency, orgName, donation.ExternalRef,
		),
	}
	if err := s.provider.Send(msg); err != nil {
		return err
	}

	logger.Info("donor notification sent", "external_ref", donation.ExternalRef, "to", donation.DonorEmail)
	return nil
}

func (s *NotificationService) organizationName(db *gorm.DB, donation *models.Donation) string {
	if donation.Organization != nil {
		return donation.Organization.Name
	}
	org, err := s.orgs.FindByID(db, donation.OrganizationID)
	if err != nil {
		logger.Warn("failed to resolve organization for notification", "donation_id", donation.ID, "error", err)
		return "the organization"
	}
	return org.Name
}
