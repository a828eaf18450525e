package payment

import (
	"crypto/hmac"
	"strings"

	"etaca_backend/internal/repositories"

	"gorm.io/gorm"
)

// VerificationResult — исход аутентификации callback'а.
type VerificationResult string

const (
	VerificationAuthentic         VerificationResult = "authentic"
	VerificationSignatureMismatch VerificationResult = "signature_mismatch"
	VerificationUnknownTenant     VerificationResult = "unknown_tenant"
)

// Verifier аутентифицирует входящий callback по секрету организации.
// Чистая функция с единственным I/O — чтением секрета; никогда не мутирует
// записи и не паникует на кривом, но парсибельном входе.
type Verifier interface {
	Verify(db *gorm.DB, fields map[string]string) (VerificationResult, error)
}

type fiservVerifier struct {
	orgRepo repositories.OrganizationRepository
}

func NewFiservVerifier(orgRepo repositories.OrganizationRepository) Verifier {
	return &fiservVerifier{orgRepo: orgRepo}
}

func (v *fiservVerifier) Verify(db *gorm.DB, fields map[string]string) (VerificationResult, error) {
	storeID := strings.TrimSpace(fields["storename"])
	if storeID == "" {
		return VerificationUnknownTenant, nil
	}

	org, err := v.orgRepo.FindByStoreID(db, storeID)
	if err != nil {
		if err == repositories.ErrOrganizationNotFound {
			return VerificationUnknownTenant, nil
		}
		return "", err
	}
	if org.FiservSecret == nil || *org.FiservSecret == "" {
		return VerificationUnknownTenant, nil
	}

	provided := fields["hash"]
	if provided == "" {
		return VerificationSignatureMismatch, nil
	}

	expected := SignNotification(fields, *org.FiservSecret)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return VerificationSignatureMismatch, nil
	}
	return VerificationAuthentic, nil
}
