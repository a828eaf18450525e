package services

import (
	"fmt"
	"html"
	"math/rand"
	"net/mail"
	"sort"
	"strings"
	"time"

	"etaca_backend/internal/appErrors"
	"etaca_backend/internal/dto"
	"etaca_backend/internal/logger"
	"etaca_backend/internal/models"
	"etaca_backend/internal/repositories"
	"etaca_backend/internal/services/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FiservConfig — параметры HPP интеграции, общие для всех организаций.
// Секрет и storename у каждой организации свои.
type FiservConfig struct {
	Endpoint   string
	SuccessURL string
	FailURL    string
	NotifyURL  string
}

type DonationService interface {
	// Initiate создаёт Pending-пожертвование и HPP-форму редиректа.
	// Callback'и шлюза сюда не попадают — их обрабатывает Reconciler.
	Initiate(db *gorm.DB, req *dto.InitiateDonationRequest) (*dto.DonationInitiatedResponse, error)
	GetByExternalRef(db *gorm.DB, externalRef string) (*dto.DonationResponse, error)
	ListByOrganization(db *gorm.DB, orgID uuid.UUID, page, pageSize int) (*dto.DonationListResponse, error)
}

type donationService struct {
	donations repositories.DonationRepository
	orgs      repositories.OrganizationRepository
	goals     repositories.DonationGoalRepository
	fiserv    FiservConfig
}

func NewDonationService(
	donations repositories.DonationRepository,
	orgs repositories.OrganizationRepository,
	goals repositories.DonationGoalRepository,
	fiserv FiservConfig,
) DonationService {
	return &donationService{
		donations: donations,
		orgs:      orgs,
		goals:     goals,
		fiserv:    fiserv,
	}
}

func (s *donationService) Initiate(db *gorm.DB, req *dto.InitiateDonationRequest) (*dto.DonationInitiatedResponse, error) {
	if req.Amount <= 0 || req.Amount > 100000 {
		return nil, appErrors.ErrInvalidDonationAmount
	}
	if !isValidEmail(req.DonorEmail) {
		return nil, appErrors.ErrInvalidDonorEmail
	}

	org, err := s.orgs.FindByID(db, req.OrganizationID)
	if err != nil {
		if err == repositories.ErrOrganizationNotFound {
			return nil, appErrors.ErrOrganizationNotFound
		}
		return nil, err
	}
	if org.Status != models.OrganizationStatusActive {
		return nil, appErrors.ErrOrganizationInactive
	}
	if !org.PaymentConfigured() {
		logger.Error("organization payment configuration incomplete", "organization_id", org.ID)
		return nil, appErrors.ErrPaymentNotConfigured
	}

	if req.GoalID != nil {
		goal, err := s.goals.FindByID(db, *req.GoalID)
		if err != nil {
			if err == repositories.ErrGoalNotFound {
				return nil, appErrors.ErrGoalNotActive
			}
			return nil, err
		}
		if !goal.IsActive || goal.OrganizationID != org.ID {
			return nil, appErrors.ErrGoalNotActive
		}
	}

	donation := &models.Donation{
		OrganizationID: org.ID,
		GoalID:         req.GoalID,
		ExternalRef:    GenerateExternalRef(),
		Amount:         req.Amount,
		Currency:       "PLN",
		DonorEmail:     strings.TrimSpace(req.DonorEmail),
		DonorName:      req.DonorName,
		Status:         models.DonationStatusPending,
		Consent:        req.Consent,
		UtmSource:      req.UtmSource,
		UtmMedium:      req.UtmMedium,
		UtmCampaign:    req.UtmCampaign,
	}
	if err := s.donations.Create(db, donation); err != nil {
		return nil, err
	}

	formHTML := s.buildHppForm(org, donation)

	logger.Info("donation initiated",
		"external_ref", donation.ExternalRef,
		"organization_id", org.ID,
		"amount", donation.Amount,
	)

	return &dto.DonationInitiatedResponse{
		DonationID:  donation.ID,
		ExternalRef: donation.ExternalRef,
		FormHTML:    formHTML,
	}, nil
}

func (s *donationService) GetByExternalRef(db *gorm.DB, externalRef string) (*dto.DonationResponse, error) {
	donation, err := s.donations.FindByExternalRef(db, externalRef)
	if err != nil {
		if err == repositories.ErrDonationNotFound {
			return nil, appErrors.ErrDonationNotFound
		}
		return nil, err
	}
	resp := dto.NewDonationResponse(donation)
	return &resp, nil
}

func (s *donationService) ListByOrganization(db *gorm.DB, orgID uuid.UUID, page, pageSize int) (*dto.DonationListResponse, error) {
	donations, total, err := s.donations.ListByOrganization(db, orgID, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DonationResponse, 0, len(donations))
	for i := range donations {
		items = append(items, dto.NewDonationResponse(&donations[i]))
	}
	return &dto.DonationListResponse{
		Donations: items,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// GenerateExternalRef генерирует oid вида DON-<unix>-<5 цифр>.
func GenerateExternalRef() string {
	return fmt.Sprintf("DON-%d-%d", time.Now().Unix(), 10000+rand.Intn(90000))
}

// buildHppForm собирает автосабмит-форму HPP. Подписываются параметры
// в алфавитном порядке через '|', transactionNotificationURL в подпись
// не входит — правило интеграции Fiserv.
func (s *donationService) buildHppForm(org *models.Organization, donation *models.Donation) string {
	signatureParams := map[string]string{
		"chargetotal":        fmt.Sprintf("%.2f", donation.Amount),
		"checkoutoption":     "combinedpage",
		"currency":           "985", // числовой код PLN
		"hash_algorithm":     "HMACSHA256",
		"oid":                donation.ExternalRef,
		"responseFailURL":    s.fiserv.FailURL,
		"responseSuccessURL": s.fiserv.SuccessURL,
		"storename":          *org.FiservStoreID,
		"timezone":           "Europe/Warsaw",
		"txndatetime":        txnDateTime(time.Now()),
		"txntype":            "sale",
	}

	hash := payment.SignHppParams(signatureParams, *org.FiservSecret)

	fields := make(map[string]string, len(signatureParams)+4)
	for k, v := range signatureParams {
		fields[k] = v
	}
	fields["transactionNotificationURL"] = s.fiserv.NotifyURL
	fields["hash"] = hash
	if donation.DonorEmail != "" {
		fields["bmail"] = donation.DonorEmail
	}
	if donation.DonorName != nil && strings.TrimSpace(*donation.DonorName) != "" {
		fields["bname"] = strings.TrimSpace(*donation.DonorName)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("    <title>Redirecting to payment...</title>\n    <meta charset='utf-8'>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(fmt.Sprintf("    <form id='payment-form' action='%s' method='POST'>\n", html.EscapeString(s.fiserv.Endpoint)))
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("        <input type='hidden' name='%s' value='%s' />\n",
			html.EscapeString(k), html.EscapeString(fields[k])))
	}
	sb.WriteString("    </form>\n")
	sb.WriteString("    <script>document.getElementById('payment-form').submit();</script>\n")
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// txnDatetime шлюз ждёт в том же часовом поясе, что и поле timezone,
// иначе получим отказ по рассинхрону часов.
func txnDateTime(now time.Time) string {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006:01:02-15:04:05")
}

func isValidEmail(email string) bool {
	if len(email) > 100 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
