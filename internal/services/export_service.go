package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"etaca_backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExportService выгружает пожертвования организации в CSV для отчётности.
type ExportService interface {
	DonationsCSV(db *gorm.DB, orgID uuid.UUID, from, to *time.Time, w io.Writer) error
}

type exportService struct {
	donations repositories.DonationRepository
}

func NewExportService(donations repositories.DonationRepository) ExportService {
	return &exportService{donations: donations}
}

var csvHeader = []string{
	"external_ref", "amount", "currency", "status",
	"donor_email", "donor_name", "goal_id", "created_at", "paid_at",
}

func (s *exportService) DonationsCSV(db *gorm.DB, orgID uuid.UUID, from, to *time.Time, w io.Writer) error {
	donations, err := s.donations.FindByOrganizationForExport(db, orgID, from, to)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for i := range donations {
		d := &donations[i]

		donorName := ""
		if d.DonorName != nil {
			donorName = *d.DonorName
		}
		goalID := ""
		if d.GoalID != nil {
			goalID = d.GoalID.String()
		}
		paidAt := ""
		if d.PaidAt != nil {
			paidAt = d.PaidAt.UTC().Format(time.RFC3339)
		}

		record := []string{
			d.ExternalRef,
			fmt.Sprintf("%.2f", d.Amount),
			d.Currency,
			string(d.Status),
			d.DonorEmail,
			donorName,
			goalID,
			d.CreatedAt.UTC().Format(time.RFC3339),
			paidAt,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
