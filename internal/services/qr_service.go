package services

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRService генерирует QR-коды со ссылкой на публичную страницу
// организации (для печатных материалов и офлайн-сборов).
type QRService interface {
	OrganizationPageQR(slug string, size int) ([]byte, error)
	GoalPageQR(orgSlug, goalSlug string, size int) ([]byte, error)
}

type qrService struct {
	publicBaseURL string
}

func NewQRService(publicBaseURL string) QRService {
	return &qrService{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *qrService) OrganizationPageQR(slug string, size int) ([]byte, error) {
	url := fmt.Sprintf("%s/o/%s", s.publicBaseURL, slug)
	return s.encode(url, size)
}

func (s *qrService) GoalPageQR(orgSlug, goalSlug string, size int) ([]byte, error) {
	url := fmt.Sprintf("%s/o/%s/goals/%s", s.publicBaseURL, orgSlug, goalSlug)
	return s.encode(url, size)
}

func (s *qrService) encode(url string, size int) ([]byte, error) {
	if size <= 0 || size > 1024 {
		size = 256
	}
	return qrcode.Encode(url, qrcode.Medium, size)
}
