package email

import "etaca_backend/internal/logger"

// Provider — абстракция транспорта email. Реализации: gomail (SMTP)
// и Mock для разработки и тестов.
type Provider interface {
	Send(email *Email) error
}

// MockProvider логирует письма вместо отправки.
type MockProvider struct{}

func (p *MockProvider) Send(email *Email) error {
	logger.Info("[MOCK EMAIL] message not sent", "to", email.To, "subject", email.Subject)
	return nil
}
