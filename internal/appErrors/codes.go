package appErrors

// Коды ошибок сгруппированные по доменам
const (
	// Аутентификация и авторизация
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	// Валидация
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Ресурсы
	CodeOrganizationNotFound ErrorCode = "ORGANIZATION_NOT_FOUND"
	CodeGoalNotFound         ErrorCode = "GOAL_NOT_FOUND"
	CodeDonationNotFound     ErrorCode = "DONATION_NOT_FOUND"
	CodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	CodeNotFound             ErrorCode = "NOT_FOUND"

	// Бизнес-логика пожертвований
	CodeOrganizationInactive   ErrorCode = "ORGANIZATION_INACTIVE"
	CodePaymentNotConfigured   ErrorCode = "PAYMENT_NOT_CONFIGURED"
	CodeGoalNotActive          ErrorCode = "GOAL_NOT_ACTIVE"
	CodeInvalidDonationAmount  ErrorCode = "INVALID_DONATION_AMOUNT"
	CodeInvalidDonorEmail      ErrorCode = "INVALID_DONOR_EMAIL"
	CodeEmailAlreadyExists     ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeSlugAlreadyExists      ErrorCode = "SLUG_ALREADY_EXISTS"
	CodeConflict               ErrorCode = "CONFLICT"

	// Системные ошибки
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"
)
