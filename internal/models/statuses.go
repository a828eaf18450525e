package models

// DonationStatus — жизненный цикл пожертвования.
// Pending является единственным начальным статусом, остальные терминальные.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusPaid      DonationStatus = "paid"
	DonationStatusFailed    DonationStatus = "failed"
	DonationStatusCancelled DonationStatus = "cancelled"
)

// Terminal сообщает, допускает ли статус дальнейшие переходы.
func (s DonationStatus) Terminal() bool {
	switch s {
	case DonationStatusPaid, DonationStatusFailed, DonationStatusCancelled:
		return true
	}
	return false
}

type OrganizationStatus string

const (
	OrganizationStatusPending   OrganizationStatus = "pending"
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleOrgOwner UserRole = "org_owner"
)
