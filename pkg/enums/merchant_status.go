package enums

import "fmt"

// MerchantStatus is a soft lifecycle flag; merchants are never hard-deleted.
type MerchantStatus string

const (
	MerchantStatusActive    MerchantStatus = "active"
	MerchantStatusSuspended MerchantStatus = "suspended"
)

var validMerchantStatuses = []MerchantStatus{
	MerchantStatusActive,
	MerchantStatusSuspended,
}

// String implements fmt.Stringer.
func (m MerchantStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MerchantStatus.
func (m MerchantStatus) IsValid() bool {
	for _, candidate := range validMerchantStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMerchantStatus converts raw input into a MerchantStatus.
func ParseMerchantStatus(value string) (MerchantStatus, error) {
	for _, candidate := range validMerchantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merchant status %q", value)
}
