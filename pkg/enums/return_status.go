package enums

import "fmt"

// ReturnStatus tracks a customer return request through merchant and admin review.
type ReturnStatus string

const (
	ReturnStatusPending          ReturnStatus = "pending"
	ReturnStatusMerchantApproved ReturnStatus = "merchant_approved"
	ReturnStatusMerchantRejected ReturnStatus = "merchant_rejected"
	ReturnStatusAdminReview      ReturnStatus = "admin_review"
	ReturnStatusAdminApproved    ReturnStatus = "admin_approved"
	ReturnStatusRefunded         ReturnStatus = "refunded"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusMerchantApproved,
	ReturnStatusMerchantRejected,
	ReturnStatusAdminReview,
	ReturnStatusAdminApproved,
	ReturnStatusRefunded,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// RefundAllowed reports whether refund processing may start from this state.
func (r ReturnStatus) RefundAllowed() bool {
	return r == ReturnStatusMerchantApproved || r == ReturnStatusAdminApproved
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
