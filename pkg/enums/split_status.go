package enums

import "fmt"

// SplitStatus tracks a merchant's owed portion of one order through payout.
// The chain is payout_requested -> processing -> paid, with processing
// reverting to payout_requested when a transfer fails.
type SplitStatus string

const (
	SplitStatusPayoutRequested SplitStatus = "payout_requested"
	SplitStatusProcessing      SplitStatus = "processing"
	SplitStatusPaid            SplitStatus = "paid"
)

var validSplitStatuses = []SplitStatus{
	SplitStatusPayoutRequested,
	SplitStatusProcessing,
	SplitStatusPaid,
}

// String implements fmt.Stringer.
func (s SplitStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SplitStatus.
func (s SplitStatus) IsValid() bool {
	for _, candidate := range validSplitStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSplitStatus converts raw input into a SplitStatus.
func ParseSplitStatus(value string) (SplitStatus, error) {
	for _, candidate := range validSplitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid split status %q", value)
}
