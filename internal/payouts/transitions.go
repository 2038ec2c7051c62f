package payouts

import (
	"errors"
	"fmt"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
)

// errNoop marks a self-transition; callers short-circuit without writing.
var errNoop = errors.New("payout status unchanged")

// IsNoop reports whether err marks an idempotent replay of a transition.
func IsNoop(err error) bool {
	return errors.Is(err, errNoop)
}

// allowedTransitions encodes the payout status chain. pending is the only
// state processing may start from; completed and failed are terminal with
// respect to each other so duplicate or out-of-order webhooks cannot flip a
// settled payout.
var allowedTransitions = map[enums.PayoutStatus][]enums.PayoutStatus{
	enums.PayoutStatusPending:    {enums.PayoutStatusProcessing, enums.PayoutStatusCompleted, enums.PayoutStatusFailed},
	enums.PayoutStatusProcessing: {enums.PayoutStatusCompleted, enums.PayoutStatusFailed},
	enums.PayoutStatusCompleted:  {},
	enums.PayoutStatusFailed:     {},
}

// CanTransition reports whether from may move to to. Self-transitions are
// always allowed; callers treat them as no-ops.
func CanTransition(from, to enums.PayoutStatus) bool {
	if from == to {
		return true
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// GuardTransition validates a status change. A self-transition returns
// errNoop so callers can short-circuit idempotent replays without treating
// them as failures.
func GuardTransition(from, to enums.PayoutStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", to))
	}
	if from == to {
		return errNoop
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payout transition %s -> %s not allowed", from, to))
	}
	return nil
}
