package notifications

import (
	"context"
	"fmt"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
)

// PayoutNotifier emails merchants about payout outcomes.
type PayoutNotifier struct {
	sender Sender
}

// NewPayoutNotifier wraps a sender for payout outcome mail.
func NewPayoutNotifier(sender Sender) *PayoutNotifier {
	if sender == nil {
		sender = Nop{}
	}
	return &PayoutNotifier{sender: sender}
}

func (n *PayoutNotifier) PayoutCompleted(ctx context.Context, merchant *models.Merchant, payout *models.Payout) error {
	if merchant == nil || merchant.Email == "" || payout == nil {
		return nil
	}
	return n.sender.Send(ctx, Message{
		To:      merchant.Email,
		Subject: "Your payout has been sent",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour payout of %s %.2f has been transferred to your bank account.\n\nPayout reference: %s\n",
			merchant.BusinessName, "NGN", float64(payout.AmountMinor)/100, payout.ID),
	})
}

func (n *PayoutNotifier) PayoutFailed(ctx context.Context, merchant *models.Merchant, payout *models.Payout, reason string) error {
	if merchant == nil || merchant.Email == "" || payout == nil {
		return nil
	}
	return n.sender.Send(ctx, Message{
		To:      merchant.Email,
		Subject: "Your payout could not be completed",
		Body: fmt.Sprintf(
			"Hello %s,\n\nA payout of %s %.2f could not be completed (%s). The amount remains in your balance and will be retried.\n\nPayout reference: %s\n",
			merchant.BusinessName, "NGN", float64(payout.AmountMinor)/100, reason, payout.ID),
	})
}
