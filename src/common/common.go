package common

import (
	"context"
	"fmt"
	"log"
	"time"

	"maidops/src/errs"
	awslib "maidops/src/lib/aws"
	"maidops/src/types"

	"github.com/tidwall/gjson"
)

type PaymentSyncer interface {
	SyncPaymentStatus(ctx context.Context, bookingID uint, method string, status types.PaymentStatus) (bool, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, since time.Time, limit int) (int, error)
}

// messageBody unwraps an SNS envelope when the queue is subscribed to a topic.
func messageBody(body string) string {
	if msg := gjson.Get(body, "Message"); msg.Type == gjson.String && gjson.Valid(msg.String()) {
		return msg.String()
	}
	return body
}

// HandlePaymentUpdate applies one payment-status message of the form
// {"bookingId": 12, "status": "paid", "method": "gcash"}. Malformed messages
// are dropped; storage failures are returned so the message is redelivered.
func HandlePaymentUpdate(ctx context.Context, syncer PaymentSyncer, qname, body string) error {
	if !gjson.Valid(body) {
		log.Printf("[%s]: Received invalid json body. Aborting", qname)
		return nil
	}
	msg := messageBody(body)
	bookingID := gjson.Get(msg, "bookingId").Uint()
	status := types.PaymentStatus(gjson.Get(msg, "status").String())
	method := gjson.Get(msg, "method").String()
	if bookingID == 0 || status == "" {
		log.Printf("[%s]: Message without bookingId or status. Aborting", qname)
		return nil
	}
	updated, err := syncer.SyncPaymentStatus(ctx, uint(bookingID), method, status)
	if errs.Is(err, errs.InvalidInput) {
		log.Printf("[%s]: %s\n", qname, err.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync payment for booking %d: %w", bookingID, err)
	}
	if updated {
		log.Printf("[%s]: booking %d payment is now %s\n", qname, bookingID, status)
	}
	return nil
}

func PaymentUpdatesConsumer(ctx context.Context, qname string, syncer PaymentSyncer) {
	c := awslib.NewSQSConsumer(qname, func(ctx context.Context, body string) error {
		return HandlePaymentUpdate(ctx, syncer, qname, body)
	})
	c.Listen(ctx)
}

// ReconcileSettlements settles completed bookings from the lookback window
// that still have no earning.
func ReconcileSettlements(reconciler Reconciler, lookback time.Duration, limit int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	since := time.Now().Add(-lookback)
	if _, err := reconciler.Reconcile(ctx, since, limit); err != nil {
		log.Printf("Error reconciling settlements: %s\n", err.Error())
	}
}
