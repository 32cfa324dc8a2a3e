// Package billing applies Stripe subscription webhooks to user accounts.
package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/erazemk/ifrit/internal/metrics"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance is the accepted age of a signed payload.
const DefaultTolerance = webhook.DefaultTolerance

// Errors returned by Handle for deliveries that are rejected.
var (
	ErrMissingSignature = errors.New("missing signature")
	ErrBadSignature     = errors.New("signature mismatch")
	ErrStaleSignature   = errors.New("signature timestamp outside tolerance")
	ErrBadPayload       = errors.New("malformed event payload")
)

// Processor verifies and applies webhook events.
type Processor struct {
	db        *sql.DB
	secret    string
	tolerance time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewProcessor returns a processor that checks signatures with secret.
func NewProcessor(db *sql.DB, secret string, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{db: db, secret: secret, tolerance: DefaultTolerance, log: log, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (p *Processor) Enabled() bool { return p.secret != "" }

// signatureError maps the errors of the webhook package to ours.
func signatureError(err error) error {
	switch {
	case errors.Is(err, webhook.ErrNotSigned), errors.Is(err, webhook.ErrInvalidHeader):
		return fmt.Errorf("%w: %v", ErrMissingSignature, err)
	case errors.Is(err, webhook.ErrNoValidSignature):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, webhook.ErrTooOld):
		return fmt.Errorf("%w: %v", ErrStaleSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
}

// Verify checks a Stripe-Signature header against payload.
func Verify(payload []byte, header, secret string, tolerance time.Duration) error {
	if err := webhook.ValidatePayloadWithTolerance(payload, header, secret, tolerance); err != nil {
		return signatureError(err)
	}
	return nil
}

// Sign builds a signature header for payload at t, as Stripe would.
func Sign(payload []byte, secret string, t time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: t,
		Scheme:    "v1",
	}).Header
}

// Handle verifies payload and applies the event. Unknown event types and
// unknown customers are acknowledged and ignored. Events from any API
// version are accepted; only the fields read below must be present.
func (p *Processor) Handle(ctx context.Context, payload []byte, signature string) error {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		Tolerance:                p.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		metrics.BillingEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		return signatureError(err)
	}

	if err := p.apply(ctx, ev); err != nil {
		metrics.BillingEventsTotal.WithLabelValues(string(ev.Type), "error").Inc()
		return err
	}
	metrics.BillingEventsTotal.WithLabelValues(string(ev.Type), "ok").Inc()
	return nil
}

// legacyPeriod reads current_period_end from subscriptions of API versions
// that still carried it on the subscription itself.
type legacyPeriod struct {
	CurrentPeriodEnd int64 `json:"current_period_end"`
}

// periodEnd returns the latest period end of sub, or zero.
func periodEnd(sub *stripe.Subscription, raw json.RawMessage) int64 {
	var end int64
	if sub.Items != nil {
		for _, it := range sub.Items.Data {
			if it != nil {
				end = max(end, it.CurrentPeriodEnd)
			}
		}
	}
	if end == 0 {
		var legacy legacyPeriod
		if json.Unmarshal(raw, &legacy) == nil {
			end = legacy.CurrentPeriodEnd
		}
	}
	return end
}

func stripeCustomerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func (p *Processor) apply(ctx context.Context, ev stripe.Event) error {
	if ev.Data == nil {
		return fmt.Errorf("%w: event %s has no data", ErrBadPayload, ev.ID)
	}

	switch ev.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: decoding subscription: %v", ErrBadPayload, err)
		}
		u, err := p.customer(ctx, stripeCustomerID(sub.Customer))
		if err != nil || u == nil {
			return err
		}

		s := u.Subscription
		if ev.Type == stripe.EventTypeCustomerSubscriptionDeleted {
			s.Status = model.SubscriptionCancelled
			s.Plan = model.PlanFree
		} else {
			s.Status = string(sub.Status)
			s.StripeSubscriptionID = sub.ID
			if end := periodEnd(&sub, ev.Data.Raw); end > 0 {
				t := time.Unix(end, 0).UTC()
				s.CurrentPeriodEnd = &t
			}
			if plan := sub.Metadata["plan"]; model.ValidPlan(plan) {
				s.Plan = plan
			}
		}
		if err := store.UpdateSubscription(ctx, p.db, u.ID, s); err != nil {
			return err
		}
		p.log.Info("subscription updated",
			zap.String("event", string(ev.Type)),
			zap.Int64("user_id", u.ID),
			zap.String("plan", s.Plan),
			zap.String("status", s.Status))

	case stripe.EventTypeInvoicePaymentSucceeded:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return fmt.Errorf("%w: decoding invoice: %v", ErrBadPayload, err)
		}
		u, err := p.customer(ctx, stripeCustomerID(inv.Customer))
		if err != nil || u == nil {
			return err
		}
		if err := store.ResetAIUsage(ctx, p.db, u.ID, p.now()); err != nil {
			return err
		}
		p.log.Info("monthly AI usage reset", zap.Int64("user_id", u.ID))

	default:
		p.log.Debug("ignoring webhook event", zap.String("event", string(ev.Type)))
	}
	return nil
}

func (p *Processor) customer(ctx context.Context, customerID string) (*model.User, error) {
	if customerID == "" {
		return nil, nil
	}
	u, err := store.GetUserByStripeCustomer(ctx, p.db, customerID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		p.log.Warn("webhook for unknown customer", zap.String("customer", customerID))
	}
	return u, nil
}
