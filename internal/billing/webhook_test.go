package billing

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/erazemk/ifrit/internal/db"
	"github.com/erazemk/ifrit/internal/model"
	"github.com/erazemk/ifrit/internal/store"
)

const secret = "whsec_test"

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newProcessor(t *testing.T) (*Processor, *sql.DB, int64) {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, database, "barret", "x", model.RoleEditor)
	require.NoError(t, err)
	require.NoError(t, store.UpdateSubscription(ctx, database, u.ID, model.Subscription{
		Plan:             model.PlanFree,
		Status:           model.SubscriptionActive,
		StripeCustomerID: "cus_1",
	}))

	p := NewProcessor(database, secret, zaptest.NewLogger(t))
	p.now = func() time.Time { return now }
	return p, database, u.ID
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now()
	header := Sign(payload, secret, signedAt)

	assert.NoError(t, Verify(payload, header, secret, DefaultTolerance))
	assert.NoError(t, Verify(payload, header+",v1=deadbeef", secret, DefaultTolerance))
	assert.ErrorIs(t, Verify(payload, "", secret, DefaultTolerance), ErrMissingSignature)
	assert.ErrorIs(t, Verify([]byte(`{"id":"evt_2"}`), header, secret, DefaultTolerance), ErrBadSignature)
	assert.ErrorIs(t, Verify(payload, header, "other", DefaultTolerance), ErrBadSignature)

	old := Sign(payload, secret, signedAt.Add(-6*time.Minute))
	assert.ErrorIs(t, Verify(payload, old, secret, DefaultTolerance), ErrStaleSignature)
	recent := Sign(payload, secret, signedAt.Add(-4*time.Minute))
	assert.NoError(t, Verify(payload, recent, secret, DefaultTolerance))
}

func deliver(t *testing.T, p *Processor, payload string) error {
	t.Helper()
	return p.Handle(context.Background(), []byte(payload), Sign([]byte(payload), secret, time.Now()))
}

func TestSubscriptionUpdated(t *testing.T) {
	p, database, id := newProcessor(t)

	require.NoError(t, deliver(t, p, `{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_9",
			"customer": "cus_1",
			"status": "active",
			"items": {"object": "list", "data": [{"id": "si_1", "current_period_end": 1775000000}]},
			"metadata": {"plan": "premium"}
		}}
	}`))

	u, err := store.GetUser(context.Background(), database, id)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPremium, u.Subscription.Plan)
	assert.Equal(t, "sub_9", u.Subscription.StripeSubscriptionID)
	require.NotNil(t, u.Subscription.CurrentPeriodEnd)
	assert.Equal(t, int64(1775000000), u.Subscription.CurrentPeriodEnd.Unix())
}

func TestSubscriptionDeleted(t *testing.T) {
	p, database, id := newProcessor(t)
	ctx := context.Background()
	require.NoError(t, store.UpdateSubscription(ctx, database, id, model.Subscription{
		Plan: model.PlanBasic, Status: model.SubscriptionActive, StripeCustomerID: "cus_1",
	}))

	require.NoError(t, deliver(t, p, `{"type": "customer.subscription.deleted", "data": {"object": {"id": "sub_9", "customer": "cus_1", "status": "canceled"}}}`))

	u, err := store.GetUser(ctx, database, id)
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, u.Subscription.Plan)
	assert.Equal(t, model.SubscriptionCancelled, u.Subscription.Status)
}

func TestPaymentSucceededResetsAIUsage(t *testing.T) {
	p, database, id := newProcessor(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.ConsumeAIRequest(ctx, database, id, now)
		require.NoError(t, err)
	}

	require.NoError(t, deliver(t, p, `{"type": "invoice.payment_succeeded", "data": {"object": {"customer": "cus_1"}}}`))

	u, err := store.GetUser(ctx, database, id)
	require.NoError(t, err)
	assert.Zero(t, u.Usage.AIRequests)
}

func TestIgnoredEvents(t *testing.T) {
	p, _, _ := newProcessor(t)

	assert.NoError(t, deliver(t, p, `{"type": "charge.refunded", "data": {"object": {}}}`))
	assert.NoError(t, deliver(t, p, `{"type": "invoice.payment_succeeded", "data": {"object": {"customer": "cus_unknown"}}}`))
	assert.ErrorIs(t, deliver(t, p, `not json`), ErrBadPayload)
	assert.ErrorIs(t, p.Handle(context.Background(), []byte(`{}`), "t=1,v1=00"), ErrStaleSignature)
	assert.ErrorIs(t, p.Handle(context.Background(), []byte(`{}`), Sign([]byte(`{}`), "whsec_other", time.Now())), ErrBadSignature)
}

func TestLegacyPeriodEnd(t *testing.T) {
	p, database, id := newProcessor(t)

	require.NoError(t, deliver(t, p, `{
		"id": "evt_2",
		"type": "customer.subscription.created",
		"api_version": "2020-08-27",
		"data": {"object": {"id": "sub_1", "customer": "cus_1", "status": "trialing", "current_period_end": 1775000000}}
	}`))

	u, err := store.GetUser(context.Background(), database, id)
	require.NoError(t, err)
	assert.Equal(t, "trialing", u.Subscription.Status)
	assert.Equal(t, model.PlanFree, u.Subscription.Plan)
	require.NotNil(t, u.Subscription.CurrentPeriodEnd)
	assert.Equal(t, int64(1775000000), u.Subscription.CurrentPeriodEnd.Unix())
}
