package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/ifrit/internal/db"
	"github.com/erazemk/ifrit/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "hash123", model.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, model.RoleViewer, user.Role)
	assert.Equal(t, model.PlanFree, user.Subscription.Plan)
	assert.Equal(t, model.SubscriptionActive, user.Subscription.Status)
	assert.Equal(t, "testuser", user.DisplayName)

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", got.Username)
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)
	require.NoError(t, err)

	user, err := GetUserByUsername(ctx, database, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	missing, err := GetUserByUsername(ctx, database, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUsernameReusableAfterDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "cid", "hash", model.RoleEditor)
	require.NoError(t, err)

	_, err = CreateUser(ctx, database, "cid", "hash", model.RoleEditor)
	assert.Error(t, err, "duplicate active username must fail")

	require.NoError(t, DeleteUser(ctx, database, user.ID))
	_, err = CreateUser(ctx, database, "cid", "hash", model.RoleEditor)
	assert.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "hash", model.RoleViewer)
	CreateUser(ctx, database, "b", "hash", model.RoleEditor)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleViewer)
	require.NoError(t, DeleteUser(ctx, database, user.ID))

	users, _ := ListUsers(ctx, database)
	assert.Empty(t, users)
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleViewer)
	require.NoError(t, UpdateUserPassword(ctx, database, user.ID, "newhash"))

	got, _ := GetUser(ctx, database, user.ID)
	assert.Equal(t, "newhash", got.PasswordHash)
}

func TestCountAdmins(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "root", "hash", model.RoleAdmin)
	CreateUser(ctx, database, "ed", "hash", model.RoleEditor)

	n, err := CountAdmins(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubscriptionByStripeCustomer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "payer", "hash", model.RoleViewer)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, UpdateSubscription(ctx, database, user.ID, model.Subscription{
		Plan:                 model.PlanPremium,
		Status:               model.SubscriptionActive,
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: "sub_456",
		CurrentPeriodEnd:     &end,
	}))

	got, err := GetUserByStripeCustomer(ctx, database, "cus_123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, model.PlanPremium, got.Subscription.Plan)
	assert.Equal(t, "sub_456", got.Subscription.StripeSubscriptionID)
}

func TestConsumeAIRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	user, _ := CreateUser(ctx, database, "asker", "hash", model.RoleViewer)
	limit := model.LimitsFor(model.PlanFree).AIRequests

	for i := 1; i <= limit; i++ {
		usage, err := ConsumeAIRequest(ctx, database, user.ID, now)
		require.NoError(t, err)
		assert.Equal(t, i, usage.AIRequests)
		assert.Equal(t, "2024-05", usage.AIPeriod)
	}

	_, err := ConsumeAIRequest(ctx, database, user.ID, now)
	assert.ErrorIs(t, err, ErrAIQuotaExceeded)

	// A new month starts a fresh counter.
	usage, err := ConsumeAIRequest(ctx, database, user.ID, now.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, usage.AIRequests)
	assert.Equal(t, "2024-06", usage.AIPeriod)
}

func TestConsumeAIRequestUnlimited(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	user, _ := CreateUser(ctx, database, "corp", "hash", model.RoleViewer)
	require.NoError(t, UpdateSubscription(ctx, database, user.ID, model.Subscription{
		Plan: model.PlanEnterprise, Status: model.SubscriptionActive,
	}))

	for i := 0; i < 20; i++ {
		_, err := ConsumeAIRequest(ctx, database, user.ID, now)
		require.NoError(t, err)
	}

	require.NoError(t, ResetAIUsage(ctx, database, user.ID, now))
	got, _ := GetUser(ctx, database, user.ID)
	assert.Equal(t, 0, got.Usage.AIRequests)
}
