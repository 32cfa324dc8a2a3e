package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/ifrit/internal/model"
)

// ErrAIQuotaExceeded is returned by ConsumeAIRequest when the monthly
// allowance of the user's plan is used up.
var ErrAIQuotaExceeded = errors.New("monthly AI request limit reached")

const userColumns = `id, username, password_hash, display_name, email, role,
	plan, subscription_status, stripe_customer_id, stripe_subscription_id, current_period_end,
	ai_requests, ai_period, last_login, created_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var displayName, email, customerID, subscriptionID sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &displayName, &email, &u.Role,
		&u.Subscription.Plan, &u.Subscription.Status, &customerID, &subscriptionID, &u.Subscription.CurrentPeriodEnd,
		&u.Usage.AIRequests, &u.Usage.AIPeriod, &u.LastLogin, &u.CreatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	u.DisplayName = displayName.String
	u.Email = email.String
	u.Subscription.StripeCustomerID = customerID.String
	u.Subscription.StripeSubscriptionID = subscriptionID.String
	return u, nil
}

// CreateUser creates a new user on the free plan.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, display_name) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, username,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// GetUserByStripeCustomer returns the user linked to a Stripe customer.
func GetUserByStripeCustomer(ctx context.Context, db *sql.DB, customerID string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE stripe_customer_id = ? AND deleted_at IS NULL`, customerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by stripe customer: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountAdmins returns the number of active admin accounts.
func CountAdmins(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'admin' AND deleted_at IS NULL`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// UpdateUser updates a user's role.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ? AND deleted_at IS NULL`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserProfile updates the display name and email of a user.
func UpdateUserProfile(ctx context.Context, db *sql.DB, id int64, displayName, email string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, email = ? WHERE id = ? AND deleted_at IS NULL`,
		displayName, email, id,
	)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// TouchLastLogin records a successful login.
func TouchLastLogin(ctx context.Context, db *sql.DB, id int64, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// UpdateSubscription replaces the billing state of a user.
func UpdateSubscription(ctx context.Context, db *sql.DB, id int64, sub model.Subscription) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET plan = ?, subscription_status = ?, stripe_customer_id = ?,
		 stripe_subscription_id = ?, current_period_end = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		sub.Plan, sub.Status, nullString(sub.StripeCustomerID),
		nullString(sub.StripeSubscriptionID), sub.CurrentPeriodEnd, id,
	)
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}
	return nil
}

// AIPeriod returns the metering period key for t, e.g. "2024-05".
func AIPeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ConsumeAIRequest counts one AI request against the user's monthly
// allowance. The counter resets when the month changes. The check and the
// increment happen in one statement so concurrent requests cannot overrun
// the limit.
func ConsumeAIRequest(ctx context.Context, db *sql.DB, id int64, now time.Time) (*model.Usage, error) {
	u, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d not found", id)
	}

	limit := model.LimitsFor(u.Subscription.Plan).AIRequests
	period := AIPeriod(now)

	result, err := db.ExecContext(ctx,
		`UPDATE users SET
		     ai_requests = CASE WHEN ai_period = ? THEN ai_requests + 1 ELSE 1 END,
		     ai_period = ?
		 WHERE id = ? AND (? < 0 OR ai_period != ? OR ai_requests < ?)`,
		period, period, id, limit, period, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("consuming ai request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("consuming ai request: %w", err)
	}
	if n == 0 {
		return nil, ErrAIQuotaExceeded
	}

	u, err = GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return &u.Usage, nil
}

// ResetAIUsage zeroes the monthly AI counter of a user.
func ResetAIUsage(ctx context.Context, db *sql.DB, id int64, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET ai_requests = 0, ai_period = ? WHERE id = ?`,
		AIPeriod(now), id,
	)
	if err != nil {
		return fmt.Errorf("resetting ai usage: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
