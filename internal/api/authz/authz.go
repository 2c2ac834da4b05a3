package authz

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type AuthUser struct {
	ID       int64
	Username string
	Email    string
	IsStaff  bool
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the signed-in user, or nil when there is none.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}
	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}
	return user
}

func IsStaff(user *AuthUser) bool {
	return user != nil && user.IsStaff
}

// RequireStaff returns ErrUnauthenticated without a user and ErrForbidden for
// a customer account.
func RequireStaff(ctx context.Context) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if !user.IsStaff {
		return ErrForbidden
	}
	return nil
}

// CanViewBooking allows staff and the booking's owner. Bookings with no owner
// are staff-only.
func CanViewBooking(user *AuthUser, ownerID sql.NullInt64) bool {
	if user == nil {
		return false
	}
	if user.IsStaff {
		return true
	}
	return ownerID.Valid && ownerID.Int64 == user.ID
}
