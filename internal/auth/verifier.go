package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
	"github.com/Shrey5112/Event-Booking-Platform/internal/store"
)

// Verifier turns a bearer credential into a principal. Tokens must carry
// a valid signature, must not be revoked, and must belong to an active
// user. The role is read from the database so role changes apply at once.
type Verifier struct {
	Secret string
	DB     *sql.DB
}

// Verify returns the principal for token, or an error wrapping
// model.ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (model.Principal, error) {
	if token == "" {
		return model.Principal{}, fmt.Errorf("missing token: %w", model.ErrUnauthorized)
	}

	claims, err := ValidateToken(v.Secret, token)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %w", model.ErrUnauthorized, err)
	}

	if v.DB == nil {
		return model.Principal{UserID: claims.UserID, Role: claims.Role}, nil
	}

	revoked, err := store.IsTokenRevoked(ctx, v.DB, claims.ID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %w", model.ErrInternal, err)
	}
	if revoked {
		return model.Principal{}, fmt.Errorf("token revoked: %w", model.ErrUnauthorized)
	}

	user, err := store.GetUser(ctx, v.DB, claims.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %w", model.ErrInternal, err)
	}
	if user == nil || user.DeletedAt != nil {
		return model.Principal{}, fmt.Errorf("user no longer exists: %w", model.ErrUnauthorized)
	}

	return model.Principal{UserID: user.ID, Role: user.Role}, nil
}

// Claims parses token without the database checks. Used by logout to
// learn the JTI and expiry to revoke.
func (v *Verifier) Claims(token string) (*Claims, error) {
	return ValidateToken(v.Secret, token)
}
