package port

import (
	"context"

	"github.com/mercatto/catalog/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

// TokenVerifier resolves a bearer credential into the principal it was issued
// to. Signature and expiry checks are the implementation's responsibility.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Principal, error)
}
