package store

import (
	"context"
	"time"
)

// ExternalCredentials are the OAuth tokens of an owner's linked calendar
// account, already unsealed.
type ExternalCredentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	ConnectedAt  time.Time
}

// CredentialStore returns ErrNotFound when the owner has no linked account.
type CredentialStore interface {
	GetExternalCredentials(ctx context.Context, ownerID string) (ExternalCredentials, error)
	SaveExternalCredentials(ctx context.Context, ownerID string, creds ExternalCredentials) error
}
