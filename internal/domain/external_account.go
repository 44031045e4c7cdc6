package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

const ProviderGoogle = "google"

// ExternalAccount is a linked calendar account. Token columns hold sealed
// ciphertext, never the raw tokens.
type ExternalAccount struct {
	bun.BaseModel `bun:"table:external_accounts"`

	OwnerID            string     `bun:"owner_id,pk"`
	Provider           string     `bun:"provider,pk"`
	SealedAccessToken  []byte     `bun:"access_token,notnull"`
	SealedRefreshToken []byte     `bun:"refresh_token"`
	TokenExpiry        *time.Time `bun:"token_expiry"`
	CreatedAt          time.Time  `bun:"created_at,notnull"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull"`
}

func (a *ExternalAccount) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
