package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/sealer"
	"slotguard/backend/internal/store"
)

// CredentialRepo stores linked calendar accounts with their tokens sealed.
type CredentialRepo struct {
	db       *bun.DB
	sealer   *sealer.Sealer
	provider string
}

func NewCredentialRepo(db *bun.DB, s *sealer.Sealer) *CredentialRepo {
	return &CredentialRepo{db: db, sealer: s, provider: domain.ProviderGoogle}
}

func (r *CredentialRepo) GetExternalCredentials(ctx context.Context, ownerID string) (store.ExternalCredentials, error) {
	acct, err := r.find(ctx, r.db, ownerID)
	if err != nil {
		return store.ExternalCredentials{}, err
	}

	ad := r.additionalData(ownerID)
	access, err := r.sealer.Open(acct.SealedAccessToken, ad)
	if err != nil {
		return store.ExternalCredentials{}, fmt.Errorf("open access token: %w", err)
	}

	var refresh []byte
	if len(acct.SealedRefreshToken) > 0 {
		refresh, err = r.sealer.Open(acct.SealedRefreshToken, ad)
		if err != nil {
			return store.ExternalCredentials{}, fmt.Errorf("open refresh token: %w", err)
		}
	}

	creds := store.ExternalCredentials{
		AccessToken:  string(access),
		RefreshToken: string(refresh),
		ConnectedAt:  acct.CreatedAt,
	}
	if acct.TokenExpiry != nil {
		creds.Expiry = acct.TokenExpiry.UTC()
	}
	return creds, nil
}

// SaveExternalCredentials inserts or updates the owner's account. An empty
// refresh token keeps the stored one, since providers only return it on the
// first consent.
func (r *CredentialRepo) SaveExternalCredentials(ctx context.Context, ownerID string, creds store.ExternalCredentials) error {
	ad := r.additionalData(ownerID)
	access, err := r.sealer.Seal([]byte(creds.AccessToken), ad)
	if err != nil {
		return err
	}
	var refresh []byte
	if creds.RefreshToken != "" {
		refresh, err = r.sealer.Seal([]byte(creds.RefreshToken), ad)
		if err != nil {
			return err
		}
	}
	var expiry *time.Time
	if !creds.Expiry.IsZero() {
		e := creds.Expiry.UTC()
		expiry = &e
	}

	m := domain.ExternalAccount{
		OwnerID:            ownerID,
		Provider:           r.provider,
		SealedAccessToken:  access,
		SealedRefreshToken: refresh,
		TokenExpiry:        expiry,
	}
	_, err = upsertAccountQuery(r.db, &m).Exec(ctx)
	return err
}

// upsertAccountQuery inserts the account or, when one exists for the owner and
// provider, replaces its tokens. created_at and a stored refresh token survive
// an update that carries none.
func upsertAccountQuery(db bun.IDB, m *domain.ExternalAccount) *bun.InsertQuery {
	return db.NewInsert().
		Model(m).
		On("CONFLICT (owner_id, provider) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = COALESCE(EXCLUDED.refresh_token, ?TableAlias.refresh_token)").
		Set("token_expiry = EXCLUDED.token_expiry").
		Set("updated_at = EXCLUDED.updated_at")
}

func (r *CredentialRepo) find(ctx context.Context, db bun.IDB, ownerID string) (domain.ExternalAccount, error) {
	var acct domain.ExternalAccount
	q := db.NewSelect().
		Model(&acct).
		Where("owner_id = ?", ownerID).
		Where("provider = ?", r.provider).
		Limit(1)
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ExternalAccount{}, store.ErrNotFound
		}
		return domain.ExternalAccount{}, err
	}
	return acct, nil
}

func (r *CredentialRepo) additionalData(ownerID string) []byte {
	return []byte(r.provider + "/" + ownerID)
}
