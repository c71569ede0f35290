package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
)

type tokensRepo struct {
	db  dbtx
	now func() time.Time
}

const tokenColumns = `id, token_hash, user_id, purpose, expires_at, blacklisted, created_at`

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.TokenRecord) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (`+tokenColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.TokenHash,
		t.UserID,
		string(t.Purpose),
		toMillis(t.ExpiresAt),
		boolToInt(t.Blacklisted),
		toMillis(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

func (r *tokensRepo) FindToken(
	ctx context.Context,
	hash string,
	purpose domain.Purpose,
) (domain.TokenRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens
		 WHERE token_hash = ? AND purpose = ? AND blacklisted = 0 AND expires_at > ?`,
		hash, string(purpose), toMillis(r.now()),
	)
	rec, err := scanToken(row)
	if err != nil {
		return domain.TokenRecord{}, mapNotFound(err)
	}
	return rec, nil
}

// ConsumeToken is a single DELETE ... RETURNING statement. SQLite serialises
// writers, so two racing consumers cannot both see the row.
func (r *tokensRepo) ConsumeToken(
	ctx context.Context,
	hash string,
	purpose domain.Purpose,
) (domain.TokenRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM tokens
		 WHERE token_hash = ? AND purpose = ? AND blacklisted = 0 AND expires_at > ?
		 RETURNING `+tokenColumns,
		hash, string(purpose), toMillis(r.now()),
	)
	rec, err := scanToken(row)
	if err != nil {
		return domain.TokenRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *tokensRepo) DeleteTokensForSubject(
	ctx context.Context,
	userID string,
	purpose domain.Purpose,
) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE user_id = ? AND purpose = ?`,
		userID, string(purpose),
	)
	if err != nil {
		return 0, fmt.Errorf("delete tokens for subject: %w", err)
	}
	return res.RowsAffected()
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at <= ?`,
		toMillis(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}

func scanToken(row *sql.Row) (domain.TokenRecord, error) {
	var (
		rec                  domain.TokenRecord
		purpose              string
		blacklisted          int64
		expiresAt, createdAt int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.TokenHash,
		&rec.UserID,
		&purpose,
		&expiresAt,
		&blacklisted,
		&createdAt,
	)
	if err != nil {
		return domain.TokenRecord{}, err
	}
	rec.Purpose = domain.Purpose(purpose)
	rec.Blacklisted = blacklisted != 0
	rec.ExpiresAt = fromMillis(expiresAt)
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}
