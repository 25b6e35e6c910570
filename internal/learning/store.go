package learning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linguava/linguava/pkg/pg"
)

// Store persists studied languages. Rows are soft-deleted; every read
// filters on deleted_at IS NULL.
type Store interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]UserLanguage, error)
	Get(ctx context.Context, id uuid.UUID) (*UserLanguage, error)
	Create(ctx context.Context, ul *UserLanguage) error
	UpdateProficiency(ctx context.Context, id uuid.UUID, p Proficiency) (*UserLanguage, error)
	SetPrimary(ctx context.Context, userID, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const ulColumns = "id, user_id, language_code, proficiency, is_primary, created_at, updated_at, deleted_at"

func scanUserLanguage(row pgx.Row) (*UserLanguage, error) {
	var ul UserLanguage
	err := row.Scan(&ul.ID, &ul.UserID, &ul.LanguageCode, &ul.Proficiency, &ul.IsPrimary,
		&ul.CreatedAt, &ul.UpdatedAt, &ul.DeletedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user language: %w", err)
	}
	return &ul, nil
}

// ListByUser returns the user's active languages, primary first, then by
// when they were added.
func (s *PGStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserLanguage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+ulColumns+`
		FROM user_languages
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY is_primary DESC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user languages: %w", err)
	}
	defer rows.Close()

	var out []UserLanguage
	for rows.Next() {
		ul, err := scanUserLanguage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ul)
	}
	return out, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*UserLanguage, error) {
	return scanUserLanguage(s.db.QueryRow(ctx,
		`SELECT `+ulColumns+` FROM user_languages WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (s *PGStore) Create(ctx context.Context, ul *UserLanguage) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO user_languages (id, user_id, language_code, proficiency, is_primary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+ulColumns,
		ul.ID, ul.UserID, ul.LanguageCode, ul.Proficiency, ul.IsPrimary)
	created, err := scanUserLanguage(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyStudying
		}
		if pg.IsForeignKeyViolationError(err) {
			return ErrUnknownLanguage
		}
		return err
	}
	*ul = *created
	return nil
}

func (s *PGStore) UpdateProficiency(ctx context.Context, id uuid.UUID, p Proficiency) (*UserLanguage, error) {
	return scanUserLanguage(s.db.QueryRow(ctx, `
		UPDATE user_languages
		SET proficiency = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+ulColumns, id, p))
}

// SetPrimary marks one language primary and unmarks the rest in a single
// transaction, so the one-primary invariant holds under concurrency.
func (s *PGStore) SetPrimary(ctx context.Context, userID, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		// Unset before set: the partial unique index on (user_id) WHERE
		// is_primary is checked per statement.
		_, err := tx.Exec(ctx, `
			UPDATE user_languages SET is_primary = FALSE, updated_at = now()
			WHERE user_id = $1 AND id <> $2 AND is_primary AND deleted_at IS NULL`, userID, id)
		if err != nil {
			return fmt.Errorf("unset previous primary: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE user_languages SET is_primary = TRUE, updated_at = now()
			WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
		if err != nil {
			return fmt.Errorf("set primary: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SoftDelete hides the row from reads. Primary status is dropped so a
// deleted language can never shadow a future primary.
func (s *PGStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE user_languages
		SET deleted_at = now(), is_primary = FALSE, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete user language: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
