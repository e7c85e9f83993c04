package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/odinbook/internal/models"
)

const accountColumns = "id, first_name, last_name, email, password_hash, created_at, updated_at"

type PostgresAccounts struct {
	db DB
}

func NewPostgresAccounts(db DB) *PostgresAccounts {
	return &PostgresAccounts{db: db}
}

func (s *PostgresAccounts) Create(ctx context.Context, params models.CreateAccountParams) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRow(ctx,
		`INSERT INTO accounts (first_name, last_name, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+accountColumns,
		params.FirstName, params.LastName, params.Email, params.PasswordHash,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("inserting account: %w", err)
	}
	account.FriendshipIDs = []uuid.UUID{}
	return account, nil
}

func (s *PostgresAccounts) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by id: %w", err)
	}
	return s.withFriendshipIDs(ctx, account)
}

func (s *PostgresAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`,
		email,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by email: %w", err)
	}
	return s.withFriendshipIDs(ctx, account)
}

// GetSummaries resolves display data for ids. Unknown ids are omitted.
func (s *PostgresAccounts) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AccountSummary, error) {
	summaries := make(map[uuid.UUID]models.AccountSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, first_name, last_name FROM accounts WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("listing account summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var summary models.AccountSummary
		if err := rows.Scan(&summary.ID, &summary.FirstName, &summary.LastName); err != nil {
			return nil, fmt.Errorf("scanning account summary: %w", err)
		}
		summaries[summary.ID] = summary
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account summaries: %w", err)
	}
	return summaries, nil
}

// AddFriendship appends friendshipID to the account's collection. Adding an
// id that is already present is a no-op.
func (s *PostgresAccounts) AddFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO account_friendships (account_id, friendship_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		accountID, friendshipID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("adding friendship to account: %w", err)
	}
	return nil
}

func (s *PostgresAccounts) RemoveFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM account_friendships WHERE account_id = $1 AND friendship_id = $2`,
		accountID, friendshipID,
	)
	if err != nil {
		return fmt.Errorf("removing friendship from account: %w", err)
	}
	return nil
}

func (s *PostgresAccounts) withFriendshipIDs(ctx context.Context, account *models.Account) (*models.Account, error) {
	rows, err := s.db.Query(ctx,
		`SELECT friendship_id FROM account_friendships
		 WHERE account_id = $1
		 ORDER BY position`,
		account.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing account friendships: %w", err)
	}
	defer rows.Close()

	account.FriendshipIDs = []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning friendship id: %w", err)
		}
		account.FriendshipIDs = append(account.FriendshipIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account friendships: %w", err)
	}
	return account, nil
}

func scanAccount(row Row) (*models.Account, error) {
	a := &models.Account{}
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}
