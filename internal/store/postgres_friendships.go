package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/odinbook/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	friendshipPairIndex = "friendships_pair_idx"
	friendshipColumns   = "id, requestor_id, requestee_id, status, created_at, updated_at"
)

type PostgresFriendships struct {
	db DB
}

func NewPostgresFriendships(db DB) *PostgresFriendships {
	return &PostgresFriendships{db: db}
}

func (s *PostgresFriendships) Create(ctx context.Context, requestorID, requesteeID uuid.UUID) (*models.Friendship, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`INSERT INTO friendships (requestor_id, requestee_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+friendshipColumns,
		requestorID, requesteeID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == friendshipPairIndex:
				return nil, ErrDuplicatePair
			case pgErr.Code == pgForeignKeyViolation:
				return nil, ErrNotFound
			}
		}
		return nil, fmt.Errorf("inserting friendship: %w", err)
	}
	return friendship, nil
}

func (s *PostgresFriendships) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friendship: %w", err)
	}
	return friendship, nil
}

func (s *PostgresFriendships) FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships
		 WHERE (requestor_id = $1 AND requestee_id = $2)
		    OR (requestor_id = $2 AND requestee_id = $1)
		 LIMIT 1`,
		a, b,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding friendship by pair: %w", err)
	}
	return friendship, nil
}

// UpdateStatus moves a friendship from one status to another. It returns
// ErrNotFound when no friendship with id currently has status from.
func (s *PostgresFriendships) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.FriendshipStatus) (*models.Friendship, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`UPDATE friendships SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2
		 RETURNING `+friendshipColumns,
		id, string(from), string(to),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating friendship status: %w", err)
	}
	return friendship, nil
}

func (s *PostgresFriendships) Delete(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`DELETE FROM friendships WHERE id = $1 RETURNING `+friendshipColumns,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting friendship: %w", err)
	}
	return friendship, nil
}

func (s *PostgresFriendships) Count(ctx context.Context, filter models.FriendshipFilter) (int, error) {
	where, args := friendshipWhere(filter)
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM friendships`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting friendships: %w", err)
	}
	return count, nil
}

// Find returns matching friendships, most recently updated first.
func (s *PostgresFriendships) Find(ctx context.Context, filter models.FriendshipFilter, skip, limit int) ([]models.Friendship, error) {
	where, args := friendshipWhere(filter)
	args = append(args, limit, skip)
	query := fmt.Sprintf(
		`SELECT %s FROM friendships%s ORDER BY updated_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		friendshipColumns, where, len(args)-1, len(args),
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing friendships: %w", err)
	}
	defer rows.Close()

	friendships := []models.Friendship{}
	for rows.Next() {
		friendship, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning friendship: %w", err)
		}
		friendships = append(friendships, *friendship)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friendships: %w", err)
	}
	return friendships, nil
}

func friendshipWhere(filter models.FriendshipFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.RequestorID != uuid.Nil {
		args = append(args, filter.RequestorID)
		clauses = append(clauses, fmt.Sprintf("requestor_id = $%d", len(args)))
	}
	if filter.RequesteeID != uuid.Nil {
		args = append(args, filter.RequesteeID)
		clauses = append(clauses, fmt.Sprintf("requestee_id = $%d", len(args)))
	}
	if filter.Participant != uuid.Nil {
		args = append(args, filter.Participant)
		clauses = append(clauses, fmt.Sprintf("(requestor_id = $%[1]d OR requestee_id = $%[1]d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanFriendship(row Row) (*models.Friendship, error) {
	f := &models.Friendship{}
	if err := row.Scan(&f.ID, &f.RequestorID, &f.RequesteeID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if !f.Status.Valid() {
		return nil, fmt.Errorf("friendship %s: %w %q", f.ID, ErrUnknownStatus, f.Status)
	}
	return f, nil
}
