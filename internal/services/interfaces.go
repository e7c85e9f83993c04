package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/models"
)

// FriendshipStore persists friendship records. Lookups that match nothing
// return store.ErrNotFound.
type FriendshipStore interface {
	Create(ctx context.Context, requestorID, requesteeID uuid.UUID) (*models.Friendship, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.FriendshipStatus) (*models.Friendship, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	Count(ctx context.Context, filter models.FriendshipFilter) (int, error)
	Find(ctx context.Context, filter models.FriendshipFilter, skip, limit int) ([]models.Friendship, error)
}

// AccountStore persists accounts and their friendship reference collections.
type AccountStore interface {
	Create(ctx context.Context, params models.CreateAccountParams) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AccountSummary, error)
	AddFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error
	RemoveFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error
}

// FriendServiceInterface defines the contract for friendship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, requestorID uuid.UUID, requesteeID string) (*models.Friendship, error)
	AcceptRequest(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error)
	RemoveFriendship(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error)
	GetFriendship(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error)
	FindRelationshipWith(ctx context.Context, accountID, otherAccountID uuid.UUID) (*models.Friendship, error)
	ListPendingIncoming(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendRequest, int, error)
	ListSentRequests(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error)
	ListFriends(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error)
	FriendshipIDs(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)
}

// AccountServiceInterface defines the contract for account operations.
type AccountServiceInterface interface {
	Register(ctx context.Context, params RegisterParams) (*models.Account, error)
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// TokenServiceInterface issues and verifies bearer tokens.
type TokenServiceInterface interface {
	Issue(accountID uuid.UUID) (string, error)
	Parse(token string) (uuid.UUID, error)
}
