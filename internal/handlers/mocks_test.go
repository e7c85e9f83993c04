package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/models"
	"github.com/HammerMeetNail/odinbook/internal/services"
)

type mockFriendService struct {
	SendRequestFunc          func(ctx context.Context, requestorID uuid.UUID, requesteeID string) (*models.Friendship, error)
	AcceptRequestFunc        func(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error)
	RemoveFriendshipFunc     func(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error)
	GetFriendshipFunc        func(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error)
	FindRelationshipWithFunc func(ctx context.Context, accountID, otherAccountID uuid.UUID) (*models.Friendship, error)
	ListPendingIncomingFunc  func(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendRequest, int, error)
	ListSentRequestsFunc     func(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error)
	ListFriendsFunc          func(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error)
	FriendshipIDsFunc        func(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)
}

var _ services.FriendServiceInterface = (*mockFriendService)(nil)

func (m *mockFriendService) SendRequest(ctx context.Context, requestorID uuid.UUID, requesteeID string) (*models.Friendship, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, requestorID, requesteeID)
	}
	return nil, errors.New("SendRequest not mocked")
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, currentAccountID, friendshipID)
	}
	return nil, errors.New("AcceptRequest not mocked")
}

func (m *mockFriendService) RemoveFriendship(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error) {
	if m.RemoveFriendshipFunc != nil {
		return m.RemoveFriendshipFunc(ctx, currentAccountID, friendshipID)
	}
	return nil, errors.New("RemoveFriendship not mocked")
}

func (m *mockFriendService) GetFriendship(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error) {
	if m.GetFriendshipFunc != nil {
		return m.GetFriendshipFunc(ctx, currentAccountID, friendshipID)
	}
	return nil, errors.New("GetFriendship not mocked")
}

func (m *mockFriendService) FindRelationshipWith(ctx context.Context, accountID, otherAccountID uuid.UUID) (*models.Friendship, error) {
	if m.FindRelationshipWithFunc != nil {
		return m.FindRelationshipWithFunc(ctx, accountID, otherAccountID)
	}
	return nil, nil
}

func (m *mockFriendService) ListPendingIncoming(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendRequest, int, error) {
	if m.ListPendingIncomingFunc != nil {
		return m.ListPendingIncomingFunc(ctx, accountID, page, limit)
	}
	return []models.FriendRequest{}, 0, nil
}

func (m *mockFriendService) ListSentRequests(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error) {
	if m.ListSentRequestsFunc != nil {
		return m.ListSentRequestsFunc(ctx, accountID, page, limit)
	}
	return []models.FriendWithAccount{}, 0, nil
}

func (m *mockFriendService) ListFriends(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, accountID, page, limit)
	}
	return []models.FriendWithAccount{}, 0, nil
}

func (m *mockFriendService) FriendshipIDs(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	if m.FriendshipIDsFunc != nil {
		return m.FriendshipIDsFunc(ctx, accountID)
	}
	return []uuid.UUID{}, nil
}

type mockAccountService struct {
	RegisterFunc     func(ctx context.Context, params services.RegisterParams) (*models.Account, error)
	AuthenticateFunc func(ctx context.Context, email, password string) (*models.Account, error)
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

var _ services.AccountServiceInterface = (*mockAccountService)(nil)

func (m *mockAccountService) Register(ctx context.Context, params services.RegisterParams) (*models.Account, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return nil, errors.New("Register not mocked")
}

func (m *mockAccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	return nil, services.ErrInvalidCredentials
}

func (m *mockAccountService) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, services.ErrAccountNotFound
}

type mockTokenService struct {
	IssueFunc func(accountID uuid.UUID) (string, error)
	ParseFunc func(token string) (uuid.UUID, error)
}

func (m *mockTokenService) Issue(accountID uuid.UUID) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(accountID)
	}
	return "token-" + accountID.String(), nil
}

func (m *mockTokenService) Parse(token string) (uuid.UUID, error) {
	if m.ParseFunc != nil {
		return m.ParseFunc(token)
	}
	return uuid.Nil, services.ErrInvalidToken
}

type mockHealthChecker struct {
	err error
}

func (m mockHealthChecker) Health(ctx context.Context) error {
	return m.err
}
