package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/logging"
	"github.com/HammerMeetNail/odinbook/internal/models"
	"github.com/HammerMeetNail/odinbook/internal/store"
)

// FriendService manages the friendship state machine between two accounts:
// none -> pending (SendRequest), pending -> friends (AcceptRequest) and
// pending|friends -> none (RemoveFriendship). Every friendship id is kept in
// both participants' reference collections.
type FriendService struct {
	friendships FriendshipStore
	accounts    AccountStore
	logger      *logging.Logger
}

func NewFriendService(friendships FriendshipStore, accounts AccountStore) *FriendService {
	return &FriendService{
		friendships: friendships,
		accounts:    accounts,
		logger:      logging.Default.WithField("component", "friend_service"),
	}
}

func (s *FriendService) SendRequest(ctx context.Context, requestorID uuid.UUID, requesteeID string) (*models.Friendship, error) {
	friendID, err := uuid.Parse(strings.TrimSpace(requesteeID))
	if err != nil {
		return nil, ErrInvalidRequesteeID
	}
	if requestorID == friendID {
		return nil, ErrCannotFriendSelf
	}

	existing, err := s.FindRelationshipWith(ctx, requestorID, friendID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, relationshipExists(existing)
	}

	if _, err := s.accounts.GetByID(ctx, friendID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting requestee: %w", err)
	}

	friendship, err := s.friendships.Create(ctx, requestorID, friendID)
	if errors.Is(err, store.ErrDuplicatePair) {
		// Lost a race with a concurrent request for the same pair.
		if existing, lookupErr := s.FindRelationshipWith(ctx, requestorID, friendID); lookupErr == nil && existing != nil {
			return nil, relationshipExists(existing)
		}
		return nil, ErrRequestAlreadySent
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("creating friendship: %w", err)
	}

	if err := s.link(ctx, friendship); err != nil {
		return nil, err
	}

	return friendship, nil
}

func (s *FriendService) AcceptRequest(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error) {
	friendship, err := s.getByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}

	// Only the addressed party can accept
	if friendship.RequesteeID != currentAccountID {
		return nil, ErrNotFriendshipRequestee
	}

	if friendship.Status != models.FriendshipStatusPending {
		return nil, ErrFriendshipNotPending
	}

	updated, err := s.friendships.UpdateStatus(ctx, friendshipID, models.FriendshipStatusPending, models.FriendshipStatusFriends)
	if errors.Is(err, store.ErrNotFound) {
		// The record changed underneath us; report its current state.
		if _, getErr := s.getByID(ctx, friendshipID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrFriendshipNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("accepting friendship: %w", err)
	}

	return updated, nil
}

func (s *FriendService) RemoveFriendship(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error) {
	friendship, err := s.getByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}

	// Either party can remove the friendship
	if !friendship.Involves(currentAccountID) {
		return nil, ErrNotFriendshipParticipant
	}

	// Detach before deleting so a failure never leaves a dangling id.
	if err := s.detach(ctx, friendship); err != nil {
		return nil, err
	}

	deleted, err := s.friendships.Delete(ctx, friendshipID)
	if errors.Is(err, store.ErrNotFound) {
		// Removed concurrently; the ids are already detached.
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		cause := fmt.Errorf("removing friendship: %w", err)
		return nil, s.reattach(ctx, friendship, []uuid.UUID{friendship.RequestorID, friendship.RequesteeID}, cause)
	}

	return deleted, nil
}

// GetFriendship returns a friendship visible to one of its participants.
func (s *FriendService) GetFriendship(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error) {
	friendship, err := s.getByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if !friendship.Involves(currentAccountID) {
		return nil, ErrNotFriendshipParticipant
	}
	return friendship, nil
}

// FindRelationshipWith returns the friendship between the two accounts
// regardless of who sent the request, or nil when there is none.
func (s *FriendService) FindRelationshipWith(ctx context.Context, accountID, otherAccountID uuid.UUID) (*models.Friendship, error) {
	friendship, err := s.friendships.FindByPair(ctx, accountID, otherAccountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}
	return friendship, nil
}

// FriendshipIDs returns the friendship reference collection stored on the account.
func (s *FriendService) FriendshipIDs(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	if account.FriendshipIDs == nil {
		return []uuid.UUID{}, nil
	}
	return account.FriendshipIDs, nil
}

func (s *FriendService) ListPendingIncoming(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendRequest, int, error) {
	friendships, total, summaries, err := s.list(ctx, models.FriendshipFilter{
		RequesteeID: accountID,
		Status:      models.FriendshipStatusPending,
	}, page, limit, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("listing pending requests: %w", err)
	}

	requests := make([]models.FriendRequest, 0, len(friendships))
	for _, f := range friendships {
		requests = append(requests, models.FriendRequest{
			Friendship: f,
			Requestor:  summaryFor(summaries, f.RequestorID),
		})
	}
	return requests, total, nil
}

func (s *FriendService) ListSentRequests(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error) {
	friendships, total, summaries, err := s.list(ctx, models.FriendshipFilter{
		RequestorID: accountID,
		Status:      models.FriendshipStatusPending,
	}, page, limit, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("listing sent requests: %w", err)
	}
	return withOtherParty(friendships, summaries, accountID), total, nil
}

func (s *FriendService) ListFriends(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.FriendWithAccount, int, error) {
	friendships, total, summaries, err := s.list(ctx, models.FriendshipFilter{
		Participant: accountID,
		Status:      models.FriendshipStatusFriends,
	}, page, limit, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("listing friends: %w", err)
	}
	return withOtherParty(friendships, summaries, accountID), total, nil
}

// list pages through friendships matching filter and resolves the summary of
// every participant other than self.
func (s *FriendService) list(ctx context.Context, filter models.FriendshipFilter, page, limit int, self uuid.UUID) ([]models.Friendship, int, map[uuid.UUID]models.AccountSummary, error) {
	p := models.NewPage(page, limit)

	total, err := s.friendships.Count(ctx, filter)
	if err != nil {
		return nil, 0, nil, err
	}
	if total == 0 || p.Offset() >= total {
		return []models.Friendship{}, total, map[uuid.UUID]models.AccountSummary{}, nil
	}

	friendships, err := s.friendships.Find(ctx, filter, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, nil, err
	}

	ids := make([]uuid.UUID, 0, len(friendships))
	seen := make(map[uuid.UUID]bool, len(friendships))
	for _, f := range friendships {
		other := f.OtherParty(self)
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}

	summaries, err := s.accounts.GetSummaries(ctx, ids)
	if err != nil {
		return nil, 0, nil, err
	}
	return friendships, total, summaries, nil
}

// link attaches the friendship to both participants. If either attachment
// fails, the attachments made so far and the friendship itself are rolled back.
func (s *FriendService) link(ctx context.Context, friendship *models.Friendship) error {
	var attached []uuid.UUID
	for _, accountID := range []uuid.UUID{friendship.RequestorID, friendship.RequesteeID} {
		if err := s.accounts.AddFriendship(ctx, accountID, friendship.ID); err != nil {
			cause := fmt.Errorf("linking friendship to account %s: %w", accountID, err)
			return s.compensate(ctx, friendship, attached, cause)
		}
		attached = append(attached, accountID)
	}
	return nil
}

// compensate undoes a partially linked friendship. The returned error always
// wraps cause; compensation failures are joined to it.
func (s *FriendService) compensate(ctx context.Context, friendship *models.Friendship, attached []uuid.UUID, cause error) error {
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}

	if err := s.unlink(ctx, friendship, attached...); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.friendships.Delete(ctx, friendship.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		errs = append(errs, fmt.Errorf("rolling back friendship %s: %w", friendship.ID, err))
	}

	if len(errs) > 1 {
		s.logger.Error("Friendship rollback incomplete", map[string]interface{}{
			"friendship_id": friendship.ID.String(),
			"error":         errors.Join(errs[1:]...).Error(),
		})
	}
	return errors.Join(errs...)
}

// detach removes the friendship from both participants. If either removal
// fails, the ids removed so far are restored.
func (s *FriendService) detach(ctx context.Context, friendship *models.Friendship) error {
	var detached []uuid.UUID
	for _, accountID := range []uuid.UUID{friendship.RequestorID, friendship.RequesteeID} {
		if err := s.accounts.RemoveFriendship(ctx, accountID, friendship.ID); err != nil {
			cause := fmt.Errorf("unlinking friendship from account %s: %w", accountID, err)
			return s.reattach(ctx, friendship, detached, cause)
		}
		detached = append(detached, accountID)
	}
	return nil
}

// reattach restores the friendship on accountIDs after a failed removal.
// The returned error always wraps cause.
func (s *FriendService) reattach(ctx context.Context, friendship *models.Friendship, accountIDs []uuid.UUID, cause error) error {
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}
	for _, accountID := range accountIDs {
		if err := s.accounts.AddFriendship(ctx, accountID, friendship.ID); err != nil {
			errs = append(errs, fmt.Errorf("relinking friendship to account %s: %w", accountID, err))
		}
	}

	if len(errs) > 1 {
		s.logger.Error("Friendship restore incomplete", map[string]interface{}{
			"friendship_id": friendship.ID.String(),
			"error":         errors.Join(errs[1:]...).Error(),
		})
	}
	return errors.Join(errs...)
}

func (s *FriendService) unlink(ctx context.Context, friendship *models.Friendship, accountIDs ...uuid.UUID) error {
	var errs []error
	for _, accountID := range accountIDs {
		if err := s.accounts.RemoveFriendship(ctx, accountID, friendship.ID); err != nil {
			errs = append(errs, fmt.Errorf("unlinking friendship from account %s: %w", accountID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *FriendService) getByID(ctx context.Context, friendshipID uuid.UUID) (*models.Friendship, error) {
	friendship, err := s.friendships.GetByID(ctx, friendshipID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friendship: %w", err)
	}
	return friendship, nil
}

func relationshipExists(friendship *models.Friendship) error {
	if friendship.Status == models.FriendshipStatusFriends {
		return ErrAlreadyFriends
	}
	return ErrRequestAlreadySent
}

func withOtherParty(friendships []models.Friendship, summaries map[uuid.UUID]models.AccountSummary, self uuid.UUID) []models.FriendWithAccount {
	out := make([]models.FriendWithAccount, 0, len(friendships))
	for _, f := range friendships {
		out = append(out, models.FriendWithAccount{
			Friendship: f,
			Friend:     summaryFor(summaries, f.OtherParty(self)),
		})
	}
	return out
}

func summaryFor(summaries map[uuid.UUID]models.AccountSummary, id uuid.UUID) models.AccountSummary {
	if summary, ok := summaries[id]; ok {
		return summary
	}
	return models.AccountSummary{ID: id}
}
