package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/models"
	"github.com/HammerMeetNail/odinbook/internal/store"
)

// fakeFriendshipStore is an in-memory FriendshipStore. Error fields, when
// set, are returned by the matching method.
type fakeFriendshipStore struct {
	records map[uuid.UUID]*models.Friendship
	clock   time.Time

	createErr error
	deleteErr error
	findErr   error

	deleteCalls int
}

func newFakeFriendshipStore() *fakeFriendshipStore {
	return &fakeFriendshipStore{
		records: make(map[uuid.UUID]*models.Friendship),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeFriendshipStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeFriendshipStore) Create(ctx context.Context, requestorID, requesteeID uuid.UUID) (*models.Friendship, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	for _, f := range s.records {
		if models.PairKey(f.RequestorID, f.RequesteeID) == models.PairKey(requestorID, requesteeID) {
			return nil, store.ErrDuplicatePair
		}
	}
	now := s.tick()
	f := &models.Friendship{
		ID:          uuid.New(),
		RequestorID: requestorID,
		RequesteeID: requesteeID,
		Status:      models.FriendshipStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.records[f.ID] = f
	copied := *f
	return &copied, nil
}

func (s *fakeFriendshipStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	f, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (s *fakeFriendshipStore) FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, f := range s.records {
		if (f.RequestorID == a && f.RequesteeID == b) || (f.RequestorID == b && f.RequesteeID == a) {
			copied := *f
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeFriendshipStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.FriendshipStatus) (*models.Friendship, error) {
	f, ok := s.records[id]
	if !ok || f.Status != from {
		return nil, store.ErrNotFound
	}
	f.Status = to
	f.UpdatedAt = s.tick()
	copied := *f
	return &copied, nil
}

func (s *fakeFriendshipStore) Delete(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	s.deleteCalls++
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	f, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.records, id)
	return f, nil
}

func (s *fakeFriendshipStore) matching(filter models.FriendshipFilter) []models.Friendship {
	var out []models.Friendship
	for _, f := range s.records {
		if filter.RequestorID != uuid.Nil && f.RequestorID != filter.RequestorID {
			continue
		}
		if filter.RequesteeID != uuid.Nil && f.RequesteeID != filter.RequesteeID {
			continue
		}
		if filter.Participant != uuid.Nil && !f.Involves(filter.Participant) {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (s *fakeFriendshipStore) Count(ctx context.Context, filter models.FriendshipFilter) (int, error) {
	return len(s.matching(filter)), nil
}

func (s *fakeFriendshipStore) Find(ctx context.Context, filter models.FriendshipFilter, skip, limit int) ([]models.Friendship, error) {
	all := s.matching(filter)
	if skip >= len(all) {
		return []models.Friendship{}, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

// fakeAccountStore is an in-memory AccountStore.
type fakeAccountStore struct {
	accounts map[uuid.UUID]*models.Account

	// addErrFor fails AddFriendship for the given account.
	addErrFor map[uuid.UUID]error
	// removeErrFor fails RemoveFriendship for the given account.
	removeErrFor map[uuid.UUID]error
	removeErr    error
	getErr       error
}

func newFakeAccountStore(accounts ...*models.Account) *fakeAccountStore {
	s := &fakeAccountStore{
		accounts:     make(map[uuid.UUID]*models.Account),
		addErrFor:    make(map[uuid.UUID]error),
		removeErrFor: make(map[uuid.UUID]error),
	}
	for _, a := range accounts {
		if a.FriendshipIDs == nil {
			a.FriendshipIDs = []uuid.UUID{}
		}
		s.accounts[a.ID] = a
	}
	return s
}

func (s *fakeAccountStore) Create(ctx context.Context, params models.CreateAccountParams) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.Email == params.Email {
			return nil, store.ErrDuplicateEmail
		}
	}
	a := &models.Account{
		ID:            uuid.New(),
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Email:         params.Email,
		PasswordHash:  params.PasswordHash,
		FriendshipIDs: []uuid.UUID{},
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (s *fakeAccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeAccountStore) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AccountSummary, error) {
	out := make(map[uuid.UUID]models.AccountSummary)
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out[id] = a.Summary()
		}
	}
	return out, nil
}

func (s *fakeAccountStore) AddFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error {
	if err := s.addErrFor[accountID]; err != nil {
		return err
	}
	a, ok := s.accounts[accountID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range a.FriendshipIDs {
		if id == friendshipID {
			return nil
		}
	}
	a.FriendshipIDs = append(a.FriendshipIDs, friendshipID)
	return nil
}

func (s *fakeAccountStore) RemoveFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	if err := s.removeErrFor[accountID]; err != nil {
		return err
	}
	a, ok := s.accounts[accountID]
	if !ok {
		return nil
	}
	kept := a.FriendshipIDs[:0]
	for _, id := range a.FriendshipIDs {
		if id != friendshipID {
			kept = append(kept, id)
		}
	}
	a.FriendshipIDs = kept
	return nil
}

func newTestAccount(first string) *models.Account {
	return &models.Account{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  first,
		Email:     first + "@example.com",
	}
}
